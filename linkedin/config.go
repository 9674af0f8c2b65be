package linkedin

import "time"

// OAuth endpoints and parameters registered with the LinkedIn developer app.
const (
	AuthURL     = "https://www.linkedin.com/oauth/v2/authorization"
	TokenURL    = "https://www.linkedin.com/oauth/v2/accessToken"
	RedirectURI = "http://localhost:8000/callback"
	Scopes      = "openid profile w_member_social"
)

// REST surface.
const (
	APIBaseURL = "https://api.linkedin.com"

	userInfoPath   = "/v2/userinfo"
	imagesInitPath = "/rest/images?action=initializeUpload"
	postsPath      = "/rest/posts"

	// UserInfoURL is the identity endpoint used for token validation.
	UserInfoURL = APIBaseURL + userInfoPath

	// FeedURLPrefix turns a post URN into a browsable URL.
	FeedURLPrefix = "https://www.linkedin.com/feed/update/"
)

// Versioning headers required by the /rest endpoints.
const (
	APIVersion            = "202504"
	RestliProtocolVersion = "2.0.0"

	headerAPIVersion      = "LinkedIn-Version"
	headerRestliProtocol  = "X-Restli-Protocol-Version"
	PostIDHeader          = "x-restli-id"
	personURNPrefix       = "urn:li:person:"
	lifecycleStatePublish = "PUBLISHED"
	feedDistributionMain  = "MAIN_FEED"
)

// Limits enforced locally before any request is made.
const (
	MaxPostLength = 3000
	MaxImageSize  = 100 * 1024 * 1024
)

// Timeout configuration for different operations
const (
	identityTimeout     = 10 * time.Second
	postCreationTimeout = 30 * time.Second
	imageUploadTimeout  = 5 * time.Minute
)

// PostURL returns the feed URL for a created post.
func PostURL(postURN string) string {
	return FeedURLPrefix + postURN + "/"
}
