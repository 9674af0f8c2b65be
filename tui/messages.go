package tui

// MsgBanner signals that the banner/title should be displayed.
type MsgBanner struct{}

// MsgSetupHint signals that no client credentials are stored yet.
type MsgSetupHint struct{ RedirectURL string }

// MsgTokenFound signals that a stored access token exists and is being checked.
type MsgTokenFound struct{}

// MsgTokenValid signals that the stored access token was accepted by the API.
type MsgTokenValid struct{}

// MsgTokenInvalid signals that the stored access token was rejected.
type MsgTokenInvalid struct{}

// MsgTokenNotFound signals that no token is stored (or it was reset).
type MsgTokenNotFound struct{}

// MsgAuthorizeURL signals that the consent URL is ready for the user.
type MsgAuthorizeURL struct {
	URL     string
	OpenErr error
}

// MsgWaitingForCallback signals that the redirect listener is waiting.
type MsgWaitingForCallback struct{}

// MsgAuthSuccess signals that a new access token was obtained.
type MsgAuthSuccess struct{}

// MsgTokenSaved signals that the token was written to the credential file.
type MsgTokenSaved struct{ Path string }

// MsgTokenSaveFailed signals that persisting the token failed.
type MsgTokenSaveFailed struct{ Err error }

// MsgUploadingImage signals that an image upload has started.
type MsgUploadingImage struct{ Path string }

// MsgImageUploaded signals that the image is registered under URN.
type MsgImageUploaded struct{ URN string }

// MsgPublishing signals that the post request is in flight.
type MsgPublishing struct{ Visibility string }

// MsgPostIDMissing signals that the post exists but its id header was absent.
type MsgPostIDMissing struct{}

// MsgPublished signals successful completion.
type MsgPublished struct {
	URL        string
	Visibility string
}

// MsgFatal signals a fatal error that should terminate the flow.
type MsgFatal struct{ Err error }
