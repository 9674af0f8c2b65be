package linkedin

import (
	"strings"
	"unicode/utf8"
)

// Visibility controls who can see a post.
type Visibility string

const (
	VisibilityPublic      Visibility = "PUBLIC"
	VisibilityConnections Visibility = "CONNECTIONS"
)

// VisibilityFor maps the connections-only flag to a Visibility.
func VisibilityFor(connectionsOnly bool) Visibility {
	if connectionsOnly {
		return VisibilityConnections
	}
	return VisibilityPublic
}

// Label is the human readable form used in CLI output.
func (v Visibility) Label() string {
	if v == VisibilityConnections {
		return "connections only"
	}
	return "public"
}

// Post is the content of a single share. ImageURN is optional.
type Post struct {
	Text       string
	Visibility Visibility
	ImageURN   string
}

// ValidatePostText trims the text and checks it against MaxPostLength.
func ValidatePostText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyPost
	}
	if n := utf8.RuneCountInString(text); n > MaxPostLength {
		return "", PostTooLongError{Length: n, Limit: MaxPostLength}
	}
	return text, nil
}

type postBody struct {
	Author         string       `json:"author"`
	LifecycleState string       `json:"lifecycleState"`
	Visibility     Visibility   `json:"visibility"`
	Commentary     string       `json:"commentary"`
	Distribution   distribution `json:"distribution"`
	// Content must be absent, not null, for text-only posts.
	Content *postContent `json:"content,omitempty"`
}

type distribution struct {
	FeedDistribution               string   `json:"feedDistribution"`
	TargetEntities                 []string `json:"targetEntities"`
	ThirdPartyDistributionChannels []string `json:"thirdPartyDistributionChannels"`
}

type postContent struct {
	Media postMedia `json:"media"`
}

type postMedia struct {
	ID string `json:"id"`
}

func newPostBody(author string, post Post) postBody {
	visibility := post.Visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}
	body := postBody{
		Author:         author,
		LifecycleState: lifecycleStatePublish,
		Visibility:     visibility,
		Commentary:     post.Text,
		Distribution: distribution{
			FeedDistribution:               feedDistributionMain,
			TargetEntities:                 []string{},
			ThirdPartyDistributionChannels: []string{},
		},
	}
	if post.ImageURN != "" {
		body.Content = &postContent{Media: postMedia{ID: post.ImageURN}}
	}
	return body
}
