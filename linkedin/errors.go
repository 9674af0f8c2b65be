package linkedin

import (
	"errors"
	"fmt"
)

// Operations that can fail with a non-2xx response.
var (
	ErrIdentityLookup = errors.New("identity lookup failed")
	ErrUploadInit     = errors.New("image upload initialization failed")
	ErrUploadTransfer = errors.New("image upload transfer failed")
	ErrPostCreation   = errors.New("post creation failed")
)

// ErrEmptyPost is returned when the post text is empty after trimming.
var ErrEmptyPost = errors.New("post text is empty")

// APIError carries the upstream status and body of a rejected request.
type APIError struct {
	Op         error
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v (status %d): %s", e.Op, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Op }

// UnsupportedFormatError is returned for image extensions LinkedIn does not accept.
type UnsupportedFormatError struct {
	Extension string
}

func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported image format %q (supported: .gif, .jpeg, .jpg, .png)", e.Extension)
}

// ImageTooLargeError is returned when an image exceeds MaxImageSize.
type ImageTooLargeError struct {
	Size  int64
	Limit int64
}

func (e ImageTooLargeError) Error() string {
	return fmt.Sprintf("image too large: %d bytes (max %d bytes / 100 MB)", e.Size, e.Limit)
}

// PostTooLongError is returned when the post text exceeds MaxPostLength characters.
type PostTooLongError struct {
	Length int
	Limit  int
}

func (e PostTooLongError) Error() string {
	return fmt.Sprintf("post too long: %d/%d characters", e.Length, e.Limit)
}
