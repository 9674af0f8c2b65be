package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-authgate/linkedin-post/logutil"
)

// Client performs authenticated calls against the LinkedIn REST API.
// It is not meant to outlive a single run: the member id is cached once
// and never invalidated.
type Client struct {
	http    Doer
	baseURL string
	token   string

	mu     sync.Mutex
	userID string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the default transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// NewClient creates a client that authenticates with accessToken.
func NewClient(accessToken string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: APIBaseURL,
		token:   accessToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		d, err := NewHTTPClient()
		if err != nil {
			return nil, err
		}
		c.http = d
	}
	return c, nil
}

type userInfoResponse struct {
	Sub string `json:"sub"`
}

// GetUserID returns the member id (the userinfo "sub" claim). The first
// successful lookup is cached for the lifetime of the client.
func (c *Client) GetUserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID != "" {
		return c.userID, nil
	}

	resp, body, err := c.send(ctx, identityTimeout, http.MethodGet, c.baseURL+userInfoPath, nil, nil)
	if err != nil {
		return "", fmt.Errorf("userinfo request failed: %w", err)
	}
	if !isSuccess(resp.StatusCode) {
		return "", &APIError{Op: ErrIdentityLookup, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var info userInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to parse userinfo response: %w", err)
	}
	if info.Sub == "" {
		return "", errors.New("userinfo response has no sub claim")
	}

	logutil.Debugf("resolved member id: sub=%s", info.Sub)
	c.userID = info.Sub
	return c.userID, nil
}

type initializeUploadRequest struct {
	InitializeUploadRequest struct {
		Owner string `json:"owner"`
	} `json:"initializeUploadRequest"`
}

type initializeUploadResponse struct {
	Value struct {
		UploadURL string `json:"uploadUrl"`
		Image     string `json:"image"`
	} `json:"value"`
}

// UploadImage registers an image upload and transfers the file, returning
// the image URN to reference from a post. Format and size are checked
// before any request is made.
func (c *Client) UploadImage(ctx context.Context, path string) (string, error) {
	img, err := InspectImage(path)
	if err != nil {
		return "", err
	}

	userID, err := c.GetUserID(ctx)
	if err != nil {
		return "", err
	}

	var initReq initializeUploadRequest
	initReq.InitializeUploadRequest.Owner = personURNPrefix + userID
	payload, err := json.Marshal(initReq)
	if err != nil {
		return "", fmt.Errorf("marshal upload request: %w", err)
	}

	logutil.Debugf("initialize upload: path=%s bytes=%d", img.Path, img.Size)
	resp, body, err := c.send(
		ctx,
		identityTimeout,
		http.MethodPost,
		c.baseURL+imagesInitPath,
		bytes.NewReader(payload),
		restHeaders("application/json"),
	)
	if err != nil {
		return "", fmt.Errorf("upload initialization request failed: %w", err)
	}
	if !isSuccess(resp.StatusCode) {
		return "", &APIError{Op: ErrUploadInit, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var initResp initializeUploadResponse
	if err := json.Unmarshal(body, &initResp); err != nil {
		return "", fmt.Errorf("failed to parse upload initialization response: %w", err)
	}
	if initResp.Value.UploadURL == "" || initResp.Value.Image == "" {
		return "", fmt.Errorf("upload initialization response is incomplete: %s", string(body))
	}
	logutil.Debugf("upload initialized: image=%s", initResp.Value.Image)

	data, err := os.ReadFile(img.Path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", img.ContentType)
	resp, body, err = c.send(
		ctx,
		imageUploadTimeout,
		http.MethodPut,
		initResp.Value.UploadURL,
		bytes.NewReader(data),
		header,
	)
	if err != nil {
		return "", fmt.Errorf("image transfer request failed: %w", err)
	}
	if !isSuccess(resp.StatusCode) {
		return "", &APIError{Op: ErrUploadTransfer, StatusCode: resp.StatusCode, Body: string(body)}
	}
	logutil.Debugf("image transferred: image=%s", initResp.Value.Image)

	return initResp.Value.Image, nil
}

// CreatePost publishes post and returns the URN from the x-restli-id header.
// A missing header yields an empty URN: the post already exists at that point.
func (c *Client) CreatePost(ctx context.Context, post Post) (string, error) {
	userID, err := c.GetUserID(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(newPostBody(personURNPrefix+userID, post))
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}

	logutil.Debugf("creating post: visibility=%s image=%t", post.Visibility, post.ImageURN != "")
	resp, body, err := c.send(
		ctx,
		postCreationTimeout,
		http.MethodPost,
		c.baseURL+postsPath,
		bytes.NewReader(payload),
		restHeaders("application/json"),
	)
	if err != nil {
		return "", fmt.Errorf("post request failed: %w", err)
	}
	if !isSuccess(resp.StatusCode) {
		return "", &APIError{Op: ErrPostCreation, StatusCode: resp.StatusCode, Body: string(body)}
	}

	postURN := resp.Header.Get(PostIDHeader)
	if postURN == "" {
		logutil.Debugf("post created without %s header", PostIDHeader)
	}
	return postURN, nil
}

// send issues a bearer-authenticated request and returns the response with
// its body already drained and closed.
func (c *Client) send(
	ctx context.Context,
	timeout time.Duration,
	method, url string,
	body io.Reader,
	header http.Header,
) (*http.Response, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	logutil.Debugf("%s %s -> %d", method, req.URL.Path, resp.StatusCode)
	return resp, respBody, nil
}

func restHeaders(contentType string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", contentType)
	h.Set(headerAPIVersion, APIVersion)
	h.Set(headerRestliProtocol, RestliProtocolVersion)
	return h
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
