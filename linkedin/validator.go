package linkedin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-authgate/linkedin-post/logutil"
)

// TokenValidator probes the userinfo endpoint to decide whether a stored
// access token is still accepted. Expiry is never judged locally.
type TokenValidator struct {
	http Doer
	url  string
}

// NewTokenValidator creates a validator against baseURL (APIBaseURL in production).
func NewTokenValidator(d Doer, baseURL string) *TokenValidator {
	return &TokenValidator{
		http: d,
		url:  strings.TrimRight(baseURL, "/") + userInfoPath,
	}
}

// IsTokenValid reports whether the API answers 200 for token. Any other
// status means invalid; only transport failures are returned as errors.
func (v *TokenValidator) IsTokenValid(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, v.url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.http.DoWithContext(reqCtx, req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return false, fmt.Errorf("token validation request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	logutil.Debugf("token validation: status=%d", resp.StatusCode)
	return resp.StatusCode == http.StatusOK, nil
}
