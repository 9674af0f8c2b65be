package linkedin

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	retry "github.com/appleboy/go-httpretry"

	"github.com/go-authgate/linkedin-post/logutil"
)

// Doer executes HTTP requests. *retry.Client satisfies it.
type Doer interface {
	DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error)
}

func neverRetry(error, *http.Response) bool { return false }

// NewHTTPClient returns the transport shared by the API client and the token
// validator. Requests are single-shot: a failed call is never retried.
func NewHTTPClient() (*retry.Client, error) {
	baseHTTPClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	client, err := retry.NewClient(
		retry.WithHTTPClient(baseHTTPClient),
		retry.WithMaxRetries(0),
		// Every status reaches the caller as a response, never as a retry error.
		retry.WithRetryableChecker(neverRetry),
		retry.WithLogger(retry.NewSlogAdapter(logutil.Slog())),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	return client, nil
}
