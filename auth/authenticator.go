package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/go-authgate/linkedin-post/logutil"
)

// Timeout configuration for different operations
const (
	tokenExchangeTimeout = 30 * time.Second
	listenerStopTimeout  = 5 * time.Second
	readHeaderTimeout    = 5 * time.Second
)

// Endpoints describes the provider side of the authorization-code grant.
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	RedirectURL string
	Scopes      []string
}

// Reporter receives progress from the browser flow.
type Reporter interface {
	AuthorizeURL(url string, openErr error)
	WaitingForCallback()
}

type nopReporter struct{}

func (nopReporter) AuthorizeURL(string, error) {}
func (nopReporter) WaitingForCallback()        {}

// Authenticator obtains access tokens through the browser-based
// authorization-code grant with a loopback redirect listener.
type Authenticator struct {
	endpoints   Endpoints
	openBrowser func(string) error
	httpClient  *http.Client
	reporter    Reporter
	newState    func() string
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithBrowserOpener replaces the default browser launcher.
func WithBrowserOpener(open func(string) error) Option {
	return func(a *Authenticator) { a.openBrowser = open }
}

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Authenticator) { a.httpClient = c }
}

// WithReporter sets the progress sink.
func WithReporter(r Reporter) Option {
	return func(a *Authenticator) { a.reporter = r }
}

// WithStateGenerator overrides how the anti-forgery state value is created.
func WithStateGenerator(fn func() string) Option {
	return func(a *Authenticator) { a.newState = fn }
}

// New creates an Authenticator for the given provider endpoints.
func New(endpoints Endpoints, opts ...Option) *Authenticator {
	a := &Authenticator{
		endpoints:   endpoints,
		openBrowser: OpenBrowser,
		httpClient:  &http.Client{Timeout: tokenExchangeTimeout},
		reporter:    nopReporter{},
		newState:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authenticator) oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.endpoints.AuthURL,
			TokenURL:  a.endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: a.endpoints.RedirectURL,
		Scopes:      a.endpoints.Scopes,
	}
}

// Authenticate runs the browser consent flow and exchanges the resulting
// code for an access token. It blocks until the redirect arrives or ctx is
// cancelled, and the callback port is released before it returns.
func (a *Authenticator) Authenticate(ctx context.Context, clientID, clientSecret string) (string, error) {
	redirect, err := url.Parse(a.endpoints.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	path := redirect.Path
	if path == "" {
		path = "/"
	}

	// Bind before the browser opens so an instant redirect cannot be lost.
	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	state := a.newState()
	results := make(chan AuthorizationResult, 1)
	srv := &http.Server{
		Handler:           newCallbackHandler(path, state, results),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ln)
	}()
	logutil.Debugf("callback listener ready: addr=%s path=%s", ln.Addr(), path)

	cfg := a.oauthConfig(clientID, clientSecret)
	authURL := cfg.AuthCodeURL(state)
	openErr := a.openBrowser(authURL)
	if openErr != nil {
		logutil.Debugf("browser launch failed: %v", openErr)
	}
	a.reporter.AuthorizeURL(authURL, openErr)
	a.reporter.WaitingForCallback()

	var result AuthorizationResult
	select {
	case result = <-results:
	case <-ctx.Done():
		stopListener(srv, serveDone)
		return "", ctx.Err()
	}
	stopListener(srv, serveDone)

	if result.Code == "" {
		reason := result.Error
		if reason == "" {
			reason = "no authorization code received"
		}
		return "", &AuthenticationError{Reason: reason}
	}
	logutil.Debugf("authorization code received")

	return a.exchange(ctx, cfg, result.Code)
}

// stopListener shuts the callback server down from the waiting goroutine,
// never from inside a handler, and waits until Serve has returned.
func stopListener(srv *http.Server, serveDone <-chan error) {
	ctx, cancel := context.WithTimeout(context.Background(), listenerStopTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logutil.Debugf("callback listener shutdown: %v", err)
		_ = srv.Close()
	}
	if err := <-serveDone; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logutil.Debugf("callback listener stopped: %v", err)
	}
}

func (a *Authenticator) exchange(ctx context.Context, cfg *oauth2.Config, code string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()
	reqCtx = context.WithValue(reqCtx, oauth2.HTTPClient, a.httpClient)

	token, err := cfg.Exchange(reqCtx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", &TokenExchangeError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	return token.AccessToken, nil
}
