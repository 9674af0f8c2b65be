package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-authgate/linkedin-post/auth"
	"github.com/go-authgate/linkedin-post/credentials"
	"github.com/go-authgate/linkedin-post/linkedin"
	"github.com/go-authgate/linkedin-post/logutil"
	"github.com/go-authgate/linkedin-post/tui"
)

// options holds the parsed command line.
type options struct {
	text            string
	fromFile        string
	connectionsOnly bool
	image           string
	resetAuth       bool
	resetKeys       bool
}

type tokenMinter interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) (string, error)
}

type tokenChecker interface {
	IsTokenValid(ctx context.Context, token string) (bool, error)
}

type poster interface {
	UploadImage(ctx context.Context, path string) (string, error)
	CreatePost(ctx context.Context, post linkedin.Post) (string, error)
}

// app wires the components of one invocation. Tests replace the
// constructors with fakes.
type app struct {
	store     credentials.Store
	storePath string
	prompter  *credentials.Prompter

	stdin           *bufio.Reader
	stdinIsTerminal bool
	stdout          io.Writer
	stderr          io.Writer

	newAuthenticator func(r auth.Reporter) tokenMinter
	validator        tokenChecker
	newClient        func(token string) (poster, error)
}

// job is everything gathered and validated before the first network call.
type job struct {
	clientID     string
	clientSecret string
	storedToken  string
	forceAuth    bool
	post         linkedin.Post
	imagePath    string
}

// run executes the whole invocation with a single displayer.
func (a *app) run(ctx context.Context, opts options, d tui.Displayer) error {
	j, err := a.prepare(opts, d)
	if err != nil {
		return err
	}
	return a.publish(ctx, j, d)
}

// prepare applies resets, collects credentials and validates all local
// input. It never touches the network.
func (a *app) prepare(opts options, d tui.Displayer) (*job, error) {
	switch {
	case opts.resetKeys:
		if err := a.store.Remove(credentials.AllKeys...); err != nil {
			return nil, fmt.Errorf("reset credentials: %w", err)
		}
		logutil.Debugf("cleared stored credentials")
	case opts.resetAuth:
		if err := a.store.Remove(credentials.KeyAccessToken); err != nil {
			return nil, fmt.Errorf("reset access token: %w", err)
		}
		logutil.Debugf("cleared stored access token")
	}

	storedID, err := a.store.Get(credentials.KeyClientID)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if storedID == "" {
		d.SetupHint(linkedin.RedirectURI)
	}

	clientID, err := a.prompter.IfMissing(a.store, credentials.KeyClientID, "Client ID", false)
	if err != nil {
		return nil, err
	}
	if clientID == "" {
		return nil, credentials.MissingError{Key: credentials.KeyClientID}
	}
	clientSecret, err := a.prompter.IfMissing(a.store, credentials.KeyClientSecret, "Client Secret", true)
	if err != nil {
		return nil, err
	}
	if clientSecret == "" {
		return nil, credentials.MissingError{Key: credentials.KeyClientSecret}
	}

	text, err := a.resolveText(opts)
	if err != nil {
		return nil, err
	}
	text, err = linkedin.ValidatePostText(text)
	if err != nil {
		return nil, err
	}

	if opts.image != "" {
		img, err := linkedin.InspectImage(opts.image)
		if err != nil {
			return nil, err
		}
		logutil.Debugf("image ok: path=%s size=%d type=%s", img.Path, img.Size, img.ContentType)
	}

	token, err := a.store.Get(credentials.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	return &job{
		clientID:     clientID,
		clientSecret: clientSecret,
		storedToken:  token,
		forceAuth:    opts.resetAuth,
		post: linkedin.Post{
			Text:       text,
			Visibility: linkedin.VisibilityFor(opts.connectionsOnly),
		},
		imagePath: opts.image,
	}, nil
}

// publish obtains a usable token, uploads the optional image and creates
// the post. The post URL is written to stdout.
func (a *app) publish(ctx context.Context, j *job, d tui.Displayer) error {
	token, err := a.ensureToken(ctx, j, d)
	if err != nil {
		return err
	}

	client, err := a.newClient(token)
	if err != nil {
		return err
	}

	post := j.post
	if j.imagePath != "" {
		d.UploadingImage(j.imagePath)
		urn, err := client.UploadImage(ctx, j.imagePath)
		if err != nil {
			return err
		}
		d.ImageUploaded(urn)
		post.ImageURN = urn
	}

	label := post.Visibility.Label()
	d.Publishing(label)
	postURN, err := client.CreatePost(ctx, post)
	if err != nil {
		return err
	}
	if postURN == "" {
		logutil.Debugf("post created without %s header", linkedin.PostIDHeader)
		d.PostIDMissing()
	}

	postURL := linkedin.PostURL(postURN)
	d.Published(postURL, label)
	fmt.Fprintf(a.stdout, "Post published (%s)!\n%s\n", label, postURL)
	return nil
}

// ensureToken returns the stored token when the API still accepts it,
// otherwise mints and persists a new one.
func (a *app) ensureToken(ctx context.Context, j *job, d tui.Displayer) (string, error) {
	switch {
	case j.forceAuth || j.storedToken == "":
		d.TokenNotFound()
	default:
		d.TokenFound()
		ok, err := a.validator.IsTokenValid(ctx, j.storedToken)
		if err != nil {
			return "", err
		}
		if ok {
			d.TokenValid()
			return j.storedToken, nil
		}
		d.TokenInvalid()
	}

	token, err := a.newAuthenticator(d).Authenticate(ctx, j.clientID, j.clientSecret)
	if err != nil {
		return "", err
	}
	d.AuthSuccess()

	if err := a.store.Set(credentials.KeyAccessToken, token); err != nil {
		d.TokenSaveFailed(err)
	} else {
		d.TokenSaved(a.storePath)
	}
	return token, nil
}

// resolveText picks the post text: argument, then --from-file, then stdin.
func (a *app) resolveText(opts options) (string, error) {
	if opts.text != "" {
		return opts.text, nil
	}

	if opts.fromFile != "" {
		data, err := os.ReadFile(opts.fromFile)
		if err != nil {
			return "", fmt.Errorf("read post file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if a.stdinIsTerminal {
		fmt.Fprintln(a.stderr, "Enter post text (Ctrl+D to send):")
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
