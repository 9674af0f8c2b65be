package tui

import (
	"fmt"
	"io"

	tea "charm.land/bubbletea/v2"
)

// Displayer abstracts all operator-facing progress output.
type Displayer interface {
	Banner()
	SetupHint(redirectURL string)
	TokenFound()
	TokenValid()
	TokenInvalid()
	TokenNotFound()
	AuthorizeURL(url string, openErr error)
	WaitingForCallback()
	AuthSuccess()
	TokenSaved(path string)
	TokenSaveFailed(err error)
	UploadingImage(path string)
	ImageUploaded(urn string)
	Publishing(visibility string)
	PostIDMissing()
	Published(url, visibility string)
	Fatal(err error)
}

// PlainDisplayer writes plain text output to w.
// Used when stderr is not a TTY (pipes, CI, SSH without pty).
type PlainDisplayer struct {
	w io.Writer
}

// NewPlainDisplayer creates a PlainDisplayer that writes to w.
func NewPlainDisplayer(w io.Writer) *PlainDisplayer {
	return &PlainDisplayer{w: w}
}

func (p *PlainDisplayer) Banner() {
	fmt.Fprintln(p.w, "=== LinkedIn Post ===")
	fmt.Fprintln(p.w)
}

func (p *PlainDisplayer) SetupHint(redirectURL string) {
	fmt.Fprintln(p.w, "First-time setup")
	fmt.Fprintln(p.w, "================")
	fmt.Fprintln(p.w, "You need OAuth 2.0 credentials from the LinkedIn Developer Portal.")
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, "1. Create an app at https://www.linkedin.com/developers/apps/new")
	fmt.Fprintln(p.w, "   (requires a Company Page)")
	fmt.Fprintln(p.w, "2. Add products: Sign In with LinkedIn using OpenID Connect")
	fmt.Fprintln(p.w, "   and Share on LinkedIn")
	fmt.Fprintf(p.w, "3. In Auth -> Redirect URLs, add: %s\n", redirectURL)
	fmt.Fprintln(p.w, "4. Copy the Client ID and Client Secret below")
	fmt.Fprintln(p.w)
}

func (p *PlainDisplayer) TokenFound() {
	fmt.Fprintln(p.w, "Found saved access token, checking it...")
}

func (p *PlainDisplayer) TokenValid() {
	fmt.Fprintln(p.w, "Access token is still valid, using it...")
}

func (p *PlainDisplayer) TokenInvalid() {
	fmt.Fprintln(p.w, "Access token was rejected, re-authorizing...")
}

func (p *PlainDisplayer) TokenNotFound() {
	fmt.Fprintln(p.w, "No saved access token, starting authorization...")
}

func (p *PlainDisplayer) AuthorizeURL(url string, openErr error) {
	fmt.Fprintln(p.w, "----------------------------------------")
	if openErr != nil {
		fmt.Fprintf(p.w, "Could not open a browser (%v).\n", openErr)
		fmt.Fprintf(p.w, "Please open this link to authorize:\n%s\n", url)
	} else {
		fmt.Fprintf(p.w, "Opening browser for authorization...\nIf it did not open, visit:\n%s\n", url)
	}
	fmt.Fprintln(p.w, "----------------------------------------")
}

func (p *PlainDisplayer) WaitingForCallback() {
	fmt.Fprintln(p.w, "Waiting for authorization...")
}

func (p *PlainDisplayer) AuthSuccess() {
	fmt.Fprintln(p.w, "Authorization successful!")
}

func (p *PlainDisplayer) TokenSaved(path string) {
	fmt.Fprintf(p.w, "Token saved to %s\n", path)
}

func (p *PlainDisplayer) TokenSaveFailed(err error) {
	fmt.Fprintf(p.w, "Warning: Failed to save token: %v\n", err)
}

func (p *PlainDisplayer) UploadingImage(path string) {
	fmt.Fprintf(p.w, "Uploading image %s...\n", path)
}

func (p *PlainDisplayer) ImageUploaded(urn string) {
	fmt.Fprintf(p.w, "Image uploaded: %s\n", urn)
}

func (p *PlainDisplayer) Publishing(visibility string) {
	fmt.Fprintf(p.w, "Publishing post (%s)...\n", visibility)
}

func (p *PlainDisplayer) PostIDMissing() {
	fmt.Fprintln(p.w, "Warning: post created but LinkedIn returned no post id, the URL is incomplete")
}

func (p *PlainDisplayer) Published(_, visibility string) {
	fmt.Fprintf(p.w, "Post published (%s)!\n", visibility)
}

func (p *PlainDisplayer) Fatal(err error) {
	fmt.Fprintf(p.w, "Error: %v\n", err)
}

// NoopDisplayer is a no-op implementation used in tests.
type NoopDisplayer struct{}

func (NoopDisplayer) Banner()                        {}
func (NoopDisplayer) SetupHint(_ string)             {}
func (NoopDisplayer) TokenFound()                    {}
func (NoopDisplayer) TokenValid()                    {}
func (NoopDisplayer) TokenInvalid()                  {}
func (NoopDisplayer) TokenNotFound()                 {}
func (NoopDisplayer) AuthorizeURL(_ string, _ error) {}
func (NoopDisplayer) WaitingForCallback()            {}
func (NoopDisplayer) AuthSuccess()                   {}
func (NoopDisplayer) TokenSaved(_ string)            {}
func (NoopDisplayer) TokenSaveFailed(_ error)        {}
func (NoopDisplayer) UploadingImage(_ string)        {}
func (NoopDisplayer) ImageUploaded(_ string)         {}
func (NoopDisplayer) Publishing(_ string)            {}
func (NoopDisplayer) PostIDMissing()                 {}
func (NoopDisplayer) Published(_, _ string)          {}
func (NoopDisplayer) Fatal(_ error)                  {}

// ProgramDisplayer sends BubbleTea messages to a running tea.Program.
type ProgramDisplayer struct {
	p *tea.Program
}

// NewProgramDisplayer creates a ProgramDisplayer that sends messages to p.
func NewProgramDisplayer(p *tea.Program) *ProgramDisplayer {
	return &ProgramDisplayer{p: p}
}

func (t *ProgramDisplayer) Banner() {
	t.p.Send(MsgBanner{})
}

func (t *ProgramDisplayer) SetupHint(redirectURL string) {
	t.p.Send(MsgSetupHint{RedirectURL: redirectURL})
}

func (t *ProgramDisplayer) TokenFound() {
	t.p.Send(MsgTokenFound{})
}

func (t *ProgramDisplayer) TokenValid() {
	t.p.Send(MsgTokenValid{})
}

func (t *ProgramDisplayer) TokenInvalid() {
	t.p.Send(MsgTokenInvalid{})
}

func (t *ProgramDisplayer) TokenNotFound() {
	t.p.Send(MsgTokenNotFound{})
}

func (t *ProgramDisplayer) AuthorizeURL(url string, openErr error) {
	t.p.Send(MsgAuthorizeURL{URL: url, OpenErr: openErr})
}

func (t *ProgramDisplayer) WaitingForCallback() {
	t.p.Send(MsgWaitingForCallback{})
}

func (t *ProgramDisplayer) AuthSuccess() {
	t.p.Send(MsgAuthSuccess{})
}

func (t *ProgramDisplayer) TokenSaved(path string) {
	t.p.Send(MsgTokenSaved{Path: path})
}

func (t *ProgramDisplayer) TokenSaveFailed(err error) {
	t.p.Send(MsgTokenSaveFailed{Err: err})
}

func (t *ProgramDisplayer) UploadingImage(path string) {
	t.p.Send(MsgUploadingImage{Path: path})
}

func (t *ProgramDisplayer) ImageUploaded(urn string) {
	t.p.Send(MsgImageUploaded{URN: urn})
}

func (t *ProgramDisplayer) Publishing(visibility string) {
	t.p.Send(MsgPublishing{Visibility: visibility})
}

func (t *ProgramDisplayer) PostIDMissing() {
	t.p.Send(MsgPostIDMissing{})
}

func (t *ProgramDisplayer) Published(url, visibility string) {
	t.p.Send(MsgPublished{URL: url, Visibility: visibility})
}

func (t *ProgramDisplayer) Fatal(err error) {
	t.p.Send(MsgFatal{Err: err})
}
