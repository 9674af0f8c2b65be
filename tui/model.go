package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// state represents the current phase of a run.
type state int

const (
	stateInit        state = iota
	stateChecking          // probing the stored token
	stateAuthorizing       // consent URL shown, waiting for the redirect
	stateUploading         // image transfer in progress
	statePublishing        // post request in flight
	stateSuccess           // all done
	stateError             // fatal error
)

// statusKind distinguishes line types in the status log.
type statusKind int

const (
	statusOK   statusKind = iota
	statusWarn            // warning / non-fatal
	statusInfo            // neutral info
)

// statusLine is one row in the scrolling status log.
type statusLine struct {
	kind statusKind
	text string
}

// Model is the BubbleTea model for a posting run.
type Model struct {
	state   state
	spinner spinner.Model
	width   int
	height  int

	authURL     string
	browserErr  error
	imagePath   string
	visibility  string
	postURL     string
	errMsg      string
	statusLines []statusLine
}

// Lipgloss styles, defined once at package level.
var (
	styleTitleBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 2)

	styleLinkBox = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("228")).
			Padding(0, 1)

	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleBold = lipgloss.NewStyle().Bold(true)
)

// NewModel creates the initial TUI model.
func NewModel() Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("33"))),
	)
	return Model{
		state:   stateInit,
		spinner: s,
	}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	// ── Run progress messages ────────────────────────────────────────────────

	case MsgBanner:
		return m, nil

	case MsgSetupHint:
		m.addStatus(statusInfo, "First-time setup: add redirect URL "+msg.RedirectURL)
		return m, nil

	case MsgTokenFound:
		m.state = stateChecking
		m.addStatus(statusInfo, "Found saved access token")
		return m, nil

	case MsgTokenValid:
		m.addStatus(statusOK, "Access token is still valid")
		return m, nil

	case MsgTokenInvalid:
		m.addStatus(statusWarn, "Access token rejected, re-authorizing")
		return m, nil

	case MsgTokenNotFound:
		m.addStatus(statusInfo, "No saved access token, starting authorization")
		return m, nil

	case MsgAuthorizeURL:
		m.authURL = msg.URL
		m.browserErr = msg.OpenErr
		m.state = stateAuthorizing
		if msg.OpenErr != nil {
			m.addStatus(statusWarn, fmt.Sprintf("Could not open a browser: %v", msg.OpenErr))
		} else {
			m.addStatus(statusInfo, "Opened browser for authorization")
		}
		return m, nil

	case MsgWaitingForCallback:
		m.state = stateAuthorizing
		return m, nil

	case MsgAuthSuccess:
		m.authURL = ""
		m.state = stateInit
		m.addStatus(statusOK, "Authorization successful!")
		return m, nil

	case MsgTokenSaved:
		m.addStatus(statusOK, "Token saved to "+msg.Path)
		return m, nil

	case MsgTokenSaveFailed:
		m.addStatus(statusWarn, fmt.Sprintf("Warning: failed to save token: %v", msg.Err))
		return m, nil

	case MsgUploadingImage:
		m.imagePath = msg.Path
		m.state = stateUploading
		return m, nil

	case MsgImageUploaded:
		m.addStatus(statusOK, "Image uploaded ("+msg.URN+")")
		return m, nil

	case MsgPublishing:
		m.visibility = msg.Visibility
		m.state = statePublishing
		return m, nil

	case MsgPostIDMissing:
		m.addStatus(statusWarn, "Post created but no post id was returned")
		return m, nil

	case MsgPublished:
		m.postURL = msg.URL
		m.visibility = msg.Visibility
		m.state = stateSuccess
		return m, nil

	case MsgFatal:
		m.errMsg = msg.Err.Error()
		m.state = stateError
		return m, nil
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() tea.View {
	switch m.state {
	case stateSuccess:
		return tea.NewView(m.viewSuccess())
	case stateError:
		return tea.NewView(m.viewError())
	default:
		return tea.NewView(m.viewMain())
	}
}

// viewMain is shown while the run is in progress.
func (m Model) viewMain() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  LinkedIn Post  "))
	b.WriteString("\n\n")

	switch m.state {
	case stateAuthorizing:
		if m.browserErr != nil {
			b.WriteString(styleBold.Render("Open this link to authorize:"))
		} else {
			b.WriteString(styleBold.Render("Authorize in your browser. If it did not open, visit:"))
		}
		b.WriteString("\n")
		b.WriteString(styleLinkBox.Render(m.authURL))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" Waiting for authorization...\n")

	case stateChecking:
		b.WriteString(m.spinner.View())
		b.WriteString(" Checking access token...\n")

	case stateUploading:
		b.WriteString(m.spinner.View())
		b.WriteString(" Uploading ")
		b.WriteString(styleDim.Render(m.imagePath))
		b.WriteString("...\n")

	case statePublishing:
		b.WriteString(m.spinner.View())
		b.WriteString(" Publishing post ")
		b.WriteString(styleDim.Render("(" + m.visibility + ")"))
		b.WriteString("...\n")

	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" Working...\n")
	}

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewSuccess is shown after the post was created.
func (m Model) viewSuccess() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleOK.Render("  ✓ Post published (" + m.visibility + ")!"))
	b.WriteString("\n\n")

	b.WriteString(styleBold.Render("URL: "))
	b.WriteString(m.postURL + "\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewError is shown when a fatal error occurs.
func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleErr.Render("  ✗ Posting failed"))
	b.WriteString("\n\n")
	b.WriteString(styleDim.Render("  " + m.errMsg))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewStatusLog renders the scrolling status log.
func (m Model) viewStatusLog() string {
	if len(m.statusLines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	for _, line := range m.statusLines {
		switch line.kind {
		case statusOK:
			b.WriteString(styleOK.Render("  ✓ " + line.text))
		case statusWarn:
			b.WriteString(styleWarn.Render("  ⚠ " + line.text))
		default:
			b.WriteString(styleDim.Render("  · " + line.text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// addStatus appends a line to the status log.
func (m *Model) addStatus(kind statusKind, text string) {
	m.statusLines = append(m.statusLines, statusLine{kind: kind, text: text})
}
