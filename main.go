package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/go-authgate/linkedin-post/auth"
	"github.com/go-authgate/linkedin-post/credentials"
	"github.com/go-authgate/linkedin-post/linkedin"
	"github.com/go-authgate/linkedin-post/logutil"
	"github.com/go-authgate/linkedin-post/tui"
)

var (
	opts       options
	configPath string
	verbose    bool
)

func main() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkedin-post [text]",
		Short: "Publish a post to LinkedIn",
		Long: "linkedin-post publishes a text post, optionally with an image, to your LinkedIn feed. " +
			"Post text comes from the argument, --from-file, or stdin.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
		Example: `  linkedin-post "Shipped a new release today!"
  linkedin-post --from-file post.txt --image ./shot.png
  echo "Hello, network" | linkedin-post --connections-only`,
	}

	cmd.Flags().StringVar(&opts.fromFile, "from-file", "", "Read post text from a file")
	cmd.Flags().BoolVar(&opts.connectionsOnly, "connections-only", false, "Visible to 1st-degree connections only (default: public)")
	cmd.Flags().StringVar(&opts.image, "image", "", "Attach an image (jpg/png/gif, max 100 MB)")
	cmd.Flags().BoolVar(&opts.resetAuth, "reset-auth", false, "Clear saved OAuth token and re-authorize")
	cmd.Flags().BoolVar(&opts.resetKeys, "reset-keys", false, "Clear all saved credentials and re-prompt from scratch")
	cmd.Flags().StringVar(&configPath, "config", "", "Credential file (default: <user config dir>/linkedin-post/credentials.env or "+envConfigPath+" env)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().SortFlags = false

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	logutil.SetVerbose(verbose || debugFromEnv())

	o := opts
	if len(args) > 0 {
		o.text = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(resolveConfigPath(configPath))
	if err != nil {
		return err
	}
	logutil.Debugf("credential file: %s", a.storePath)

	plain := tui.NewPlainDisplayer(os.Stderr)
	plain.Banner()

	// Debug logs share stderr with the TUI, so verbose runs stay plain.
	if !isTTY() || logutil.Verbose() {
		if err := a.run(ctx, o, plain); err != nil {
			plain.Fatal(err)
			return err
		}
		return nil
	}

	// Prompts finish before the TUI takes over stderr.
	j, err := a.prepare(o, plain)
	if err != nil {
		plain.Fatal(err)
		return err
	}

	// Run TUI program on stderr so stdout pipes are not corrupted.
	// WithInput(nil): Ctrl+C is handled by signal.NotifyContext.
	p := tea.NewProgram(tui.NewModel(), tea.WithOutput(os.Stderr), tea.WithInput(nil))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		}
	}()

	d := tui.NewProgramDisplayer(p)
	d.Banner()
	runErr := a.publish(ctx, j, d)
	if runErr != nil {
		d.Fatal(runErr)
	}
	p.Quit()
	wg.Wait()
	return runErr
}

// newApp builds the production wiring for one invocation.
func newApp(path string) (*app, error) {
	httpClient, err := linkedin.NewHTTPClient()
	if err != nil {
		return nil, err
	}

	stdin := bufio.NewReader(os.Stdin)
	store := credentials.NewFileStore(path)

	return &app{
		store:           store,
		storePath:       store.Path(),
		prompter:        credentials.NewTerminalPrompter(os.Stdin, stdin, os.Stderr),
		stdin:           stdin,
		stdinIsTerminal: term.IsTerminal(int(os.Stdin.Fd())),
		stdout:          os.Stdout,
		stderr:          os.Stderr,
		newAuthenticator: func(r auth.Reporter) tokenMinter {
			return auth.New(
				auth.Endpoints{
					AuthURL:     linkedin.AuthURL,
					TokenURL:    linkedin.TokenURL,
					RedirectURL: linkedin.RedirectURI,
					Scopes:      strings.Fields(linkedin.Scopes),
				},
				auth.WithReporter(r),
			)
		},
		validator: linkedin.NewTokenValidator(httpClient, linkedin.APIBaseURL),
		newClient: func(token string) (poster, error) {
			return linkedin.NewClient(token, linkedin.WithHTTPClient(httpClient))
		},
	}, nil
}

// isTTY reports whether stderr is an interactive terminal.
// We check stderr because the TUI renders to stderr, allowing stdout to be piped.
func isTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
