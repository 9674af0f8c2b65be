package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-authgate/linkedin-post/auth"
	"github.com/go-authgate/linkedin-post/credentials"
	"github.com/go-authgate/linkedin-post/linkedin"
	"github.com/go-authgate/linkedin-post/tui"
)

// fakeAPI stands in for the LinkedIn REST surface and counts every call.
type fakeAPI struct {
	server      *httptest.Server
	validTokens map[string]bool
	omitPostID  atomic.Bool

	userinfo atomic.Int32
	inits    atomic.Int32
	uploads  atomic.Int32
	posts    atomic.Int32

	mu       sync.Mutex
	lastPost map[string]any
	lastAuth string
}

func newFakeAPI(t *testing.T, validTokens ...string) *fakeAPI {
	t.Helper()
	f := &fakeAPI{validTokens: map[string]bool{}}
	for _, tok := range validTokens {
		f.validTokens[tok] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.userinfo.Add(1)
		if !f.validTokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")] {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid access token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"abc123","name":"Test User"}`))
	})
	mux.HandleFunc("/rest/images", func(w http.ResponseWriter, r *http.Request) {
		f.inits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": map[string]string{
				"uploadUrl": f.server.URL + "/upload/1",
				"image":     "urn:li:image:C4E",
			},
		})
	})
	mux.HandleFunc("/upload/1", func(w http.ResponseWriter, r *http.Request) {
		f.uploads.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/rest/posts", func(w http.ResponseWriter, r *http.Request) {
		f.posts.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastPost = body
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		if !f.omitPostID.Load() {
			w.Header().Set(linkedin.PostIDHeader, "urn:li:share:456")
		}
		w.WriteHeader(http.StatusCreated)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// last returns the most recent post body and its Authorization header.
func (f *fakeAPI) last() (map[string]any, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPost, f.lastAuth
}

func (f *fakeAPI) total() int32 {
	return f.userinfo.Load() + f.inits.Load() + f.uploads.Load() + f.posts.Load()
}

type fakeMinter struct {
	token string
	err   error

	calls        atomic.Int32
	clientID     string
	clientSecret string
}

func (m *fakeMinter) Authenticate(_ context.Context, clientID, clientSecret string) (string, error) {
	m.calls.Add(1)
	m.clientID, m.clientSecret = clientID, clientSecret
	return m.token, m.err
}

type testEnv struct {
	app    *app
	store  *credentials.FileStore
	api    *fakeAPI
	minter *fakeMinter
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, stdin string, validTokens ...string) *testEnv {
	t.Helper()

	api := newFakeAPI(t, validTokens...)
	httpClient, err := linkedin.NewHTTPClient()
	require.NoError(t, err)

	store := credentials.NewFileStore(filepath.Join(t.TempDir(), "credentials.env"))
	in := bufio.NewReader(strings.NewReader(stdin))
	env := &testEnv{
		store:  store,
		api:    api,
		minter: &fakeMinter{token: "fresh-token"},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	env.app = &app{
		store:     store,
		storePath: store.Path(),
		prompter:  credentials.NewPrompter(in, env.stderr),
		stdin:     in,
		stdout:    env.stdout,
		stderr:    env.stderr,
		newAuthenticator: func(auth.Reporter) tokenMinter {
			return env.minter
		},
		validator: linkedin.NewTokenValidator(httpClient, api.server.URL),
		newClient: func(token string) (poster, error) {
			return linkedin.NewClient(token,
				linkedin.WithHTTPClient(httpClient),
				linkedin.WithBaseURL(api.server.URL),
			)
		},
	}
	return env
}

func (e *testEnv) seed(t *testing.T, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, e.store.Set(k, v))
	}
}

func (e *testEnv) get(t *testing.T, key string) string {
	t.Helper()
	v, err := e.store.Get(key)
	require.NoError(t, err)
	return v
}

func fullCredentials(token string) map[string]string {
	return map[string]string{
		credentials.KeyClientID:     "client-id",
		credentials.KeyClientSecret: "client-secret",
		credentials.KeyAccessToken:  token,
	}
}

func TestRun_PostTooLongMakesNoNetworkCalls(t *testing.T) {
	env := newTestEnv(t, "", "good-token")
	env.seed(t, fullCredentials("good-token"))

	err := env.app.run(context.Background(), options{text: strings.Repeat("a", 3001)}, tui.NoopDisplayer{})

	var tooLong linkedin.PostTooLongError
	require.ErrorAs(t, err, &tooLong)
	assert.Equal(t, 3001, tooLong.Length)
	assert.Equal(t, 3000, tooLong.Limit)
	assert.Zero(t, env.api.total())
	assert.Zero(t, env.minter.calls.Load())
	assert.Empty(t, env.stdout.String())
}

func TestRun_EmptyTextFails(t *testing.T) {
	env := newTestEnv(t, "   \n", "good-token")
	env.seed(t, fullCredentials("good-token"))

	err := env.app.run(context.Background(), options{}, tui.NoopDisplayer{})
	assert.ErrorIs(t, err, linkedin.ErrEmptyPost)
	assert.Zero(t, env.api.total())
}

func TestRun_InvalidImageMakesNoNetworkCalls(t *testing.T) {
	dir := t.TempDir()
	bmp := filepath.Join(dir, "diagram.bmp")
	require.NoError(t, os.WriteFile(bmp, []byte("BM"), 0o600))

	tests := []struct {
		name  string
		image string
		check func(t *testing.T, err error)
	}{
		{
			name:  "unsupported format",
			image: bmp,
			check: func(t *testing.T, err error) {
				var unsupported linkedin.UnsupportedFormatError
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t, ".bmp", unsupported.Extension)
			},
		},
		{
			name:  "missing file",
			image: filepath.Join(dir, "missing.png"),
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "image not found")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "", "good-token")
			env.seed(t, fullCredentials("good-token"))

			err := env.app.run(context.Background(), options{text: "hello", image: tt.image}, tui.NoopDisplayer{})
			tt.check(t, err)
			assert.Zero(t, env.api.total())
			assert.Zero(t, env.minter.calls.Load())
		})
	}
}

func TestRun_MissingClientIDFailsBeforeNetwork(t *testing.T) {
	env := newTestEnv(t, "")
	var out bytes.Buffer

	err := env.app.run(context.Background(), options{text: "hello"}, tui.NewPlainDisplayer(&out))

	var missing credentials.MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, credentials.KeyClientID, missing.Key)
	assert.Contains(t, out.String(), "First-time setup")
	assert.Contains(t, out.String(), linkedin.RedirectURI)
	assert.Contains(t, env.stderr.String(), "Client ID: ")
	assert.Zero(t, env.api.total())
	assert.Zero(t, env.minter.calls.Load())
}

func TestRun_PromptsForCredentialsThenReadsStdin(t *testing.T) {
	env := newTestEnv(t, "my-id\nmy-secret\n  Post body from stdin\n", "fresh-token")

	err := env.app.run(context.Background(), options{}, tui.NoopDisplayer{})
	require.NoError(t, err)

	assert.Equal(t, "my-id", env.get(t, credentials.KeyClientID))
	assert.Equal(t, "my-secret", env.get(t, credentials.KeyClientSecret))
	assert.Equal(t, "fresh-token", env.get(t, credentials.KeyAccessToken))
	assert.Equal(t, "my-id", env.minter.clientID)
	assert.Equal(t, "my-secret", env.minter.clientSecret)

	body, _ := env.api.last()
	assert.Equal(t, "Post body from stdin", body["commentary"])
}

func TestRun_ResetKeysClearsAllCredentials(t *testing.T) {
	env := newTestEnv(t, "", "good-token")
	env.seed(t, fullCredentials("good-token"))

	err := env.app.run(context.Background(), options{text: "hello", resetKeys: true}, tui.NoopDisplayer{})

	var missing credentials.MissingError
	require.ErrorAs(t, err, &missing)
	for _, key := range credentials.AllKeys {
		assert.Empty(t, env.get(t, key), key)
	}
	assert.Zero(t, env.api.total())
}

func TestRun_ResetAuthKeepsClientCredentials(t *testing.T) {
	env := newTestEnv(t, "", "good-token", "fresh-token")
	env.seed(t, fullCredentials("good-token"))

	err := env.app.run(context.Background(), options{text: "hello", resetAuth: true}, tui.NoopDisplayer{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), env.minter.calls.Load(), "reset-auth must force authorization")
	assert.Equal(t, "client-id", env.get(t, credentials.KeyClientID))
	assert.Equal(t, "client-secret", env.get(t, credentials.KeyClientSecret))
	assert.Equal(t, "fresh-token", env.get(t, credentials.KeyAccessToken))
	// Only the client's identity lookup; the stored token is never probed.
	assert.Equal(t, int32(1), env.api.userinfo.Load())
}

func TestRun_ReusesValidToken(t *testing.T) {
	env := newTestEnv(t, "", "good-token")
	env.seed(t, fullCredentials("good-token"))

	err := env.app.run(context.Background(), options{text: "hello world"}, tui.NoopDisplayer{})
	require.NoError(t, err)

	assert.Zero(t, env.minter.calls.Load())
	assert.Equal(t, int32(1), env.api.posts.Load())
	_, authz := env.api.last()
	assert.Equal(t, "Bearer good-token", authz)
	assert.Equal(t,
		"Post published (public)!\nhttps://www.linkedin.com/feed/update/urn:li:share:456/\n",
		env.stdout.String(),
	)
}

func TestRun_InvalidTokenTriggersReauthorization(t *testing.T) {
	env := newTestEnv(t, "", "fresh-token")
	env.seed(t, fullCredentials("stale-token"))

	err := env.app.run(context.Background(), options{text: "hello"}, tui.NoopDisplayer{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), env.minter.calls.Load())
	assert.Equal(t, "client-id", env.minter.clientID)
	assert.Equal(t, "client-secret", env.minter.clientSecret)
	assert.Equal(t, "fresh-token", env.get(t, credentials.KeyAccessToken))
	_, authz := env.api.last()
	assert.Equal(t, "Bearer fresh-token", authz)
}

func TestRun_AuthenticationFailureIsFatal(t *testing.T) {
	env := newTestEnv(t, "")
	env.seed(t, fullCredentials(""))
	env.minter.err = &auth.AuthenticationError{Reason: "user_cancelled_login"}
	env.minter.token = ""

	err := env.app.run(context.Background(), options{text: "hello"}, tui.NoopDisplayer{})

	var authErr *auth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, env.get(t, credentials.KeyAccessToken))
	assert.Zero(t, env.api.posts.Load())
	assert.Empty(t, env.stdout.String())
}

func TestRun_ImagePostConnectionsOnly(t *testing.T) {
	env := newTestEnv(t, "", "good-token")
	env.seed(t, fullCredentials("good-token"))
	img := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(img, []byte("png-bytes"), 0o600))

	err := env.app.run(
		context.Background(),
		options{text: "with picture", image: img, connectionsOnly: true},
		tui.NoopDisplayer{},
	)
	require.NoError(t, err)

	assert.Equal(t, int32(1), env.api.inits.Load())
	assert.Equal(t, int32(1), env.api.uploads.Load())
	assert.Equal(t, int32(1), env.api.posts.Load())

	body, _ := env.api.last()
	assert.Equal(t, "CONNECTIONS", body["visibility"])
	assert.Equal(t, "urn:li:person:abc123", body["author"])
	content, ok := body["content"].(map[string]any)
	require.True(t, ok, "content must be present for an image post")
	assert.Equal(t, map[string]any{"id": "urn:li:image:C4E"}, content["media"])
	assert.Contains(t, env.stdout.String(), "Post published (connections only)!")
}

func TestRun_TextPostHasNoContent(t *testing.T) {
	env := newTestEnv(t, "", "good-token")
	env.seed(t, fullCredentials("good-token"))

	require.NoError(t, env.app.run(context.Background(), options{text: "plain"}, tui.NoopDisplayer{}))

	body, _ := env.api.last()
	_, present := body["content"]
	assert.False(t, present)
	assert.Equal(t, "PUBLIC", body["visibility"])
	assert.Zero(t, env.api.inits.Load())
}

type saveFailingStore struct {
	credentials.Store
}

func (s saveFailingStore) Set(key, value string) error {
	if key == credentials.KeyAccessToken {
		return errors.New("disk full")
	}
	return s.Store.Set(key, value)
}

func TestRun_TokenSaveFailureIsOnlyAWarning(t *testing.T) {
	env := newTestEnv(t, "", "fresh-token")
	env.seed(t, fullCredentials(""))
	env.app.store = saveFailingStore{Store: env.store}
	var out bytes.Buffer

	err := env.app.run(context.Background(), options{text: "hello"}, tui.NewPlainDisplayer(&out))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Warning: Failed to save token: disk full")
	assert.Equal(t, int32(1), env.api.posts.Load())
}

func TestResolveText(t *testing.T) {
	file := filepath.Join(t.TempDir(), "post.txt")
	require.NoError(t, os.WriteFile(file, []byte("\n  from file  \n"), 0o600))

	tests := []struct {
		name     string
		opts     options
		stdin    string
		terminal bool
		want     string
		wantHint bool
		wantErr  bool
	}{
		{name: "argument wins", opts: options{text: "from arg", fromFile: file}, stdin: "from stdin", want: "from arg"},
		{name: "file is trimmed", opts: options{fromFile: file}, stdin: "from stdin", want: "from file"},
		{name: "stdin is trimmed", stdin: "\tfrom stdin\n\n", want: "from stdin"},
		{name: "terminal stdin prints a hint", stdin: "typed", terminal: true, want: "typed", wantHint: true},
		{name: "missing file", opts: options{fromFile: filepath.Join(t.TempDir(), "nope.txt")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			a := &app{
				stdin:           bufio.NewReader(strings.NewReader(tt.stdin)),
				stdinIsTerminal: tt.terminal,
				stderr:          &stderr,
			}

			got, err := a.resolveText(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantHint, strings.Contains(stderr.String(), "Ctrl+D"))
		})
	}
}

func TestGetConfig(t *testing.T) {
	t.Setenv("LINKEDIN_POST_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfig("from-flag", "LINKEDIN_POST_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfig("", "LINKEDIN_POST_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfig("", "LINKEDIN_POST_TEST_UNSET", "default"))
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(envConfigPath, "")
	assert.Equal(t, "/tmp/explicit.env", resolveConfigPath("/tmp/explicit.env"))
	assert.True(t, strings.HasSuffix(resolveConfigPath(""), filepath.Join("linkedin-post", "credentials.env")))

	t.Setenv(envConfigPath, "/tmp/from-env.env")
	assert.Equal(t, "/tmp/from-env.env", resolveConfigPath(""))
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"from-file", "connections-only", "image", "reset-auth", "reset-keys", "config", "verbose"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Error(t, cmd.Args(cmd, []string{"one", "two"}))
}

func TestRootCommand_PostTooLongFailsBeforeNetwork(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "credentials.env")
	store := credentials.NewFileStore(cfg)
	for k, v := range fullCredentials("stored-token") {
		require.NoError(t, store.Set(k, v))
	}
	before, err := os.ReadFile(cfg)
	require.NoError(t, err)

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", cfg, strings.Repeat("a", 3001)})
	err = cmd.Execute()

	var tooLong linkedin.PostTooLongError
	require.ErrorAs(t, err, &tooLong)
	assert.Equal(t, 3001, tooLong.Length)

	after, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "credential file must be untouched")
}

func TestRun_MissingPostIDIsReported(t *testing.T) {
	env := newTestEnv(t, "", "good-token")
	env.api.omitPostID.Store(true)
	env.seed(t, fullCredentials("good-token"))
	var out bytes.Buffer

	err := env.app.run(context.Background(), options{text: "hello"}, tui.NewPlainDisplayer(&out))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no post id")
	assert.Contains(t, out.String(), "Post published (public)!")
	assert.Equal(t,
		"Post published (public)!\nhttps://www.linkedin.com/feed/update//\n",
		env.stdout.String(),
	)
}
