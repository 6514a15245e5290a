package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/caktus/paw/internal/logger"
	"github.com/caktus/paw/internal/provision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConsole simulates the consoles API: list/create consoles, accept
// input, and synthesize terminal output for commands it has a script for.
type fakeConsole struct {
	mu        sync.Mutex
	consoles  []Console
	outputs   map[string]string // command -> output it produces
	history   []string          // commands received via send_input
	notReady  int               // number of 412 responses before accepting input
	created   int               // consoles created via POST
	srv       *httptest.Server
	sendCount int
}

func newFakeConsole(existing []Console) *fakeConsole {
	f := &fakeConsole{
		consoles: existing,
		outputs:  map[string]string{readyProbeCommand: readyProbeOutput},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeConsole) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/api/v0/user/alice/consoles/" && r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(f.consoles)

	case r.URL.Path == "/api/v0/user/alice/consoles/" && r.Method == http.MethodPost:
		f.created++
		console := Console{ID: 99, Executable: "bash", ConsoleURL: "/user/alice/consoles/99/"}
		f.consoles = append(f.consoles, console)
		json.NewEncoder(w).Encode(console)

	case strings.HasSuffix(r.URL.Path, "/send_input/"):
		f.sendCount++
		if f.notReady > 0 {
			f.notReady--
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		var body struct {
			Input string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		cmd := strings.TrimSpace(body.Input)
		if cmd != "" {
			f.history = append(f.history, cmd)
		}
		w.Write([]byte(`{}`))

	case strings.HasSuffix(r.URL.Path, "/get_latest_output/"):
		json.NewEncoder(w).Encode(map[string]string{"output": f.renderOutput()})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// renderOutput builds a terminal buffer from the command history, the way
// the real console accumulates it.
func (f *fakeConsole) renderOutput() string {
	var b strings.Builder
	for _, cmd := range f.history {
		b.WriteString(prompt(cmd))
		if out, ok := f.outputs[cmd]; ok {
			b.WriteString(out + "\r\n")
		} else if strings.HasSuffix(cmd, `; echo "paw-exit:$?"`) {
			// Unscripted commands succeed, like a shell running a no-op.
			b.WriteString("paw-exit:0\r\n")
		}
	}
	b.WriteString(idlePrompt)
	return b.String()
}

func shortenPolls(t *testing.T) {
	t.Helper()
	origConsole, origCommand := consolePollInterval, commandPollInterval
	consolePollInterval = 5 * time.Millisecond
	commandPollInterval = 5 * time.Millisecond
	t.Cleanup(func() {
		consolePollInterval = origConsole
		commandPollInterval = origCommand
	})
}

func TestActiveConsole_ReusesExistingBash(t *testing.T) {
	shortenPolls(t)
	f := newFakeConsole([]Console{
		{ID: 3, Executable: "python3.10", ConsoleURL: "/user/alice/consoles/3/"},
		{ID: 7, Executable: "bash", ConsoleURL: "/user/alice/consoles/7/"},
	})
	defer f.srv.Close()

	c := newTestClient(f.srv)
	url, err := c.ActiveConsole()

	require.NoError(t, err)
	assert.Contains(t, url, "/consoles/7")
	assert.Zero(t, f.created)
}

func TestActiveConsole_CreatesWhenNoBash(t *testing.T) {
	shortenPolls(t)
	f := newFakeConsole(nil)
	defer f.srv.Close()

	c := newTestClient(f.srv)
	url, err := c.ActiveConsole()

	require.NoError(t, err)
	assert.Contains(t, url, "/consoles/99")
	assert.Equal(t, 1, f.created)
}

func TestActiveConsole_WaitsThrough412(t *testing.T) {
	shortenPolls(t)
	f := newFakeConsole([]Console{{ID: 7, Executable: "bash", ConsoleURL: "/user/alice/consoles/7/"}})
	f.notReady = 2
	defer f.srv.Close()

	c := newTestClient(f.srv)
	_, err := c.ActiveConsole()

	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.sendCount, 3)
}

func TestRunCommand(t *testing.T) {
	shortenPolls(t)
	f := newFakeConsole([]Console{{ID: 7, Executable: "bash", ConsoleURL: "/user/alice/consoles/7/"}})
	f.outputs["git --version"] = "git version 2.43.0"
	defer f.srv.Close()

	c := newTestClient(f.srv)
	out, err := c.RunCommand("git --version")

	require.NoError(t, err)
	assert.Equal(t, "git version 2.43.0", out)
}

func TestConsoleRunner_Run(t *testing.T) {
	shortenPolls(t)
	f := newFakeConsole([]Console{{ID: 7, Executable: "bash", ConsoleURL: "/user/alice/consoles/7/"}})
	wrapped := `ls myproject; echo "paw-exit:$?"`
	f.outputs[wrapped] = "manage.py\r\nrequirements.txt\r\npaw-exit:0"
	defer f.srv.Close()

	c := newTestClient(f.srv)
	r := NewConsoleRunner(c)

	stdout, _, exitCode, err := r.Run("ls myproject")

	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, string(stdout), "manage.py")
	assert.NotContains(t, string(stdout), "paw-exit")
}

// The full provisioning plan must be executable through a console: every
// command a step issues has to round-trip through the console's prompt
// echo, including the env file write on a fresh host.
func TestConsoleRunner_ProvisionsFreshHost(t *testing.T) {
	shortenPolls(t)
	f := newFakeConsole([]Console{{ID: 7, Executable: "bash", ConsoleURL: "/user/alice/consoles/7/"}})
	defer f.srv.Close()

	wrap := func(cmd string) string { return cmd + `; echo "paw-exit:$?"` }
	f.outputs[wrap("test -d 'mysite'")] = "paw-exit:1"
	f.outputs[wrap("test -d venv")] = "paw-exit:1"
	f.outputs[wrap("test -f 'mysite/.env'")] = "paw-exit:1"
	secretCmd := `venv/bin/python -c "from django.core.management.utils import get_random_secret_key; print(get_random_secret_key())"`
	f.outputs[wrap(secretCmd)] = "k3y-from-django\r\npaw-exit:0"

	c := newTestClient(f.srv)
	results, err := provision.Provision(NewConsoleRunner(c), provision.Options{
		RepoURL: "https://github.com/alice/mysite.git",
		Dir:     "mysite",
	}, logger.Noop())

	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.NotEqual(t, provision.Failed, r.Outcome, r.Name)
	}

	var envWrite string
	for _, cmd := range f.history {
		if strings.HasPrefix(cmd, `printf '%b'`) {
			envWrite = cmd
		}
	}
	require.NotEmpty(t, envWrite, "env file write never reached the console")
	assert.NotContains(t, envWrite, "\n")
	assert.Contains(t, envWrite, `SECRET_KEY=k3y-from-django`)
	assert.Contains(t, envWrite, "> 'mysite/.env'")
}

func TestConsoleRunner_NonZeroExit(t *testing.T) {
	shortenPolls(t)
	f := newFakeConsole([]Console{{ID: 7, Executable: "bash", ConsoleURL: "/user/alice/consoles/7/"}})
	wrapped := `test -d missing; echo "paw-exit:$?"`
	f.outputs[wrapped] = "paw-exit:1"
	defer f.srv.Close()

	c := newTestClient(f.srv)
	r := NewConsoleRunner(c)

	_, _, exitCode, err := r.Run("test -d missing")

	require.NoError(t, err)
	assert.Equal(t, 1, exitCode)
}
