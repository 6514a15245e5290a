package provision

import (
	"strings"
	"testing"

	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts command results: exit codes and stdout per command,
// recording everything that was run. Unknown commands succeed silently.
type fakeRunner struct {
	exits   map[string]int
	stdouts map[string]string
	stderrs map[string]string
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		exits:   map[string]int{},
		stdouts: map[string]string{},
		stderrs: map[string]string{},
	}
}

func (f *fakeRunner) Run(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	f.calls = append(f.calls, cmd)
	return []byte(f.stdouts[cmd]), []byte(f.stderrs[cmd]), f.exits[cmd], nil
}

func (f *fakeRunner) Describe() string { return "fake" }

func (f *fakeRunner) ran(substr string) bool {
	for _, c := range f.calls {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

func testOptions() Options {
	return Options{
		RepoURL: "https://github.com/alice/mysite.git",
		Dir:     "mysite",
	}
}

// freshRunner scripts a host with nothing set up yet: every guard fails and
// the secret key generator works.
func freshRunner() *fakeRunner {
	f := newFakeRunner()
	f.exits["test -d 'mysite'"] = 1
	f.exits["test -d venv"] = 1
	f.exits["test -f 'mysite/.env'"] = 1
	f.stdouts[secretKeyCommand] = "k3y-from-django\n"
	return f
}

// provisionedRunner scripts a host where a previous run completed: every
// guard passes.
func provisionedRunner() *fakeRunner {
	return newFakeRunner()
}

func outcomes(results []StepResult) []Outcome {
	var out []Outcome
	for _, r := range results {
		out = append(out, r.Outcome)
	}
	return out
}

func TestProvision_FreshHost(t *testing.T) {
	f := freshRunner()

	results, err := Provision(f, testOptions(), logger.Noop())

	require.NoError(t, err)
	assert.Equal(t, []Outcome{Created, Created, Ran, Created, Ran}, outcomes(results))

	assert.True(t, f.ran("git clone 'https://github.com/alice/mysite.git' 'mysite'"))
	assert.True(t, f.ran("python3.13 -m venv venv"))
	assert.True(t, f.ran("venv/bin/pip install --upgrade pip"))
	assert.True(t, f.ran("venv/bin/pip install -r 'mysite/requirements.txt'"))
	assert.True(t, f.ran("manage.py migrate --noinput"))
	assert.True(t, f.ran("manage.py collectstatic --noinput"))

	// The env file write carries the generated key.
	assert.True(t, f.ran("SECRET_KEY=k3y-from-django"))
}

func TestProvision_SecondRunSkipsGuardedSteps(t *testing.T) {
	f := provisionedRunner()
	log := logger.NewBufferLogger()

	results, err := Provision(f, testOptions(), log)

	require.NoError(t, err)
	assert.Equal(t, []Outcome{Skipped, Skipped, Ran, Skipped, Ran}, outcomes(results))

	// Guarded artifacts are left alone.
	assert.False(t, f.ran("git clone"))
	assert.False(t, f.ran("-m venv"))
	assert.False(t, f.ran("SECRET_KEY="))

	// Always-run steps still happen.
	assert.True(t, f.ran("pip install"))
	assert.True(t, f.ran("manage.py migrate"))

	assert.True(t, log.Contains("already exists, skipping"))
	assert.True(t, log.Contains("Running migrations and collectstatic..."))
}

func TestProvision_FailFast(t *testing.T) {
	f := freshRunner()
	f.exits["venv/bin/pip install -r 'mysite/requirements.txt'"] = 2
	f.stderrs["venv/bin/pip install -r 'mysite/requirements.txt'"] = "No matching distribution found for nosuchpkg"

	results, err := Provision(f, testOptions(), logger.Noop())

	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
	assert.True(t, errors.IsCode(err, errors.ErrProvision))
	assert.Contains(t, err.Error(), "No matching distribution found")

	// Run stopped at the failing step: env file and migrations never ran.
	assert.Equal(t, []Outcome{Created, Created, Failed}, outcomes(results))
	assert.False(t, f.ran("test -f 'mysite/.env'"))
	assert.False(t, f.ran("manage.py migrate"))
}

func TestProvision_UsageErrorRunsNothing(t *testing.T) {
	f := newFakeRunner()

	_, err := Provision(f, Options{RepoURL: "", Dir: "mysite"}, logger.Noop())

	require.Error(t, err)
	assert.Empty(t, f.calls)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name: "valid",
			opts: Options{RepoURL: "https://github.com/a/b.git", Dir: "b"},
		},
		{
			name:    "missing repo url",
			opts:    Options{Dir: "b"},
			wantErr: "repository URL",
		},
		{
			name:    "missing dir",
			opts:    Options{RepoURL: "https://github.com/a/b.git"},
			wantErr: "target directory",
		},
		{
			name:    "whitespace in dir",
			opts:    Options{RepoURL: "https://github.com/a/b.git", Dir: "my site"},
			wantErr: "whitespace",
		},
		{
			name:    "bad python version",
			opts:    Options{RepoURL: "https://github.com/a/b.git", Dir: "b", Python: "latest"},
			wantErr: "python version",
		},
		{
			name: "python with prefix ok",
			opts: Options{RepoURL: "https://github.com/a/b.git", Dir: "b", Python: "python3.11"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestOptions_PythonBinary(t *testing.T) {
	tests := []struct {
		python string
		want   string
	}{
		{"", "python3.13"},
		{"3.11", "python3.11"},
		{"python3.10", "python3.10"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Options{Python: tt.python}.PythonBinary())
	}
}

func TestEnvFileContent(t *testing.T) {
	got := envFileContent("abc123", "")
	assert.Equal(t, "DEBUG=TRUE\nON_PYTHONANYWHERE=TRUE\nSECRET_KEY=abc123\n", got)

	got = envFileContent("abc123", "sqlite:////home/alice/mysite/db.sqlite3")
	assert.True(t, strings.HasSuffix(got, "DATABASE_URL=sqlite:////home/alice/mysite/db.sqlite3\n"))
}

func TestProvision_DatabaseURLEntry(t *testing.T) {
	f := freshRunner()
	f.stdouts["echo $HOME"] = "/home/alice\n"

	opts := testOptions()
	opts.DatabaseURL = true

	_, err := Provision(f, opts, logger.Noop())

	require.NoError(t, err)
	assert.True(t, f.ran("DATABASE_URL=sqlite:////home/alice/mysite/db.sqlite3"))
}

func TestProvision_CommandsStayOnOneLine(t *testing.T) {
	f := freshRunner()
	f.stdouts["echo $HOME"] = "/home/alice\n"

	opts := testOptions()
	opts.DatabaseURL = true

	_, err := Provision(f, opts, logger.Noop())

	require.NoError(t, err)
	// Console sessions echo each command on a single prompt line, so a
	// command with an embedded newline can never be matched back out of the
	// console buffer. The env file body travels as printf escapes instead.
	for _, call := range f.calls {
		assert.NotContains(t, call, "\n", "command split across lines: %q", call)
	}
	assert.True(t, f.ran(`printf '%b' 'DEBUG=TRUE\nON_PYTHONANYWHERE=TRUE\nSECRET_KEY=k3y-from-django\n`))
}

func TestEscapeNewlines(t *testing.T) {
	assert.Equal(t, `a\nb\n`, escapeNewlines("a\nb\n"))
	assert.Equal(t, `back\\slash\n`, escapeNewlines("back\\slash\n"))
}

func TestProvision_EnvFileMessages(t *testing.T) {
	f := freshRunner()
	log := logger.NewBufferLogger()

	_, err := Provision(f, testOptions(), log)

	require.NoError(t, err)
	assert.True(t, log.Contains(".env file created."))
	assert.True(t, log.Contains("All done!"))
}

func TestEngine_OnStepCallback(t *testing.T) {
	f := freshRunner()
	e := NewEngine(f, logger.Noop())

	var seen []string
	e.OnStep = func(r StepResult) {
		seen = append(seen, r.Name+":"+r.Outcome.String())
	}

	_, err := e.Execute(BuildPlan(testOptions()))

	require.NoError(t, err)
	assert.Equal(t, []string{
		"clone:created",
		"virtualenv:created",
		"dependencies:ran",
		"env file:created",
		"migrations:ran",
	}, seen)
}
