package provision

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/util"
)

// Options configures a provisioning run.
type Options struct {
	// RepoURL is the git URL to clone. Required.
	RepoURL string

	// Dir is the checkout directory, relative to the runner's working
	// directory (the user's home on the platform). Required.
	Dir string

	// Python selects the interpreter for the virtualenv, as "3.13" or
	// "python3.13". Empty means DefaultPython.
	Python string

	// ProjectName is the Django project name, used in the completion
	// message. Optional.
	ProjectName string

	// DatabaseURL adds a DATABASE_URL entry pointing at a sqlite database
	// inside the checkout.
	DatabaseURL bool
}

// DefaultPython matches the most recent runtime the platform offers.
const DefaultPython = "3.13"

var pythonRe = regexp.MustCompile(`^(python)?\d+\.\d+$`)

// Validate reports usage errors before any command runs.
func (o Options) Validate() error {
	if o.RepoURL == "" {
		return errors.New(errors.ErrProvision,
			"No repository URL given",
			"Usage: paw provision <repo-url> <dir>")
	}
	if o.Dir == "" {
		return errors.New(errors.ErrProvision,
			"No target directory given",
			"Usage: paw provision <repo-url> <dir>")
	}
	if strings.ContainsAny(o.Dir, " \t\n") {
		return errors.New(errors.ErrProvision,
			fmt.Sprintf("Target directory %q contains whitespace", o.Dir),
			"Pick a directory name without spaces")
	}
	if o.Python != "" && !pythonRe.MatchString(o.Python) {
		return errors.New(errors.ErrProvision,
			fmt.Sprintf("Invalid python version %q", o.Python),
			"Use a version like 3.13 or python3.13")
	}
	return nil
}

// PythonBinary returns the interpreter name, e.g. "python3.13".
func (o Options) PythonBinary() string {
	v := o.Python
	if v == "" {
		v = DefaultPython
	}
	if strings.HasPrefix(v, "python") {
		return v
	}
	return "python" + v
}

// secretKeyCommand generates a SECRET_KEY with Django's own generator, so
// the key has the framework's length and alphabet.
const secretKeyCommand = `venv/bin/python -c "from django.core.management.utils import get_random_secret_key; print(get_random_secret_key())"`

// BuildPlan produces the ordered provisioning steps for the given options.
// The caller must Validate first.
func BuildPlan(o Options) []Step {
	dir := util.ShellQuote(o.Dir)
	envPath := util.ShellQuote(o.Dir + "/.env")

	return []Step{
		{
			Name:        "clone",
			Guard:       "test -d " + dir,
			SkipMessage: o.Dir + " already exists, skipping clone.",
			Commands: []string{
				"git clone " + util.ShellQuote(o.RepoURL) + " " + dir,
			},
		},
		{
			Name:        "virtualenv",
			Guard:       "test -d venv",
			SkipMessage: "venv already exists, skipping.",
			Commands: []string{
				o.PythonBinary() + " -m venv venv",
			},
		},
		{
			Name: "dependencies",
			Commands: []string{
				"venv/bin/pip install --upgrade pip",
				"venv/bin/pip install -r " + util.ShellQuote(o.Dir+"/requirements.txt"),
			},
		},
		{
			Name:        "env file",
			Guard:       "test -f " + envPath,
			SkipMessage: o.Dir + "/.env already exists, skipping.",
			DoneMessage: ".env file created.",
			Action:      envFileAction(o),
			Script:      envFileScript(o),
		},
		{
			Name:       "migrations",
			PreMessage: "Running migrations and collectstatic...",
			// Subshell so the working directory change doesn't leak into a
			// persistent console session.
			Commands: []string{
				"(cd " + dir + " && ../venv/bin/python manage.py migrate --noinput)",
				"(cd " + dir + " && ../venv/bin/python manage.py collectstatic --noinput)",
			},
		},
	}
}

// envFileContent builds the .env body. Fixed line order keeps re-renders
// byte-identical and matches the bash script rendering exactly.
func envFileContent(secretKey, databaseURL string) string {
	lines := []string{
		"DEBUG=TRUE",
		"ON_PYTHONANYWHERE=TRUE",
		"SECRET_KEY=" + secretKey,
	}
	if databaseURL != "" {
		lines = append(lines, "DATABASE_URL="+databaseURL)
	}
	return strings.Join(lines, "\n") + "\n"
}

// envFileAction captures a generated secret key and writes the env file
// through the runner.
func envFileAction(o Options) func(e *Engine) error {
	return func(e *Engine) error {
		secret, err := e.capture(secretKeyCommand)
		if err != nil {
			return err
		}
		secret = strings.TrimSpace(secret)

		databaseURL := ""
		if o.DatabaseURL {
			home, err := e.capture("echo $HOME")
			if err != nil {
				return err
			}
			databaseURL = fmt.Sprintf("sqlite:///%s/%s/db.sqlite3", strings.TrimSpace(home), o.Dir)
		}

		content := envFileContent(secret, databaseURL)
		cmd := fmt.Sprintf("printf '%%b' %s > %s",
			util.ShellQuote(escapeNewlines(content)), util.ShellQuote(o.Dir+"/.env"))
		_, err = e.capture(cmd)
		return err
	}
}

// escapeNewlines rewrites a multi-line body as printf %b escapes. Console
// sessions echo commands a line at a time, so every command must travel as a
// single line; a literal newline would split the write mid-command.
func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

// envFileScript renders the env file step as bash, generating the secret key
// and database path on the host at run time.
func envFileScript(o Options) []string {
	lines := []string{
		`SECRET_KEY=$(` + secretKeyCommand + `)`,
		"cat > " + util.ShellQuote(o.Dir+"/.env") + " <<EOF",
		"DEBUG=TRUE",
		"ON_PYTHONANYWHERE=TRUE",
		"SECRET_KEY=$SECRET_KEY",
	}
	if o.DatabaseURL {
		lines = append(lines, fmt.Sprintf("DATABASE_URL=sqlite:///$HOME/%s/db.sqlite3", o.Dir))
	}
	lines = append(lines, "EOF")
	return lines
}
