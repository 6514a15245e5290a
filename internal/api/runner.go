package api

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/caktus/paw/internal/errors"
)

// The console API returns terminal text, never exit statuses. Each command
// gets a sentinel appended so the status can be read back out of the output.
const exitSentinel = "paw-exit"

var exitSentinelRe = regexp.MustCompile(`(?m)^` + exitSentinel + `:(\d+)\s*$`)

// ConsoleRunner executes commands through a platform console, satisfying the
// provisioning Runner interface. The console is acquired lazily on first use
// and reused for the rest of the run.
type ConsoleRunner struct {
	client     *Client
	consoleURL string
}

// NewConsoleRunner creates a runner backed by the given API client.
func NewConsoleRunner(client *Client) *ConsoleRunner {
	return &ConsoleRunner{client: client}
}

// Run executes a command in the remote console and returns its output and
// exit code. Stdout and stderr are interleaved, as on any terminal; the
// combined text is returned as stdout.
func (r *ConsoleRunner) Run(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	if r.consoleURL == "" {
		url, err := r.client.ActiveConsole()
		if err != nil {
			return nil, nil, -1, err
		}
		r.consoleURL = url
	}

	wrapped := cmd + `; echo "` + exitSentinel + `:$?"`
	output, err := r.client.runInConsole(r.consoleURL, wrapped)
	if err != nil {
		return nil, nil, -1, err
	}

	cleaned, code, found := extractExitCode(output)
	if !found {
		return []byte(cleaned), nil, -1, errors.New(errors.ErrConsole,
			"Couldn't read the command's exit status from console output",
			"Re-run with PAW_DEBUG=1 to see the raw console output")
	}

	return []byte(cleaned), nil, code, nil
}

// Describe identifies the runner in progress output.
func (r *ConsoleRunner) Describe() string {
	return "console:" + r.client.Username
}

// extractExitCode finds the sentinel line in output, returning the output
// with the sentinel removed, the exit code, and whether it was found.
func extractExitCode(output string) (cleaned string, code int, found bool) {
	matches := exitSentinelRe.FindAllStringSubmatchIndex(output, -1)
	if len(matches) == 0 {
		return output, 0, false
	}

	// Last occurrence wins; the command may echo the sentinel string itself.
	m := matches[len(matches)-1]
	code, err := strconv.Atoi(output[m[2]:m[3]])
	if err != nil {
		return output, 0, false
	}

	cleaned = strings.Trim(output[:m[0]]+output[m[1]:], "\r\n")
	return cleaned, code, true
}
