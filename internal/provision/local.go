package provision

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/caktus/paw/internal/errors"
)

// LocalRunner executes commands through the local shell. Used for
// provisioning onto the machine paw runs on, and by `paw provision` without
// --ssh or --console.
type LocalRunner struct {
	// Dir is the working directory for every command. Empty means the
	// current directory.
	Dir string
}

// Run executes a command with the user's shell so pipes and redirects work.
func (r *LocalRunner) Run(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	command := exec.Command(shell, "-c", cmd)
	if r.Dir != "" {
		command.Dir = r.Dir
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	command.Stdout = &stdoutBuf
	command.Stderr = &stderrBuf

	runErr := command.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitErr.ExitCode(), nil
		}
		return nil, nil, -1, errors.WrapWithCode(runErr, errors.ErrProvision,
			"Couldn't run the command locally",
			"Make sure the command exists and is executable.")
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), 0, nil
}

// Describe identifies the runner in progress output.
func (r *LocalRunner) Describe() string {
	return "local"
}
