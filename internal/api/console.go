package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/caktus/paw/internal/errors"
	"github.com/cenkalti/backoff/v4"
)

// Console is a single console process on the platform.
type Console struct {
	ID         int    `json:"id"`
	Executable string `json:"executable"`
	ConsoleURL string `json:"console_url"`
}

// readyProbeCommand is sent to verify the console is accepting input.
const readyProbeCommand = "echo hello"

// readyProbeOutput is the expected output of the probe command.
const readyProbeOutput = "hello"

// pollAttempts bounds the readiness and command-completion polling loops.
const pollAttempts = 30

// Poll intervals are variables so tests can shorten them.
var (
	consolePollInterval = 2 * time.Second
	commandPollInterval = time.Second
)

// ActiveConsole returns the API URL of a live bash console, reusing an
// existing one or starting a new one, and waits until it accepts input.
func (c *Client) ActiveConsole() (string, error) {
	base := c.BaseURL("consoles")

	var consoles []Console
	if err := c.GetJSON(base, &consoles); err != nil {
		return "", err
	}

	var bash *Console
	for i := range consoles {
		if consoles[i].Executable == "bash" {
			bash = &consoles[i]
			break
		}
	}

	if bash == nil {
		c.log.Debug("no active bash console found, starting a new one")
		bash = &Console{}
		if err := c.PostJSON(base, map[string]string{"executable": "bash"}, bash); err != nil {
			return "", err
		}
	}

	consoleURL := fmt.Sprintf("%s/%d", base, bash.ID)
	if err := c.waitForConsoleReady(consoleURL, bash.ConsoleURL); err != nil {
		return "", err
	}
	return consoleURL, nil
}

// waitForConsoleReady polls the console with a probe command until it
// responds. A fresh console returns 412 until a terminal attaches to it; the
// original client opened a browser tab for that, we log the URL instead and
// keep polling so headless runs can have an operator attach.
func (c *Client) waitForConsoleReady(consoleURL, browserPath string) error {
	notStartedLogged := false

	probe := func() error {
		resp, err := c.Request(http.MethodPost, consoleURL+"/send_input/",
			map[string]string{"input": "\n" + readyProbeCommand + "\n"}, false)
		if err != nil {
			return err
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusPreconditionFailed {
			if !notStartedLogged {
				c.log.Info("console not started; open %s in a browser to start it", c.ConsolePageURL(browserPath))
				notStartedLogged = true
			}
			return fmt.Errorf("console not started")
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("console returned %d", resp.StatusCode)
		}

		output, err := c.latestOutput(consoleURL)
		if err != nil {
			return err
		}

		cmd, cmdOutput := ParseLastCommand(output)
		if cmd == readyProbeCommand && cmdOutput == readyProbeOutput {
			c.log.Debug("console is ready")
			return nil
		}
		return fmt.Errorf("console not ready yet")
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(consolePollInterval), pollAttempts-1)
	if err := backoff.Retry(probe, policy); err != nil {
		return errors.WrapWithCode(err, errors.ErrConsole,
			"Console did not become ready after waiting",
			"Open the console in a browser to start it, then re-run")
	}
	return nil
}

// latestOutput fetches the console's current output buffer.
func (c *Client) latestOutput(consoleURL string) (string, error) {
	var payload struct {
		Output string `json:"output"`
	}
	if err := c.GetJSON(consoleURL+"/get_latest_output/", &payload); err != nil {
		return "", err
	}
	return payload.Output, nil
}

// RunCommand runs a command in an active bash console and returns its output.
// It blocks until the console shows a fresh prompt after the command.
func (c *Client) RunCommand(command string) (string, error) {
	consoleURL, err := c.ActiveConsole()
	if err != nil {
		return "", err
	}
	return c.runInConsole(consoleURL, command)
}

// runInConsole sends a command to an already-ready console and waits for it
// to complete.
func (c *Client) runInConsole(consoleURL, command string) (string, error) {
	if err := c.PostJSON(consoleURL+"/send_input/", map[string]string{"input": command + "\n"}, nil); err != nil {
		return "", err
	}
	return c.waitForCommand(consoleURL, command)
}

// waitForCommand polls console output until the given command has completed:
// the buffer ends in an idle prompt and contains the command's output.
func (c *Client) waitForCommand(consoleURL, command string) (string, error) {
	var result string

	poll := func() error {
		output, err := c.latestOutput(consoleURL)
		if err != nil {
			c.log.Debug("error polling console output: %v", err)
			return err
		}

		if !PromptReady(output) {
			return fmt.Errorf("command still running")
		}

		cmdOutput, found := ParseCommandOutput(output, command)
		if !found {
			return fmt.Errorf("command not visible in console output yet")
		}

		result = cmdOutput
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(commandPollInterval), pollAttempts-1)
	if err := backoff.Retry(poll, policy); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConsole,
			fmt.Sprintf("Command didn't complete after %d polls: %s", pollAttempts, command),
			"Long-running commands may need the console checked in a browser")
	}
	return result, nil
}
