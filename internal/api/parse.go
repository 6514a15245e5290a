package api

import (
	"regexp"
	"strings"
)

// The console's get_latest_output endpoint returns raw terminal bytes. The
// shell prompt renders as a green "$ " with the typed command after it:
//
//	\x1b[1;32m$ \x1b[0;0m<command>\r\n<output...>
//
// Commands and their output are recovered by splitting on that pattern.
var promptRe = regexp.MustCompile(`\x1b\[1;32m\$ \x1b\[0;0m([^\r\n]*)`)

// terminal-mode toggles (bracketed paste) that show up inside output
var modeSeqRe = regexp.MustCompile(`\x1b\[\?2004[lh]\r?`)

// the trailing idle prompt after a command's output: "\x1b[0;0m12:34 ~ ..."
var trailingPromptRe = regexp.MustCompile(`\x1b\[0;0m\d{2}:\d{2} ~[^\n]*$`)

// promptAtEndRe matches an idle prompt at the end of the buffer, meaning the
// console finished the last command and is ready for input.
var promptAtEndRe = regexp.MustCompile(`\d{2}:\d{2} ~[^$]*\$ [^$]*$`)

// CommandOutput pairs a command found in console output with its cleaned output.
type CommandOutput struct {
	Command string
	Output  string
}

// splitConsoleOutput extracts every (command, output) pair from a console
// output buffer, in order of appearance.
func splitConsoleOutput(output string) []CommandOutput {
	matches := promptRe.FindAllStringSubmatchIndex(output, -1)
	if len(matches) == 0 {
		return nil
	}

	pairs := make([]CommandOutput, 0, len(matches))
	for i, m := range matches {
		command := output[m[2]:m[3]]

		// Output runs from the end of this prompt line to the start of
		// the next prompt (or the end of the buffer).
		start := m[1]
		end := len(output)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		pairs = append(pairs, CommandOutput{
			Command: strings.TrimSpace(command),
			Output:  cleanOutput(output[start:end]),
		})
	}
	return pairs
}

// cleanOutput strips terminal control sequences and the trailing idle prompt
// from a raw output segment.
func cleanOutput(raw string) string {
	clean := modeSeqRe.ReplaceAllString(raw, "")
	clean = trailingPromptRe.ReplaceAllString(clean, "")
	return strings.Trim(clean, "\r\n")
}

// ParseLastCommand extracts the last command run and its output from a block
// of console output. Returns empty strings when no command is found.
func ParseLastCommand(output string) (command, commandOutput string) {
	pairs := splitConsoleOutput(output)
	for i := len(pairs) - 1; i >= 0; i-- {
		if pairs[i].Command != "" {
			return pairs[i].Command, pairs[i].Output
		}
	}
	return "", ""
}

// ParseCommandOutput extracts the output of the MOST RECENT execution of a
// specific command from console output. The console buffer accumulates
// history, so earlier runs of the same command must be ignored.
// Returns found=false when the command does not appear.
func ParseCommandOutput(output, targetCommand string) (commandOutput string, found bool) {
	target := strings.TrimSpace(targetCommand)
	for _, pair := range splitConsoleOutput(output) {
		if pair.Command == target {
			commandOutput = pair.Output
			found = true
		}
	}
	return commandOutput, found
}

// PromptReady reports whether the buffer ends with an idle prompt, meaning
// the console is not mid-command.
func PromptReady(output string) bool {
	return promptAtEndRe.MatchString(output)
}
