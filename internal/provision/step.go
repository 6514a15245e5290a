// Package provision implements the idempotent setup procedure that takes a
// fresh (or partially set up) host from a cloned repo to a migrated Django
// project. The same plan drives local shells, SSH sessions, and platform
// consoles through the Runner interface, and renders to a standalone bash
// script.
package provision

// Runner executes a shell command somewhere and reports real exit codes.
// Implementations: local shell, SSH session, platform console.
type Runner interface {
	Run(cmd string) (stdout, stderr []byte, exitCode int, err error)
	Describe() string
}

// Outcome is the result of executing one step of the plan.
type Outcome int

const (
	// Created means the step's guard found nothing and the artifact was made.
	Created Outcome = iota
	// Skipped means the step's guard found the artifact already in place.
	Skipped
	// Ran means an unguarded step executed (it runs every time).
	Ran
	// Failed means a command exited non-zero or couldn't execute.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Skipped:
		return "skipped"
	case Ran:
		return "ran"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step is one unit of the provisioning plan.
//
// A step with a Guard is idempotent: the guard command is run first, and
// exit 0 means the artifact already exists, so the step is skipped. Steps
// without a guard run every time (pip install, migrations).
type Step struct {
	Name string

	// Guard is a remote existence check (`test -d ...`). Exit 0 skips the
	// step. Empty means the step always runs.
	Guard string

	// SkipMessage is shown when the guard finds the artifact in place.
	SkipMessage string

	// PreMessage is shown just before the step's commands run.
	PreMessage string

	// DoneMessage is shown after the step's commands succeed.
	DoneMessage string

	// Commands run in order; the first non-zero exit fails the step.
	Commands []string

	// Action replaces Commands for steps that need to capture intermediate
	// output (the env file step reads a generated secret key back).
	Action func(e *Engine) error

	// Script holds the bash rendering for Action-based steps. Steps using
	// Commands render those directly.
	Script []string
}

// scriptLines returns the bash body for this step.
func (s Step) scriptLines() []string {
	if len(s.Script) > 0 {
		return s.Script
	}
	return s.Commands
}

// StepResult records what happened to one step during a run.
type StepResult struct {
	Name    string
	Outcome Outcome
	Err     error
}
