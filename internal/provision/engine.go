package provision

import (
	"fmt"
	"strings"

	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/logger"
)

// Engine executes a provisioning plan against a Runner, sequentially and
// fail-fast: the first failed step aborts the run, leaving earlier artifacts
// in place.
type Engine struct {
	runner Runner
	log    logger.Logger

	// OnStep, when set, is called after each step resolves. The CLI uses it
	// to drive spinner/phase output.
	OnStep func(StepResult)
}

// NewEngine creates an engine that runs steps through the given runner.
func NewEngine(runner Runner, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewEnvLogger("[provision]")
	}
	return &Engine{runner: runner, log: log}
}

// Execute runs the plan. It returns the per-step results up to and including
// the first failure, and the failure itself (nil when every step resolved).
func (e *Engine) Execute(plan []Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(plan))

	for _, step := range plan {
		result := e.executeStep(step)
		results = append(results, result)
		if e.OnStep != nil {
			e.OnStep(result)
		}
		if result.Outcome == Failed {
			return results, result.Err
		}
	}

	return results, nil
}

func (e *Engine) executeStep(step Step) StepResult {
	if step.Guard != "" {
		_, _, exitCode, err := e.runner.Run(step.Guard)
		if err != nil {
			return StepResult{Name: step.Name, Outcome: Failed, Err: err}
		}
		if exitCode == 0 {
			e.log.Info("%s", step.SkipMessage)
			return StepResult{Name: step.Name, Outcome: Skipped}
		}
	}

	if step.PreMessage != "" {
		e.log.Info("%s", step.PreMessage)
	}

	if step.Action != nil {
		if err := step.Action(e); err != nil {
			return StepResult{Name: step.Name, Outcome: Failed, Err: err}
		}
	}
	for _, cmd := range step.Commands {
		if _, err := e.capture(cmd); err != nil {
			return StepResult{Name: step.Name, Outcome: Failed, Err: err}
		}
	}

	if step.DoneMessage != "" {
		e.log.Info("%s", step.DoneMessage)
	}

	outcome := Ran
	if step.Guard != "" {
		outcome = Created
	}
	return StepResult{Name: step.Name, Outcome: outcome}
}

// capture runs a command and returns its stdout, turning a non-zero exit
// into an error that carries the exit code and the command's own output.
func (e *Engine) capture(cmd string) (string, error) {
	e.log.Debug("run (%s): %s", e.runner.Describe(), cmd)

	stdout, stderr, exitCode, err := e.runner.Run(cmd)
	if err != nil {
		return "", err
	}
	if exitCode != 0 {
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = strings.TrimSpace(string(stdout))
		}
		cause := error(errors.NewExitError(exitCode))
		if detail != "" {
			cause = fmt.Errorf("%s: %w", detail, cause)
		}
		return "", errors.WrapWithCode(cause, errors.ErrProvision,
			fmt.Sprintf("Command failed on %s: %s", e.runner.Describe(), cmd),
			"Fix the issue above and re-run; completed steps will be skipped")
	}
	return string(stdout), nil
}

// Provision validates options, builds the plan, and executes it.
func Provision(runner Runner, o Options, log logger.Logger) ([]StepResult, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	e := NewEngine(runner, log)
	results, err := e.Execute(BuildPlan(o))
	if err != nil {
		return results, err
	}
	e.log.Info("All done!")
	return results, nil
}
