// Package deploy orchestrates a full deployment: validate the local project,
// provision the remote host, and configure the project for the platform.
package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caktus/paw/internal/config"
	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/logger"
	"github.com/caktus/paw/internal/provision"
)

// CommandRunner runs a single shell command remotely and returns its output.
// The deployer uses it for the curl-pipe-bash path; the API client's
// RunCommand satisfies it.
type CommandRunner interface {
	RunCommand(cmd string) (string, error)
}

// Deployer coordinates the deployment of a local Django project.
type Deployer struct {
	Config     *config.Config
	ProjectDir string

	// Runner provisions the remote host step by step.
	Runner provision.Runner

	// Console runs the one-shot setup script when ScriptURL is configured.
	Console CommandRunner

	// OnStep, when set, receives each provisioning step result as it
	// resolves; the CLI wires progress display through it.
	OnStep func(provision.StepResult)

	Log logger.Logger
}

// Result summarizes what a deployment did, for the success message.
type Result struct {
	OriginURL         string
	RemoteDir         string
	AddedRequirements []string
	SettingsUpdated   bool
	Steps             []provision.StepResult
}

// Deploy runs the full deployment. Local validation happens before any
// remote command.
func (d *Deployer) Deploy() (*Result, error) {
	if d.Log == nil {
		d.Log = logger.NewEnvLogger("[deploy]")
	}

	if err := d.validateProject(); err != nil {
		return nil, err
	}

	originURL, err := OriginURL(d.ProjectDir)
	if err != nil {
		return nil, err
	}

	remoteDir := d.Config.Project.Dir
	if remoteDir == "" {
		remoteDir = RepoStem(originURL)
	}

	result := &Result{OriginURL: originURL, RemoteDir: remoteDir}

	if d.Config.ScriptURL != "" {
		if err := d.runSetupScript(originURL, remoteDir); err != nil {
			return nil, err
		}
	} else {
		opts := provision.Options{
			RepoURL:     originURL,
			Dir:         remoteDir,
			Python:      d.Config.Python,
			ProjectName: d.Config.Project.Name,
			DatabaseURL: d.Config.Project.DatabaseURL,
		}
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		engine := provision.NewEngine(d.Runner, d.Log)
		engine.OnStep = d.OnStep
		steps, err := engine.Execute(provision.BuildPlan(opts))
		result.Steps = steps
		if err != nil {
			return nil, err
		}
	}

	if err := d.configureProject(result); err != nil {
		return nil, err
	}

	return result, nil
}

// validateProject checks the local project before any remote work: a git
// work tree with manage.py and requirements.txt at the root.
func (d *Deployer) validateProject() error {
	if !InsideWorkTree(d.ProjectDir) {
		return errors.New(errors.ErrGit,
			"This directory isn't inside a git repository",
			"Run from your project root, or git init first")
	}
	for _, name := range []string{"manage.py", "requirements.txt"} {
		if _, err := os.Stat(filepath.Join(d.ProjectDir, name)); err != nil {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("No %s found in %s", name, d.ProjectDir),
				"Run from the Django project root")
		}
	}
	return nil
}

// runSetupScript clones and provisions through the hosted setup script,
// mirroring the curl-pipe-bash deployment path.
func (d *Deployer) runSetupScript(originURL, remoteDir string) error {
	cmd := fmt.Sprintf("curl -fsSL %s | bash -s -- %s %s",
		d.Config.ScriptURL, originURL, remoteDir)
	d.Log.Info("Cloning and running setup script: %s", cmd)
	if _, err := d.Console.RunCommand(cmd); err != nil {
		return err
	}
	d.Log.Info("Done cloning and running setup script.")
	return nil
}

// configureProject applies the local changes the deployed project needs:
// deploy requirements and the platform settings block.
func (d *Deployer) configureProject(result *Result) error {
	d.Log.Info("Adding deploy requirements...")
	packages := append([]string{}, DeployRequirements...)
	packages = append(packages, d.Config.Project.Requirements...)

	added, err := AddRequirements(filepath.Join(d.ProjectDir, "requirements.txt"), packages)
	if err != nil {
		return err
	}
	result.AddedRequirements = added

	settingsPath, err := FindSettings(d.ProjectDir)
	if err != nil {
		return err
	}
	updated, err := AppendPlatformSettings(settingsPath, d.allowedHost())
	if err != nil {
		return err
	}
	result.SettingsUpdated = updated

	return nil
}

// allowedHost is the site domain the deployed app serves, e.g.
// alice.pythonanywhere.com. Empty when the username isn't known, which makes
// the settings block fall back to a wildcard.
func (d *Deployer) allowedHost() string {
	if d.Config.Username == "" {
		return ""
	}
	domain := d.Config.Domain
	if domain == "" {
		domain = config.DefaultDomain
	}
	return strings.ToLower(d.Config.Username) + "." + domain
}
