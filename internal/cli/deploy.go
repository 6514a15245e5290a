package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/caktus/paw/internal/api"
	"github.com/caktus/paw/internal/config"
	"github.com/caktus/paw/internal/deploy"
	"github.com/caktus/paw/internal/logger"
	"github.com/caktus/paw/internal/provision"
	"github.com/caktus/paw/internal/ui"
)

// DeployOptions holds options for the deploy command.
type DeployOptions struct {
	Dir   string // Remote checkout directory override
	Quiet bool
}

// Deploy runs the full deployment workflow: validate the local project,
// provision the remote host through the platform API, and configure the
// project for the platform.
func Deploy(opts DeployOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.RequireCredentials(cfg); err != nil {
		return err
	}
	if opts.Dir != "" {
		cfg.Project.Dir = opts.Dir
	}

	phase := ui.NewPhaseDisplay(os.Stdout)
	phase.SetQuiet(opts.Quiet)

	log := logger.NewEnvLogger("[deploy]")
	client := api.NewClient(cfg, log)

	d := &deploy.Deployer{
		Config:     cfg,
		ProjectDir: ".",
		Runner:     api.NewConsoleRunner(client),
		Console:    client,
		OnStep:     stepDisplay(phase),
		Log:        log,
	}

	fmt.Println("Configuring project for deployment to PythonAnywhere...")

	start := time.Now()
	result, err := d.Deploy()
	if err != nil {
		phase.RenderFailed("deploy", time.Since(start))
		return err
	}
	phase.RenderSuccess("deploy", time.Since(start))

	phase.Divider()
	fmt.Println(deploy.SuccessMessage(result, appHost(cfg)))
	return nil
}

// appHost is the site domain the deployed app serves.
func appHost(cfg *config.Config) string {
	if cfg.Username == "" {
		return ""
	}
	domain := cfg.Domain
	if domain == "" {
		domain = config.DefaultDomain
	}
	return cfg.Username + "." + domain
}

// loadConfig finds and loads the config file, falling back to defaults plus
// environment overrides when no file exists.
func loadConfig() (*config.Config, error) {
	if Config() != "" {
		path, err := config.Find(Config())
		if err != nil {
			return nil, err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.LoadOrDefault()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stepDisplay renders provisioning step results through the phase display.
func stepDisplay(phase *ui.PhaseDisplay) func(provision.StepResult) {
	start := time.Now()
	return func(r provision.StepResult) {
		elapsed := time.Since(start)
		start = time.Now()
		switch r.Outcome {
		case provision.Skipped:
			phase.RenderSkipped(r.Name, "already exists")
		case provision.Failed:
			phase.RenderFailed(r.Name, elapsed)
		default:
			phase.RenderSuccess(r.Name, elapsed)
		}
	}
}
