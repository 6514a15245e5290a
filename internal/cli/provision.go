package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/caktus/paw/internal/api"
	"github.com/caktus/paw/internal/config"
	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/logger"
	"github.com/caktus/paw/internal/provision"
	"github.com/caktus/paw/internal/sshexec"
	"github.com/caktus/paw/internal/ui"
)

// ProvisionOptions holds options for the provision command.
type ProvisionOptions struct {
	RepoURL     string
	Dir         string
	SSHHost     string // Run over SSH when set
	Console     bool   // Run through a platform console
	Python      string
	DatabaseURL bool
	ProjectName string
	Quiet       bool
}

// sshDialTimeout bounds the SSH connection attempt.
const sshDialTimeout = 10 * time.Second

// Provision runs the setup procedure on the selected target: the local
// machine, an SSH host, or a platform console.
func Provision(opts ProvisionOptions) error {
	if opts.SSHHost != "" && opts.Console {
		return errors.New(errors.ErrConfig,
			"--ssh and --console cannot be used together",
			"Pick one target for the run")
	}

	log := logger.NewEnvLogger("[provision]")

	runner, cleanup, err := selectRunner(opts, log)
	if err != nil {
		return err
	}
	defer cleanup()

	phase := ui.NewPhaseDisplay(os.Stdout)
	phase.SetQuiet(opts.Quiet)

	provOpts := provision.Options{
		RepoURL:     opts.RepoURL,
		Dir:         opts.Dir,
		Python:      provisionPython(opts.Python),
		ProjectName: opts.ProjectName,
		DatabaseURL: opts.DatabaseURL,
	}
	if err := provOpts.Validate(); err != nil {
		return err
	}

	engine := provision.NewEngine(runner, log)
	engine.OnStep = stepDisplay(phase)

	if _, err := engine.Execute(provision.BuildPlan(provOpts)); err != nil {
		return err
	}

	fmt.Println("All done!")
	return nil
}

// selectRunner builds the Runner for the requested target, with a cleanup
// function for targets holding a connection.
func selectRunner(opts ProvisionOptions, log logger.Logger) (provision.Runner, func(), error) {
	noop := func() {}

	switch {
	case opts.SSHHost != "":
		client, err := sshexec.Dial(opts.SSHHost, sshDialTimeout, log)
		if err != nil {
			return nil, noop, err
		}
		return client, func() { client.Close() }, nil

	case opts.Console:
		cfg, err := loadConfig()
		if err != nil {
			return nil, noop, err
		}
		if err := config.RequireCredentials(cfg); err != nil {
			return nil, noop, err
		}
		return api.NewConsoleRunner(api.NewClient(cfg, log)), noop, nil

	default:
		return &provision.LocalRunner{}, noop, nil
	}
}

// provisionPython resolves the python version: the flag wins, then config,
// then the built-in default.
func provisionPython(flag string) string {
	if flag != "" {
		return flag
	}
	if cfg, err := loadConfig(); err == nil && cfg.Python != "" {
		return cfg.Python
	}
	return ""
}
