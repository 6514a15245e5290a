package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caktus/paw/internal/config"
	"github.com/caktus/paw/internal/errors"
	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Overwrite bool // Overwrite existing config without asking
}

// Init creates a new .paw.yaml configuration file with interactive prompts.
func Init(opts InitOptions) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	var databaseURL bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Platform username").
				Description("Your PythonAnywhere account name (also via API_USER)").
				Placeholder("alice").
				Value(&cfg.Username),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Python version").
				Description("Runtime for the remote virtualenv").
				Placeholder(config.DefaultPython).
				Value(&cfg.Python).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					probe := &config.Config{Version: config.CurrentConfigVersion, Python: s}
					return config.Validate(probe)
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Django project name (optional)").
				Description("The package containing settings.py").
				Value(&cfg.Project.Name).
				Validate(func(s string) error {
					if strings.ContainsAny(s, " \t\n") {
						return fmt.Errorf("project name cannot contain whitespace")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write a DATABASE_URL entry to the remote env file?").
				Value(&databaseURL),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility")
	}

	if cfg.Python == "" {
		cfg.Python = config.DefaultPython
	}
	cfg.Project.DatabaseURL = databaseURL

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config", "")
	}

	header := "# paw configuration. Credentials stay in API_USER / API_TOKEN.\n"
	if err := os.WriteFile(configPath, []byte(header+string(data)), 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+configPath,
			"Check directory permissions")
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("Set API_USER and API_TOKEN in your environment or a local .env, then run: paw deploy")
	return nil
}
