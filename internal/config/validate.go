package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/caktus/paw/internal/errors"
)

// pythonVersionRe matches version selectors like "3.13" or "python3.13".
var pythonVersionRe = regexp.MustCompile(`^(python)?\d+\.\d+$`)

// Validate checks a loaded config for problems a command can't work around.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Config version %d is newer than this paw supports (%d)", cfg.Version, CurrentConfigVersion),
			"Upgrade paw, or regenerate the config with 'paw init'")
	}

	if cfg.Python != "" && !pythonVersionRe.MatchString(cfg.Python) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a Python version", cfg.Python),
			"Use a selector like 3.13 or python3.13")
	}

	if cfg.Project.Dir != "" && strings.ContainsAny(cfg.Project.Dir, " \t\n") {
		return errors.New(errors.ErrConfig,
			"Project directory cannot contain whitespace",
			"Pick a directory name like 'myproject'")
	}

	return nil
}

// RequireCredentials checks that the account credentials needed for API
// commands are present. File- or env-sourced, either works.
func RequireCredentials(cfg *Config) error {
	if cfg.Username == "" {
		return errors.New(errors.ErrConfig,
			"No account username configured",
			"Set API_USER, or add 'username:' to your .paw.yaml")
	}
	if cfg.Token == "" {
		return errors.New(errors.ErrConfig,
			"No API token configured",
			"Set API_TOKEN. Create a token on the platform's Account > API Token page.")
	}
	return nil
}

// PythonBinary returns the interpreter name for the configured version
// selector: "3.13" and "python3.13" both yield "python3.13".
func (c *Config) PythonBinary() string {
	v := c.Python
	if v == "" {
		v = DefaultPython
	}
	if strings.HasPrefix(v, "python") {
		return v
	}
	return "python" + v
}
