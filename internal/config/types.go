package config

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultDomain is the hosting platform's production domain.
const DefaultDomain = "pythonanywhere.com"

// DefaultPython is the runtime version used when none is specified.
const DefaultPython = "3.13"

// Config represents the complete .paw.yaml configuration file.
// Credentials (Username, Token) are normally supplied via the API_USER and
// API_TOKEN environment variables; the token is never written to disk.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Username is the hosting platform account name (env: API_USER).
	Username string `yaml:"username" mapstructure:"username"`

	// Token authenticates API requests (env: API_TOKEN, never persisted).
	Token string `yaml:"-" mapstructure:"token"`

	// Site overrides the full API hostname (env: PYTHONANYWHERE_SITE).
	Site string `yaml:"site,omitempty" mapstructure:"site"`

	// Domain is the platform domain; the API host is "www." + Domain
	// (env: PYTHONANYWHERE_DOMAIN).
	Domain string `yaml:"domain,omitempty" mapstructure:"domain"`

	// Python is the runtime version selector, e.g. "3.13" or "python3.13".
	Python string `yaml:"python,omitempty" mapstructure:"python"`

	// ScriptURL, when set, makes deploy fetch and pipe the setup script from
	// this URL instead of driving the steps directly. Intended for debugging
	// the script by substituting a locally served copy
	// (env: REMOTE_SETUP_SCRIPT_URL).
	ScriptURL string `yaml:"script_url,omitempty" mapstructure:"script_url"`

	// Project holds per-project deployment settings.
	Project ProjectConfig `yaml:"project,omitempty" mapstructure:"project"`
}

// ProjectConfig holds settings for the project being deployed.
type ProjectConfig struct {
	// Name is the Django project name (the package containing settings.py).
	// Empty means the provisioning steps that need it are skipped.
	Name string `yaml:"name,omitempty" mapstructure:"name"`

	// Dir overrides the remote target directory. Empty means the repository
	// name is used.
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`

	// DatabaseURL opts into writing a DATABASE_URL entry to the generated
	// env file, derived from the target directory and the remote home path.
	DatabaseURL bool `yaml:"database_url,omitempty" mapstructure:"database_url"`

	// Requirements are extra packages added to requirements.txt on deploy,
	// beyond the built-in deploy set.
	Requirements []string `yaml:"requirements,omitempty" mapstructure:"requirements"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Domain:  DefaultDomain,
		Python:  DefaultPython,
	}
}

// Hostname returns the API hostname: the Site override when set, otherwise
// "www." + Domain. Mirrors how the platform's own tooling resolves it.
func (c *Config) Hostname() string {
	if c.Site != "" {
		return c.Site
	}
	domain := c.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	return "www." + domain
}
