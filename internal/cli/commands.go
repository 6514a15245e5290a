package cli

import (
	"os"
	"strings"

	"github.com/caktus/paw/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	provisionSSHFlag     string
	provisionConsoleFlag bool
	provisionPythonFlag  string
	provisionDBURLFlag   bool
	provisionProjectFlag string
	scriptOutputFlag     string
	scriptPythonFlag     string
	scriptDBURLFlag      bool
	initForce            bool
	deployDirFlag        string
)

// deployCmd runs the full deployment workflow.
var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Provision the platform and configure your project",
	Long: `Deploy the current Django project to PythonAnywhere.

Validates the local project, reads the git origin URL, provisions the remote
host through a platform console (clone, virtualenv, dependencies, env file,
migrations), then adds deploy requirements and platform settings locally.

Safe to re-run: remote artifacts that already exist are skipped.

Examples:
  paw deploy
  paw deploy --dir mysite
  API_USER=alice API_TOKEN=... paw deploy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Deploy(DeployOptions{Dir: deployDirFlag, Quiet: quietFlag})
	},
}

// provisionCmd runs the provisioning procedure directly.
var provisionCmd = &cobra.Command{
	Use:   "provision <repo-url> <dir>",
	Short: "Run the setup procedure on a host",
	Long: `Run the idempotent setup procedure: clone the repository, create a
virtualenv, install dependencies, write the env file, and run migrations.

Runs locally by default; use --ssh to run on a remote host over SSH, or
--console to run through a PythonAnywhere console.

Examples:
  paw provision https://github.com/alice/mysite.git mysite
  paw provision --ssh deploy@server https://github.com/alice/mysite.git mysite
  paw provision --console https://github.com/alice/mysite.git mysite`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Provision(ProvisionOptions{
			RepoURL:     args[0],
			Dir:         args[1],
			SSHHost:     provisionSSHFlag,
			Console:     provisionConsoleFlag,
			Python:      provisionPythonFlag,
			DatabaseURL: provisionDBURLFlag,
			ProjectName: provisionProjectFlag,
			Quiet:       quietFlag,
		})
	},
}

// runCmd runs one command in a platform console.
var runCmd = &cobra.Command{
	Use:   "run <command>...",
	Short: "Run a command in a platform console",
	Long: `Run a single command in a PythonAnywhere bash console and print its
output. Reuses a live console when one exists.

Examples:
  paw run "ls ~"
  paw run "git -C mysite pull"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(strings.Join(args, " "))
	},
}

// scriptCmd renders the provisioning procedure as bash.
var scriptCmd = &cobra.Command{
	Use:   "script <repo-url> <dir>",
	Short: "Render the setup procedure as a bash script",
	Long: `Render the provisioning procedure as a standalone bash script, for
hosting at a URL and running with curl | bash (see REMOTE_SETUP_SCRIPT_URL).

The script and paw's own runner are generated from the same step
definitions.

Examples:
  paw script https://github.com/alice/mysite.git mysite
  paw script --output setup.sh https://github.com/alice/mysite.git mysite`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Script(ScriptOptions{
			RepoURL:     args[0],
			Dir:         args[1],
			Python:      scriptPythonFlag,
			DatabaseURL: scriptDBURLFlag,
			Output:      scriptOutputFlag,
		})
	},
}

// initCmd creates a .paw.yaml configuration.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .paw.yaml configuration",
	Long: `Create a .paw.yaml configuration file in the current directory,
guided by interactive prompts.

Credentials are never written to the file; keep API_USER and API_TOKEN in
the environment or a local .env.

Examples:
  paw init
  paw init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(InitOptions{Overwrite: initForce})
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for paw.

Examples:
  # Bash
  paw completion bash > /etc/bash_completion.d/paw

  # Zsh
  paw completion zsh > "${fpath[1]}/_paw"

  # Fish
  paw completion fish > ~/.config/fish/completions/paw.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	deployCmd.Flags().StringVar(&deployDirFlag, "dir", "", "remote checkout directory (default: repository name)")

	provisionCmd.Flags().StringVar(&provisionSSHFlag, "ssh", "", "run on this host over SSH (host, user@host, or SSH config alias)")
	provisionCmd.Flags().BoolVar(&provisionConsoleFlag, "console", false, "run through a PythonAnywhere console")
	provisionCmd.Flags().StringVar(&provisionPythonFlag, "python", "", "python version for the virtualenv (e.g. 3.13)")
	provisionCmd.Flags().BoolVar(&provisionDBURLFlag, "database-url", false, "write a DATABASE_URL entry to the env file")
	provisionCmd.Flags().StringVar(&provisionProjectFlag, "project-name", "", "Django project name")

	scriptCmd.Flags().StringVarP(&scriptOutputFlag, "output", "o", "", "write the script to a file instead of stdout")
	scriptCmd.Flags().StringVar(&scriptPythonFlag, "python", "", "python version for the virtualenv (e.g. 3.13)")
	scriptCmd.Flags().BoolVar(&scriptDBURLFlag, "database-url", false, "write a DATABASE_URL entry to the env file")

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}
