// Package cli implements the paw command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/ui"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configFlag  string
	verboseFlag bool
	quietFlag   bool
	noColorFlag bool
)

// rootCmd is the base command for paw.
var rootCmd = &cobra.Command{
	Use:   "paw",
	Short: "Deploy Django projects to PythonAnywhere",
	Long: `paw provisions and deploys a Django project to PythonAnywhere.

It drives an idempotent setup procedure (clone, virtualenv, dependencies,
env file, migrations) on the remote host through the platform's console API,
over SSH, or locally, and configures your local project for the platform.

Credentials come from the API_USER and API_TOKEN environment variables, or
a local .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Credentials commonly live in a local .env; missing is fine.
		_ = godotenv.Load()

		if noColorFlag || os.Getenv("NO_COLOR") != "" {
			ui.DisableColor()
		}
		if verboseFlag {
			os.Setenv("PAW_DEBUG", "1")
		}
	},
}

// Execute runs the root command, rendering structured errors and
// propagating remote exit codes to the process exit status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(errors.ExitCode(err))
	}
}

// Config returns the --config flag value.
func Config() string {
	return configFlag
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file (default: search for .paw.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}
