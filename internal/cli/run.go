package cli

import (
	"fmt"

	"github.com/caktus/paw/internal/api"
	"github.com/caktus/paw/internal/config"
	"github.com/caktus/paw/internal/logger"
	"github.com/caktus/paw/internal/ui"
)

// Run executes one command in a platform bash console and prints its output.
func Run(command string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.RequireCredentials(cfg); err != nil {
		return err
	}

	client := api.NewClient(cfg, logger.NewEnvLogger("[run]"))

	// Console acquisition can take a while when a fresh console has to spin
	// up; show progress unless we're quiet.
	var spinner *ui.Spinner
	if !quietFlag {
		spinner = ui.NewSpinner("Running in console: " + command)
		spinner.Start()
	}

	output, err := client.RunCommand(command)
	if spinner != nil {
		if err != nil {
			spinner.Fail()
		} else {
			spinner.Success()
		}
	}
	if err != nil {
		return err
	}

	if output != "" {
		fmt.Println(output)
	}
	return nil
}
