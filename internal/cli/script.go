package cli

import (
	"fmt"
	"os"

	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/provision"
)

// ScriptOptions holds options for the script command.
type ScriptOptions struct {
	RepoURL     string
	Dir         string
	Python      string
	DatabaseURL bool
	Output      string // File path; empty writes to stdout
}

// Script renders the provisioning procedure as a standalone bash script.
func Script(opts ScriptOptions) error {
	script, err := provision.RenderScript(provision.Options{
		RepoURL:     opts.RepoURL,
		Dir:         opts.Dir,
		Python:      provisionPython(opts.Python),
		DatabaseURL: opts.DatabaseURL,
	})
	if err != nil {
		return err
	}

	if opts.Output == "" {
		fmt.Print(script)
		return nil
	}

	if err := os.WriteFile(opts.Output, []byte(script), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write "+opts.Output, "")
	}
	fmt.Printf("Wrote %s\n", opts.Output)
	return nil
}
