package provision

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/caktus/paw/internal/errors"
	"github.com/caktus/paw/internal/util"
)

//go:embed script.tmpl
var scriptTemplate string

type scriptStep struct {
	Name        string
	Guard       string
	SkipMessage string
	PreMessage  string
	DoneMessage string
	Body        []string
}

// RenderScript renders the provisioning plan as a standalone bash script for
// the curl-pipe-bash path. The script and the Go runner come from the same
// step definitions, so they can't drift.
func RenderScript(o Options) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}

	tmpl, err := template.New("script").Funcs(template.FuncMap{
		"quote": util.ShellQuote,
	}).Parse(scriptTemplate)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrProvision,
			"Couldn't parse the setup script template", "")
	}

	var steps []scriptStep
	for _, s := range BuildPlan(o) {
		steps = append(steps, scriptStep{
			Name:        s.Name,
			Guard:       s.Guard,
			SkipMessage: s.SkipMessage,
			PreMessage:  s.PreMessage,
			DoneMessage: s.DoneMessage,
			Body:        s.scriptLines(),
		})
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, map[string]any{"Steps": steps}); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrProvision,
			"Couldn't render the setup script", "")
	}
	return b.String(), nil
}
