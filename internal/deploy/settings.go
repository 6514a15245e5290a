package deploy

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/caktus/paw/internal/errors"
)

//go:embed settings.tmpl
var settingsTemplate string

// settingsMarker guards against appending the platform block twice.
const settingsMarker = "# PythonAnywhere settings."

// FindSettings locates the Django settings.py under the project root, which
// by convention lives one directory down (<root>/<project>/settings.py).
func FindSettings(projectDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(projectDir, "*", "settings.py"))
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}
	return "", errors.New(errors.ErrConfig,
		"Couldn't find settings.py in "+projectDir,
		"Run from the project root, the directory that holds manage.py")
}

// AppendPlatformSettings appends the platform settings block to a
// settings.py, unless the marker shows it's already there. Returns true when
// the block was added.
func AppendPlatformSettings(path, host string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read "+path, "")
	}

	if strings.Contains(string(data), settingsMarker) {
		return false, nil
	}

	if host == "" {
		host = "*"
	}

	tmpl, err := template.New("settings").Parse(settingsTemplate)
	if err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't parse the settings template", "")
	}

	var b strings.Builder
	b.Write(data)
	if err := tmpl.Execute(&b, map[string]string{"Host": host}); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't render the settings block", "")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't update "+path, "")
	}
	return true, nil
}
