package deploy

import (
	"os"
	"regexp"
	"strings"

	"github.com/caktus/paw/internal/errors"
)

// DeployRequirements are the packages the deployed project needs on the
// platform beyond its own requirements.
var DeployRequirements = []string{"gunicorn", "dj-database-url"}

// requirementName extracts the bare package name from a requirements.txt
// line, dropping version specifiers, extras, and environment markers.
var requirementName = regexp.MustCompile(`^\s*([A-Za-z0-9._-]+)`)

// AddRequirements appends packages to a requirements.txt, skipping any
// already listed (in any version-pinned form). It returns the packages that
// were added.
func AddRequirements(path string, packages []string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read "+path,
			"Run from the project root, next to requirements.txt")
	}

	present := map[string]bool{}
	for _, line := range strings.Split(string(data), "\n") {
		if m := requirementName.FindStringSubmatch(line); m != nil {
			present[normalizePackage(m[1])] = true
		}
	}

	var added []string
	for _, pkg := range packages {
		if !present[normalizePackage(pkg)] {
			added = append(added, pkg)
		}
	}
	if len(added) == 0 {
		return nil, nil
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(added, "\n") + "\n"

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't update "+path, "")
	}
	return added, nil
}

// normalizePackage folds case and treats - and _ as equivalent, the way pip
// compares package names.
func normalizePackage(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}
