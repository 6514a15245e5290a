package deploy

import (
	"os/exec"
	"path"
	"strings"

	"github.com/caktus/paw/internal/errors"
)

// OriginURL returns the project's git origin URL in https form.
func OriginURL(projectDir string) (string, error) {
	cmd := exec.Command("git", "config", "--get", "remote.origin.url")
	cmd.Dir = projectDir
	out, err := cmd.Output()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrGit,
			"Couldn't read the git origin URL",
			"Add a remote first: git remote add origin <url>")
	}

	url := strings.TrimSpace(string(out))
	if url == "" {
		return "", errors.New(errors.ErrGit,
			"The git origin URL is empty",
			"Add a remote first: git remote add origin <url>")
	}
	return ToHTTPS(url), nil
}

// ToHTTPS converts an SSH-style git URL to its https form:
// git@github.com:owner/repo.git -> https://github.com/owner/repo.git.
// URLs already in https form pass through unchanged.
func ToHTTPS(url string) string {
	if !strings.HasPrefix(url, "git@") {
		return url
	}
	url = strings.TrimPrefix(url, "git@")
	url = strings.Replace(url, ":", "/", 1)
	return "https://" + url
}

// RepoStem returns the checkout directory name for a repo URL: the last path
// segment without the .git suffix.
func RepoStem(url string) string {
	stem := path.Base(strings.TrimSuffix(url, "/"))
	return strings.TrimSuffix(stem, ".git")
}

// InsideWorkTree reports whether dir is inside a git work tree.
func InsideWorkTree(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}
