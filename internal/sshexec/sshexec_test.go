package sshexec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveWithConfig_Alias(t *testing.T) {
	path := writeConfig(t, `
Host web
    HostName web.example.com
    User deploy
    Port 2222
    IdentityFile ~/.ssh/deploy_key
`)

	s := ResolveWithConfig("web", path)

	assert.Equal(t, "web.example.com", s.Hostname)
	assert.Equal(t, "deploy", s.User)
	assert.Equal(t, "2222", s.Port)
	assert.Equal(t, "web.example.com:2222", s.Address())
	require.NotEmpty(t, s.IdentityFiles)
	assert.Contains(t, s.IdentityFiles[0], "deploy_key")
}

func TestResolveWithConfig_UserAndPortInHostString(t *testing.T) {
	path := writeConfig(t, `
Host web
    HostName web.example.com
    User deploy
    Port 2222
`)

	// Explicit user@ and :port in the host string win over config.
	s := ResolveWithConfig("alice@web:8022", path)

	assert.Equal(t, "alice", s.User)
	assert.Equal(t, "8022", s.Port)
	assert.Equal(t, "web.example.com", s.Hostname)
}

func TestResolveWithConfig_NoConfigFile(t *testing.T) {
	s := ResolveWithConfig("bob@example.org", filepath.Join(t.TempDir(), "missing"))

	assert.Equal(t, "bob", s.User)
	assert.Equal(t, "example.org", s.Hostname)
	assert.Equal(t, "22", s.Port)
}

func TestResolveWithConfig_FallsBackToEnvUser(t *testing.T) {
	t.Setenv("USER", "envuser")

	s := ResolveWithConfig("example.org", filepath.Join(t.TempDir(), "missing"))

	assert.Equal(t, "envuser", s.User)
}

func TestResolveWithConfig_DefaultIdentityFiles(t *testing.T) {
	s := ResolveWithConfig("example.org", filepath.Join(t.TempDir(), "missing"))

	var names []string
	for _, f := range s.IdentityFiles {
		names = append(names, filepath.Base(f))
	}
	assert.Contains(t, names, "id_ed25519")
	assert.Contains(t, names, "id_rsa")
}
