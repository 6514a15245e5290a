package provision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunner_CapturesOutput(t *testing.T) {
	r := &LocalRunner{}

	stdout, stderr, exitCode, err := r.Run("echo hello; echo oops 1>&2")

	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, "hello\n", string(stdout))
	assert.Equal(t, "oops\n", string(stderr))
}

func TestLocalRunner_NonZeroExitIsNotAnError(t *testing.T) {
	r := &LocalRunner{}

	_, _, exitCode, err := r.Run("exit 3")

	require.NoError(t, err)
	assert.Equal(t, 3, exitCode)
}

func TestLocalRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0o644))

	r := &LocalRunner{Dir: dir}

	_, _, exitCode, err := r.Run("test -f marker")

	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
}

func TestLocalRunner_Describe(t *testing.T) {
	assert.Equal(t, "local", (&LocalRunner{}).Describe())
}
