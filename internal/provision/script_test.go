package provision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderScript(t *testing.T) {
	script, err := RenderScript(testOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash"))
	assert.Contains(t, script, "set -e")

	// Every guard and step appears, in order.
	fragments := []string{
		"if test -d 'mysite'; then",
		"git clone 'https://github.com/alice/mysite.git' 'mysite'",
		"if test -d venv; then",
		"python3.13 -m venv venv",
		"venv/bin/pip install --upgrade pip",
		"venv/bin/pip install -r 'mysite/requirements.txt'",
		"if test -f 'mysite/.env'; then",
		"SECRET_KEY=$(venv/bin/python -c",
		"cat > 'mysite/.env' <<EOF",
		"manage.py migrate --noinput",
		"manage.py collectstatic --noinput",
		`echo "All done!"`,
	}
	pos := 0
	for _, frag := range fragments {
		idx := strings.Index(script[pos:], frag)
		require.GreaterOrEqual(t, idx, 0, "script missing %q after position %d", frag, pos)
		pos += idx
	}
}

func TestRenderScript_SkipMessages(t *testing.T) {
	script, err := RenderScript(testOptions())
	require.NoError(t, err)

	assert.Contains(t, script, "echo 'mysite already exists, skipping clone.'")
	assert.Contains(t, script, "echo 'venv already exists, skipping.'")
	assert.Contains(t, script, "echo '.env file created.'")
	assert.Contains(t, script, "echo 'Running migrations and collectstatic...'")
}

func TestRenderScript_DatabaseURL(t *testing.T) {
	opts := testOptions()
	opts.DatabaseURL = true

	script, err := RenderScript(opts)
	require.NoError(t, err)

	assert.Contains(t, script, "DATABASE_URL=sqlite:///$HOME/mysite/db.sqlite3")
}

func TestRenderScript_InvalidOptions(t *testing.T) {
	_, err := RenderScript(Options{})
	assert.Error(t, err)
}
