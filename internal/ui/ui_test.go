package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	// Force plain output so assertions don't depend on the test terminal.
	lipgloss.SetColorProfile(termenv.Ascii)
	m.Run()
}

func TestPhaseDisplay_RenderSuccess(t *testing.T) {
	var buf bytes.Buffer
	pd := NewPhaseDisplay(&buf)

	pd.RenderSuccess("Cloned repository", 300*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, SymbolComplete)
	assert.Contains(t, out, "Cloned repository")
	assert.Contains(t, out, "0.3s")
}

func TestPhaseDisplay_RenderFailed(t *testing.T) {
	var buf bytes.Buffer
	pd := NewPhaseDisplay(&buf)

	pd.RenderFailed("Installing dependencies", 2300*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, SymbolFail)
	assert.Contains(t, out, "Installing dependencies")
}

func TestPhaseDisplay_RenderSkipped(t *testing.T) {
	var buf bytes.Buffer
	pd := NewPhaseDisplay(&buf)

	pd.RenderSkipped("Cloning repository", "already exists")

	out := buf.String()
	assert.Contains(t, out, SymbolSkipped)
	assert.Contains(t, out, "(already exists)")
}

func TestPhaseDisplay_Quiet(t *testing.T) {
	var buf bytes.Buffer
	pd := NewPhaseDisplay(&buf)
	pd.SetQuiet(true)

	pd.RenderProgress("Cloning repository")
	pd.RenderSkipped("Cloning repository", "already exists")
	pd.CommandPrompt("git clone url dir")

	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"sub-100ms", 50 * time.Millisecond, "0.05s"},
		{"seconds", 1500 * time.Millisecond, "1.5s"},
		{"minutes", 90 * time.Second, "90.0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.d))
		})
	}
}

func TestSpinner_Lifecycle(t *testing.T) {
	var mu strings.Builder
	s := NewSpinner("Waiting for console")
	s.SetOutput(func(out string) { mu.WriteString(out) })

	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Success()

	assert.Equal(t, SpinnerSuccess, s.State())
	assert.Contains(t, mu.String(), "Waiting for console")
	assert.Contains(t, mu.String(), SymbolComplete)
}

func TestSpinner_Fail(t *testing.T) {
	var out strings.Builder
	s := NewSpinner("Probing")
	s.SetOutput(func(line string) { out.WriteString(line) })

	s.Start()
	s.Fail()

	assert.Equal(t, SpinnerFailed, s.State())
	assert.Contains(t, out.String(), SymbolFail)
}

func TestSpinner_DoubleStart(t *testing.T) {
	s := NewSpinner("x")
	s.SetOutput(func(string) {})

	s.Start()
	s.Start() // no-op
	s.Stop()

	assert.Equal(t, SpinnerInProgress, s.State())
}
