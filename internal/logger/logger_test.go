package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger_LevelFiltering tests that debug is suppressed at info level
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel("info")
	Debug("hidden %s", "message")
	Info("visible %s", "message")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible message")
}

// TestLogger_DebugLevel tests debug output when enabled
func TestLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel("debug")
	Debug("sweep for form %s", "priority-flora")

	assert.Contains(t, buf.String(), "sweep for form priority-flora")
	SetLevel("info")
}

// TestInit_BadLevelFallsBack tests unknown levels default to info
func TestInit_BadLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "nonsense"}))
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Debug("suppressed")
	Warn("emitted")

	assert.NotContains(t, buf.String(), "suppressed")
	assert.Contains(t, buf.String(), "emitted")
}
