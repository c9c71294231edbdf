package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture enables verbose logging into a buffer and restores defaults afterwards.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)
	t.Cleanup(func() {
		SetVerbose(false)
		SetTimestamps(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	buf := capture(t)

	Debug("loaded %d forms", 3)
	Info("patient %s", "p1")
	Warn("retrying")

	assert.Equal(t, "[DEBUG] loaded 3 forms\n[INFO] patient p1\n[WARN] retrying\n", buf.String())
}

func TestSilentWhenNotVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	assert.Zero(t, buf.Len())
}

func TestSection(t *testing.T) {
	buf := capture(t)

	Section("Form Sync")

	assert.Equal(t, "\n=== Form Sync ===\n", buf.String())
}

func TestTimestamps(t *testing.T) {
	buf := capture(t)
	SetTimestamps(true)

	Info("hello")

	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} \[INFO\] hello\n$`), buf.String())
}

func TestToFile(t *testing.T) {
	buf := capture(t)
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	restore, err := ToFile(path)
	require.NoError(t, err)
	Info("to file")
	require.NoError(t, restore())
	require.NoError(t, restore())

	Info("to buffer")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] to file")
	assert.NotContains(t, string(data), "to buffer")
	assert.Equal(t, "[INFO] to buffer\n", buf.String())
}
