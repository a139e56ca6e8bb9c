package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "voxrec.log")
	log, err := New(Options{Path: path, Level: "debug"})
	require.NoError(t, err)

	log.Debugw("session started", "session", "abc")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "session started", entry["msg"])
	assert.Equal(t, "abc", entry["session"])
	assert.Equal(t, "voxrec", entry["logger"])
	assert.Equal(t, "debug", entry["level"])
}

func TestLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxrec.log")
	var console bytes.Buffer
	log, err := New(Options{Path: path, Level: "warn", Console: &console})
	require.NoError(t, err)

	log.Infow("hidden")
	log.Warnw("shown")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
	assert.True(t, strings.Contains(console.String(), "shown"))
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(Options{Path: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	assert.Error(t, err)
}

func TestDefaultPathUsesXDGState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/state", "voxrec", "voxrec.log"), p)
}
