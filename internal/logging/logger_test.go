package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dk.log")
	require.NoError(t, os.WriteFile(path, []byte("previous line\n"), 0o644))

	logger, err := New(Config{Level: "info", Format: "console", File: path})
	require.NoError(t, err)
	logger.Info("flattened record", zap.Int("keys", 3))
	logger.Debug("hidden")
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "previous line", lines[0])
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\tINFO\t`), lines[1])
	assert.Contains(t, lines[1], "flattened record")
	assert.Contains(t, lines[1], `{"keys": 3}`)
}

func TestNew_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dk.json.log")

	logger, err := New(Config{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	logger.Debug("collision", zap.String("key", "a.x"))
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(b, &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "collision", entry["msg"])
	assert.Equal(t, "a.x", entry["key"])
	assert.Contains(t, entry, "time")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}
