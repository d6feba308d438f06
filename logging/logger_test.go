package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l, err := NewLogger(Config{Level: "debug", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	l.Named("search").With(String("strategy", "optimal")).Info("solution found",
		Int("active", 3), Float64("trust", 1.2), Bool("completed", true),
		Duration("elapsed", time.Second), Err(errors.New("none")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"strategy":"optimal"`))
	assert.True(t, strings.Contains(line, `"active":3`))
	assert.True(t, strings.Contains(line, `"logger":"search"`))
}

func TestNewLogger_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warn.log")
	l, err := NewLogger(Config{Level: "warn", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewNop()
	assert.Equal(t, l, OrNop(l))
	assert.Equal(t, "<nil>", Err(nil).Value)
}
