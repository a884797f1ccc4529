package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGet_NamesLoggerByCategory(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Get(CategorySolver).Info("converged", zap.Int("iterations", 4))
	Get(CategorySolver).Debug("step")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "solver", entries[0].LoggerName)
	assert.Equal(t, "converged", entries[0].Message)
	assert.Equal(t, int64(4), entries[0].ContextMap()["iterations"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestGet_CachesPerCategory(t *testing.T) {
	SetLogger(zap.NewNop())
	defer SetLogger(nil)

	assert.Same(t, Get(CategoryStore), Get(CategoryStore))
}

func TestInitialize_FileAndCategories(t *testing.T) {
	defer SetLogger(nil)

	path := filepath.Join(t.TempDir(), "logs", "dspike.log")
	err := Initialize(Options{
		Level:      "debug",
		Format:     "json",
		File:       path,
		Categories: map[string]bool{"store": false},
	})
	require.NoError(t, err)

	Boot("booted", zap.String("config", "defaults"))
	StoreDebug("should not appear")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"logger":"boot"`)
	assert.Contains(t, out, `"msg":"booted"`)
	assert.False(t, strings.Contains(out, "should not appear"))
	assert.NotSame(t, Get(CategorySolver), Get(CategoryStore))
}

func TestInitialize_InvalidLevel(t *testing.T) {
	defer SetLogger(nil)

	err := Initialize(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestInitialize_LevelFilters(t *testing.T) {
	defer SetLogger(nil)

	path := filepath.Join(t.TempDir(), "warn.log")
	require.NoError(t, Initialize(Options{Level: "warn", Format: "console", File: path}))

	Get(CategoryCLI).Info("quiet")
	Get(CategoryCLI).Warn("loud")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestInitialize_DefaultLevelIsWarn(t *testing.T) {
	defer SetLogger(nil)

	path := filepath.Join(t.TempDir(), "default.log")
	require.NoError(t, Initialize(Options{File: path}))

	Boot("config loaded")
	Get(CategoryCLI).Warn("store unavailable")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "config loaded")
	assert.Contains(t, string(data), "store unavailable")
}
