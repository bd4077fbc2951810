package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetState clears package state between tests so they do not bleed into
// each other through the shared logger map.
func resetState() {
	CloseAll()
	logsDir = ""
	opts = Options{}
	logLevel = LevelInfo
}

func TestInitializeDisabledWritesNothing(t *testing.T) {
	defer resetState()

	dir, err := os.MkdirTemp("", "logging-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, Initialize(dir, Options{DebugMode: false}))

	Boot("should not appear anywhere")
	_, err = os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err), "logs directory must not exist in production mode")
}

func TestInitializeDebugWritesCategoryFile(t *testing.T) {
	defer resetState()

	dir, err := os.MkdirTemp("", "logging-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, Initialize(dir, Options{DebugMode: true, Level: "debug"}))

	Render("rendered %d slides", 7)
	CloseAll()

	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, "logs", date+"_render.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "rendered 7 slides")
}

func TestCategoryFilter(t *testing.T) {
	defer resetState()

	dir, err := os.MkdirTemp("", "logging-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, Initialize(dir, Options{
		DebugMode:  true,
		Level:      "info",
		Categories: map[string]bool{"api": true, "image": false},
	}))

	assert.True(t, IsCategoryEnabled(CategoryAPI))
	assert.False(t, IsCategoryEnabled(CategoryImage))
	// Unlisted categories default to enabled.
	assert.True(t, IsCategoryEnabled(CategoryPlan))

	Image("suppressed")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), "image"), "disabled category must not create a file")
	}
}

func TestLevelFiltering(t *testing.T) {
	defer resetState()

	dir, err := os.MkdirTemp("", "logging-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, Initialize(dir, Options{DebugMode: true, Level: "warn"}))

	l := Get(CategoryAPI)
	l.Info("info suppressed")
	l.Warn("warn visible")
	CloseAll()

	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, "logs", date+"_api.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "info suppressed")
	assert.Contains(t, string(data), "warn visible")
}

func TestTimerLogsDuration(t *testing.T) {
	defer resetState()

	dir, err := os.MkdirTemp("", "logging-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, Initialize(dir, Options{DebugMode: true, Level: "debug"}))

	timer := StartTimer(CategoryExtract, "pdf extraction")
	elapsed := timer.Stop()
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	CloseAll()

	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, "logs", date+"_extract.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "pdf extraction completed in")
}
