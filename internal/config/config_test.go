package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "slideforge", cfg.Name)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.InDelta(t, 0.3, cfg.Gemini.Temperature, 1e-9)
	assert.Equal(t, 3, cfg.Gemini.MaxRetries)
	assert.Equal(t, "format_new.pptx", cfg.Render.TemplatePath)
	assert.False(t, cfg.Logging.DebugMode)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(os.TempDir(), "no-such-config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Gemini.Model, cfg.Gemini.Model)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.yaml")
	body := `
gemini:
  model: gemini-2.0-flash
  timeout: 30s
render:
  template_path: custom.pptx
logging:
  debug_mode: true
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, 30*time.Second, cfg.GetGeminiTimeout())
	assert.Equal(t, "custom.pptx", cfg.Render.TemplatePath)
	assert.True(t, cfg.Logging.DebugMode)
	// Untouched sections keep defaults.
	assert.Equal(t, "https://translate.googleapis.com", cfg.Translate.BaseURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("SLIDEFORGE_TEMPLATE", "/tmp/tpl.pptx")

	cfg, err := Load(filepath.Join(os.TempDir(), "no-such-config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	assert.Equal(t, "/tmp/tpl.pptx", cfg.Render.TemplatePath)
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gemini.Timeout = "garbage"
	cfg.Image.Timeout = ""

	assert.Equal(t, 120*time.Second, cfg.GetGeminiTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetImageTimeout())
	assert.Equal(t, 15*time.Second, cfg.GetTranslateTimeout())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	assert.ErrorContains(t, err, "API key")

	cfg.Gemini.APIKey = "key"
	assert.NoError(t, cfg.Validate())

	cfg.Gemini.Temperature = 3.5
	assert.ErrorContains(t, cfg.Validate(), "temperature")

	cfg.Gemini.Temperature = 0.3
	cfg.Render.TemplatePath = ""
	assert.ErrorContains(t, cfg.Validate(), "template")
}

func TestSaveRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg := DefaultConfig()
	cfg.Gemini.Model = "gemini-2.0-flash"
	path := filepath.Join(dir, "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", loaded.Gemini.Model)
}
