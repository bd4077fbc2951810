// Package config loads and validates slideforge configuration from a YAML
// file, with environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all slideforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Gemini text generation
	Gemini GeminiConfig `yaml:"gemini"`

	// Image generation for visual slides
	Image ImageConfig `yaml:"image"`

	// Azerbaijani -> English translation for image prompts
	Translate TranslateConfig `yaml:"translate"`

	// Deck rendering
	Render RenderConfig `yaml:"render"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// GeminiConfig configures the text generation client.
type GeminiConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
	MaxRetries  int     `yaml:"max_retries"`
}

// ImageConfig configures image generation for "image" visuals.
type ImageConfig struct {
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// TranslateConfig configures the translation endpoint used to turn
// Azerbaijani image descriptions into English generation prompts.
type TranslateConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// RenderConfig configures deck rendering.
type RenderConfig struct {
	TemplatePath string `yaml:"template_path"`
	OutputDir    string `yaml:"output_dir"`
	WorkDir      string `yaml:"work_dir"`
}

// LoggingConfig configures debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "slideforge",
		Version: "1.0.0",

		Gemini: GeminiConfig{
			Model:       "gemini-1.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Temperature: 0.3,
			Timeout:     "120s",
			MaxRetries:  3,
		},

		Image: ImageConfig{
			Model:   "imagen-3.0-generate-002",
			Timeout: "60s",
		},

		Translate: TranslateConfig{
			BaseURL: "https://translate.googleapis.com",
			Timeout: "15s",
		},

		Render: RenderConfig{
			TemplatePath: "format_new.pptx",
			OutputDir:    ".",
			WorkDir:      ".slideforge",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if url := os.Getenv("GEMINI_BASE_URL"); url != "" {
		c.Gemini.BaseURL = url
	}
	if path := os.Getenv("SLIDEFORGE_TEMPLATE"); path != "" {
		c.Render.TemplatePath = path
	}
	if dir := os.Getenv("SLIDEFORGE_OUTPUT_DIR"); dir != "" {
		c.Render.OutputDir = dir
	}
}

// GetGeminiTimeout returns the text generation timeout as a duration.
func (c *Config) GetGeminiTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gemini.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetImageTimeout returns the image generation timeout as a duration.
func (c *Config) GetImageTimeout() time.Duration {
	d, err := time.ParseDuration(c.Image.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetTranslateTimeout returns the translation timeout as a duration.
func (c *Config) GetTranslateTimeout() time.Duration {
	d, err := time.ParseDuration(c.Translate.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured (set GEMINI_API_KEY or gemini.api_key)")
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return fmt.Errorf("invalid temperature: %v (valid: 0..2)", c.Gemini.Temperature)
	}
	if c.Gemini.MaxRetries < 0 {
		return fmt.Errorf("invalid max_retries: %d", c.Gemini.MaxRetries)
	}
	if c.Render.TemplatePath == "" {
		return fmt.Errorf("render template path not configured")
	}
	return nil
}
