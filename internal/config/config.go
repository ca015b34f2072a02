// Package config loads Lumina configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all Lumina configuration.
type Config struct {
	Name string `yaml:"name"`

	// Gemini configures the generation gateway.
	Gemini GeminiConfig `yaml:"gemini"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// GeminiConfig configures the generation gateway.
type GeminiConfig struct {
	APIKey      string  `yaml:"api_key"`
	ChatModel   string  `yaml:"chat_model"`
	ImageModel  string  `yaml:"image_model"`
	Temperature float32 `yaml:"temperature"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Dir     string `yaml:"dir"`
	Verbose bool   `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Name: "lumina",
		Gemini: GeminiConfig{
			ChatModel:   "gemini-2.5-flash",
			ImageModel:  "imagen-4.0-generate-001",
			Temperature: 0.7,
		},
	}
}

// Load reads the config file at path, falling back to defaults when
// the file does not exist, then applies environment overrides.
// GEMINI_API_KEY always wins over the file value.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	if cfg.Gemini.ChatModel == "" {
		cfg.Gemini.ChatModel = Default().Gemini.ChatModel
	}
	if cfg.Gemini.ImageModel == "" {
		cfg.Gemini.ImageModel = Default().Gemini.ImageModel
	}

	return cfg, nil
}
