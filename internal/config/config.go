// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags or environment variables.
type Config struct {
	// APIBase is the backend base URL, including the /api prefix.
	APIBase string `json:"api_base,omitempty"`
	// Email pre-fills the login prompt.
	Email string `json:"email,omitempty"`
	// OutputDir is where PDF and markdown downloads land.
	OutputDir string `json:"output_dir,omitempty"`
	// StatePath overrides where the session state file lives.
	StatePath string `json:"state_path,omitempty"`
	// TimeoutSeconds bounds each API request.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	// Verbose enables debug logging.
	Verbose bool `json:"verbose,omitempty"`
}

// DefaultPath returns the conventional config file location. Falls back to
// the working directory when the user config dir is unavailable.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "resumeforge.json"
	}
	return filepath.Join(dir, "resumeforge", "config.json")
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// LoadOptional loads the config at path, treating a missing file as an
// empty config. Used for the default location, which most users never
// create.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadConfig(path)
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.APIBase != "" {
		u, err := url.Parse(c.APIBase)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'api_base' is not a valid URL: %s", c.APIBase)
		}
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}
	if c.OutputDir != "" {
		if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: 'output_dir' is not a directory: %s", c.OutputDir)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags and environment variables.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIBase == "" {
		result.APIBase = defaults.APIBase
	}
	if result.Email == "" {
		result.Email = defaults.Email
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.StatePath == "" {
		result.StatePath = defaults.StatePath
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
