// Package config provides unified configuration loading for syngen.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ToolConfig contains all syngen tool settings. Dataset definitions are not
// part of it; those load per run from definition files.
type ToolConfig struct {
	// Output contains settings for where generated CSVs land.
	Output OutputConfig `json:"output" yaml:"output"`

	// Catalog contains settings for the run catalog database.
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// OutputConfig configures generated file placement.
type OutputConfig struct {
	// Dir is the directory generated CSV files are written to.
	// Defaults to the current directory.
	Dir string `json:"dir" yaml:"dir"`
}

// CatalogConfig configures the run catalog.
type CatalogConfig struct {
	// Enabled turns run recording on. When off, generation still works but
	// leaves no catalog entry.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database location. Defaults to ~/.syngen/catalog.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures syngen's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables pipeline tracing to ~/.syngen/trace.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a ToolConfig with sensible defaults.
func Default() *ToolConfig {
	cfg := &ToolConfig{
		Output: OutputConfig{
			Dir: ".",
		},
		Catalog: CatalogConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Catalog.Path = filepath.Join(home, ".syngen", "catalog.db")
	}
	return cfg
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.syngen/config.yaml -> environment variables
func Load() (*ToolConfig, error) {
	config := Default()

	// Try to load from default config file
	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".syngen", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*ToolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *ToolConfig) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}

	if c.Catalog.Enabled && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required when the catalog is enabled")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *ToolConfig) {
	if v := os.Getenv("SYNGEN_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}

	if v := os.Getenv("SYNGEN_CATALOG_PATH"); v != "" {
		config.Catalog.Path = v
	}

	if v := os.Getenv("SYNGEN_CATALOG_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Catalog.Enabled = b
		}
	}

	if v := os.Getenv("SYNGEN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
