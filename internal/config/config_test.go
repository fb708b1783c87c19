package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output.Dir != "." {
		t.Errorf("Output.Dir = %q, want \".\"", cfg.Output.Dir)
	}
	if !cfg.Catalog.Enabled {
		t.Error("Catalog.Enabled = false, want true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
output:
  dir: /data/out
catalog:
  enabled: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Output.Dir != "/data/out" {
		t.Errorf("Output.Dir = %q, want /data/out", cfg.Output.Dir)
	}
	if cfg.Catalog.Enabled {
		t.Error("Catalog.Enabled = true, want false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile() on missing file succeeded, want error")
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: trace\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	// Unspecified sections keep their defaults.
	if cfg.Output.Dir != "." {
		t.Errorf("Output.Dir = %q, want \".\"", cfg.Output.Dir)
	}
	if cfg.Logging.Level != "trace" {
		t.Errorf("Logging.Level = %q, want trace", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ToolConfig)
		wantErr bool
	}{
		{"valid", func(c *ToolConfig) {}, false},
		{"empty output dir", func(c *ToolConfig) { c.Output.Dir = "" }, true},
		{"catalog enabled without path", func(c *ToolConfig) { c.Catalog.Path = "" }, true},
		{"catalog disabled without path", func(c *ToolConfig) { c.Catalog.Enabled = false; c.Catalog.Path = "" }, false},
		{"bad log level", func(c *ToolConfig) { c.Logging.Level = "verbose" }, true},
		{"empty log level", func(c *ToolConfig) { c.Logging.Level = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if cfg.Catalog.Path == "" {
				cfg.Catalog.Path = "/tmp/catalog.db"
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYNGEN_OUTPUT_DIR", "/env/out")
	t.Setenv("SYNGEN_CATALOG_ENABLED", "false")
	t.Setenv("SYNGEN_LOG_LEVEL", "debug")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Output.Dir != "/env/out" {
		t.Errorf("Output.Dir = %q, want /env/out", cfg.Output.Dir)
	}
	if cfg.Catalog.Enabled {
		t.Error("Catalog.Enabled = true, want false after override")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}
