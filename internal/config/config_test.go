// File path: internal/config/config_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DOCQA_CONFIG_FILE", "")
	t.Setenv("DOCQA_ADDR", "")
	t.Setenv("DOCQA_CATALOG_PATH", "")
	t.Setenv("DOCQA_UPLOAD_LIMIT", "")
	t.Setenv("DOCQA_LOCAL_PROVIDER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" {
		t.Fatalf("unexpected default addr %q", cfg.Addr)
	}
	if cfg.CatalogPath != filepath.Join("data", "catalog.db") {
		t.Fatalf("unexpected default catalog path %q", cfg.CatalogPath)
	}
	if cfg.UploadLimit != 64<<20 {
		t.Fatalf("unexpected default upload limit %d", cfg.UploadLimit)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DOCQA_LOCAL_PROVIDER", "")
	t.Setenv("DOCQA_CONFIG_FILE", "")

	_, err := Load()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Setting != "OPENAI_API_KEY" {
		t.Fatalf("unexpected setting %q", cfgErr.Setting)
	}
}

func TestLoadLocalProviderSkipsKeyCheck(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DOCQA_CONFIG_FILE", "")
	t.Setenv("DOCQA_LOCAL_PROVIDER", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.LocalProvider {
		t.Fatal("expected local provider enabled")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(file, []byte(`{"addr": ":9000", "catalog_path": "/tmp/file.db"}`), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DOCQA_CONFIG_FILE", file)
	t.Setenv("DOCQA_ADDR", ":9999")
	t.Setenv("DOCQA_CATALOG_PATH", "")
	t.Setenv("DOCQA_UPLOAD_LIMIT", "")
	t.Setenv("DOCQA_LOCAL_PROVIDER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected env to win over file, got %q", cfg.Addr)
	}
	if cfg.CatalogPath != "/tmp/file.db" {
		t.Fatalf("expected file value to survive, got %q", cfg.CatalogPath)
	}
}

func TestLoadInvalidUploadLimit(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DOCQA_CONFIG_FILE", "")
	t.Setenv("DOCQA_UPLOAD_LIMIT", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a non-numeric upload limit")
	}
}
