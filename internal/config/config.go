// File path: internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ConfigError reports a missing or invalid startup setting. It is fatal: the
// process must not begin serving when Load returns one.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Setting, e.Reason)
}

// Config carries the service-level settings. Vector-store and provider
// packages load their own configuration; Load only validates that the
// credentials they require are present before the server starts.
type Config struct {
	Addr          string `json:"addr"`
	CatalogPath   string `json:"catalog_path"`
	UploadLimit   int64  `json:"upload_limit"`
	LocalProvider bool   `json:"local_provider"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Addr) != "" {
		result.Addr = strings.TrimSpace(override.Addr)
	}
	if strings.TrimSpace(override.CatalogPath) != "" {
		result.CatalogPath = strings.TrimSpace(override.CatalogPath)
	}
	if override.UploadLimit > 0 {
		result.UploadLimit = override.UploadLimit
	}
	if override.LocalProvider {
		result.LocalProvider = true
	}
	return result
}

// Load builds the service configuration from an optional JSON file overlaid
// with environment variables, then validates required credentials.
func Load() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("DOCQA_CONFIG_FILE")); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = ":8081"
	}
	if strings.TrimSpace(c.CatalogPath) == "" {
		c.CatalogPath = filepath.Join("data", "catalog.db")
	}
	if c.UploadLimit <= 0 {
		c.UploadLimit = 64 << 20
	}
}

func (c Config) validate() error {
	if c.LocalProvider {
		return nil
	}
	if strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) == "" {
		return &ConfigError{Setting: "OPENAI_API_KEY", Reason: "is required (set DOCQA_LOCAL_PROVIDER=true to run without a provider)"}
	}
	return nil
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, &ConfigError{Setting: "DOCQA_CONFIG_FILE", Reason: fmt.Sprintf("unreadable: %v", err)}
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigError{Setting: "DOCQA_CONFIG_FILE", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{}
	if addr := strings.TrimSpace(os.Getenv("DOCQA_ADDR")); addr != "" {
		cfg.Addr = addr
	}
	if path := strings.TrimSpace(os.Getenv("DOCQA_CATALOG_PATH")); path != "" {
		cfg.CatalogPath = path
	}
	if limit := strings.TrimSpace(os.Getenv("DOCQA_UPLOAD_LIMIT")); limit != "" {
		value, err := strconv.ParseInt(limit, 10, 64)
		if err != nil {
			return Config{}, &ConfigError{Setting: "DOCQA_UPLOAD_LIMIT", Reason: fmt.Sprintf("invalid: %v", err)}
		}
		if value > 0 {
			cfg.UploadLimit = value
		}
	}
	if local := strings.TrimSpace(os.Getenv("DOCQA_LOCAL_PROVIDER")); local != "" {
		parsed, err := strconv.ParseBool(local)
		if err != nil {
			return Config{}, &ConfigError{Setting: "DOCQA_LOCAL_PROVIDER", Reason: fmt.Sprintf("invalid: %v", err)}
		}
		cfg.LocalProvider = parsed
	}
	return cfg, nil
}
