// Package config loads the host process configuration from YAML with
// environment overrides for credentials.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries everything the CLI and embedding hosts need to wire the
// pipeline. Zero values fall back to offline defaults: no database means
// the in-memory adapter, no redis means filesystem blobs.
type Config struct {
	DatabaseDSN string  `yaml:"database_dsn"`
	RedisAddr   string  `yaml:"redis_addr"`
	BlobDir     string  `yaml:"blob_dir"`
	RenderScale float64 `yaml:"render_scale"`
	LogLevel    string  `yaml:"log_level"`
}

// Default returns the offline defaults.
func Default() Config {
	return Config{
		BlobDir:     "blobs",
		RenderScale: 1.0,
		LogLevel:    "info",
	}
}

// Load reads path, falling back to defaults when it does not exist. The
// REPORTPDF_DATABASE_DSN and REPORTPDF_REDIS_ADDR environment variables
// override the file so credentials stay out of it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if dsn := os.Getenv("REPORTPDF_DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if addr := os.Getenv("REPORTPDF_REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.RenderScale <= 0 {
		return fmt.Errorf("render_scale must be positive, got %v", c.RenderScale)
	}
	if c.BlobDir == "" && c.RedisAddr == "" {
		return errors.New("either blob_dir or redis_addr must be set")
	}
	return nil
}
