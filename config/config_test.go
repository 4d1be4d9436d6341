package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reportpdf.yaml")
	body := []byte("database_dsn: postgres://app@db/reports\nrender_scale: 1.5\nlog_level: debug\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDSN != "postgres://app@db/reports" || cfg.RenderScale != 1.5 || cfg.LogLevel != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
	// Unset fields keep their defaults.
	if cfg.BlobDir != "blobs" {
		t.Fatalf("blob dir = %q, want default", cfg.BlobDir)
	}
}

func TestLoadRejectsBadScale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("render_scale: -2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("want validation error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reportpdf.yaml")
	if err := os.WriteFile(path, []byte("database_dsn: postgres://file@db/x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("REPORTPDF_DATABASE_DSN", "postgres://env@db/y")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDSN != "postgres://env@db/y" {
		t.Fatalf("dsn = %q, want env override", cfg.DatabaseDSN)
	}
}
