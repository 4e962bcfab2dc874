package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Fatalf("unexpected address %s", cfg.Server.Address())
	}
	if cfg.Quota.DefaultStorageBytes != 10*1024*1024*1024 {
		t.Fatalf("unexpected default storage quota %d", cfg.Quota.DefaultStorageBytes)
	}
	if cfg.Share.LinkTTL != 15*time.Minute {
		t.Fatalf("unexpected share link ttl %s", cfg.Share.LinkTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SHAREDRIVE_API_PORT", "9090")
	t.Setenv("SHAREDRIVE_QUOTA_MAX_FILE_BYTES", "1048576")
	t.Setenv("MINIO_USE_SSL", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Quota.DefaultMaxFileBytes != 1048576 {
		t.Fatalf("expected per-file limit 1048576, got %d", cfg.Quota.DefaultMaxFileBytes)
	}
	if !cfg.MinIO.UseSSL {
		t.Fatalf("expected MinIO SSL enabled")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "app", Password: "pw", Database: "sharedrive", SSLMode: "disable"}
	want := "postgres://app:pw@db:5433/sharedrive?sslmode=disable"
	if got := p.DSN(); got != want {
		t.Fatalf("DSN mismatch: got %s want %s", got, want)
	}
}
