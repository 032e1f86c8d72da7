package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NAS_PATH", "/mnt/nas/photos")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if cfg.ThumbBackend != "local" {
		t.Errorf("ThumbBackend = %q", cfg.ThumbBackend)
	}
	if cfg.ScanRetryAttempts != 3 {
		t.Errorf("ScanRetryAttempts = %d", cfg.ScanRetryAttempts)
	}
	if cfg.ScanRetryDelay != time.Second {
		t.Errorf("ScanRetryDelay = %v", cfg.ScanRetryDelay)
	}
	if !cfg.WatchEnabled {
		t.Error("WatchEnabled should default to true")
	}
}

func TestLoadRequiresNASPath(t *testing.T) {
	t.Setenv("NAS_PATH", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when NAS_PATH is unset")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("NAS_PATH", "/mnt/nas/photos")
	t.Setenv("THUMB_BACKEND", "ftp")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown THUMB_BACKEND")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NAS_PATH", "/mnt/nas/photos")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("SCAN_RETRY_ATTEMPTS", "5")
	t.Setenv("SCAN_RETRY_DELAY", "250ms")
	t.Setenv("WATCH_ENABLED", "false")
	t.Setenv("THUMB_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "my-thumbs")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ScanRetryAttempts != 5 {
		t.Errorf("ScanRetryAttempts = %d", cfg.ScanRetryAttempts)
	}
	if cfg.ScanRetryDelay != 250*time.Millisecond {
		t.Errorf("ScanRetryDelay = %v", cfg.ScanRetryDelay)
	}
	if cfg.WatchEnabled {
		t.Error("WatchEnabled should be false")
	}
	if cfg.S3Bucket != "my-thumbs" {
		t.Errorf("S3Bucket = %q", cfg.S3Bucket)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("NAS_PATH", "/mnt/nas/photos")
	t.Setenv("SCAN_RETRY_ATTEMPTS", "lots")
	t.Setenv("WATCH_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScanRetryAttempts != 3 {
		t.Errorf("malformed int should fall back to default, got %d", cfg.ScanRetryAttempts)
	}
	if !cfg.WatchEnabled {
		t.Error("malformed bool should fall back to default")
	}
}
