// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all gallery server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// NAS source
	NASPath      string
	WatchEnabled bool

	// Scanner
	ScanRetryAttempts int
	ScanRetryDelay    time.Duration

	// Processing
	ProcessWorkers int

	// Thumbnail storage backend ("local" or "s3", default: "local")
	ThumbBackend string
	ThumbPath    string

	// S3 (used when ThumbBackend == "s3")
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr:       envOr("METRICS_ADDR", ":9090"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		LogFormat:         envOr("LOG_FORMAT", "json"),
		NASPath:           envOr("NAS_PATH", ""),
		WatchEnabled:      envBool("WATCH_ENABLED", true),
		ScanRetryAttempts: envInt("SCAN_RETRY_ATTEMPTS", 3),
		ScanRetryDelay:    envDuration("SCAN_RETRY_DELAY", time.Second),
		ProcessWorkers:    envInt("SCAN_WORKERS", 2),
		ThumbBackend:      envOr("THUMB_BACKEND", "local"),
		ThumbPath:         envOr("THUMB_PATH", "/data/thumbs"),
		S3Endpoint:        envOr("S3_ENDPOINT", "http://localhost:9000"),
		S3Bucket:          envOr("S3_BUCKET", "gallery-thumbs"),
		S3AccessKey:       envOr("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:       envOr("S3_SECRET_KEY", "minioadmin"),
		S3Region:          envOr("S3_REGION", "us-east-1"),
		S3UseSSL:          envBool("S3_USE_SSL", false),
	}

	if cfg.NASPath == "" {
		return nil, fmt.Errorf("NAS_PATH is required")
	}
	if cfg.ThumbBackend != "local" && cfg.ThumbBackend != "s3" {
		return nil, fmt.Errorf("THUMB_BACKEND must be \"local\" or \"s3\", got %q", cfg.ThumbBackend)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
