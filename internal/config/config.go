package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

// Store backends.
const (
	BackendSQL    = "sql"
	BackendDocDir = "docdir"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ArchiveURL      string
	ArchivePath     string
	DownloadTimeout time.Duration

	StoreBackend string
	SQLDriver    string
	SQLDSN       string
	DocRoot      string

	Precedence     domain.Precedence
	StrictParse    bool
	BuildWorkers   int
	SubtropicalACE bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := parseDuration("DOWNLOAD_TIMEOUT", "15m")
	if err != nil {
		return nil, err
	}
	strict, err := parseBool("PARSE_STRICT", false)
	if err != nil {
		return nil, err
	}
	subtropical, err := parseBool("ACE_SUBTROPICAL", true)
	if err != nil {
		return nil, err
	}
	workers, err := parseWorkers()
	if err != nil {
		return nil, err
	}

	// An unset precedence list falls back to the default ranking; a set
	// but unparsable one is a hard error, never a silent fallback.
	precedence := domain.DefaultPrecedence()
	if raw := os.Getenv("MERGE_PRECEDENCE"); raw != "" {
		precedence, err = domain.ParsePrecedence(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MERGE_PRECEDENCE: %w", err)
		}
	}

	cfg := &Config{
		ArchiveURL:      os.Getenv("ARCHIVE_URL"),
		ArchivePath:     envOrDefault("ARCHIVE_PATH", "data/ibtracs.csv"),
		DownloadTimeout: downloadTimeout,

		StoreBackend: envOrDefault("STORE_BACKEND", BackendSQL),
		SQLDriver:    envOrDefault("SQL_DRIVER", "sqlite"),
		SQLDSN:       envOrDefault("SQL_DSN", "data/storms.db"),
		DocRoot:      envOrDefault("DOC_ROOT", "data/json"),

		Precedence:     precedence,
		StrictParse:    strict,
		BuildWorkers:   workers,
		SubtropicalACE: subtropical,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	switch cfg.StoreBackend {
	case BackendSQL, BackendDocDir:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q, want sql or docdir", cfg.StoreBackend)
	}
	if cfg.SQLDriver != "sqlite" && cfg.SQLDriver != "postgres" {
		return nil, fmt.Errorf("invalid SQL_DRIVER %q, want sqlite or postgres", cfg.SQLDriver)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func parseWorkers() (int, error) {
	raw := envOrDefault("BUILD_WORKERS", "4")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 64 {
		return 0, fmt.Errorf("invalid BUILD_WORKERS %q, want 1..64", raw)
	}
	return n, nil
}
