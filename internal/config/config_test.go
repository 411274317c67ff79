package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.ArchiveURL)
	assert.Equal(t, "data/ibtracs.csv", cfg.ArchivePath)
	assert.Equal(t, 15*time.Minute, cfg.DownloadTimeout)
	assert.Equal(t, BackendSQL, cfg.StoreBackend)
	assert.Equal(t, "sqlite", cfg.SQLDriver)
	assert.Equal(t, "data/storms.db", cfg.SQLDSN)
	assert.Equal(t, "data/json", cfg.DocRoot)
	assert.Equal(t, "atcf,hurdat_atl,hurdat_epa,cphc,tokyo,reunion,bom,nadi,wellington,newdelhi", cfg.Precedence.String())
	assert.False(t, cfg.StrictParse)
	assert.Equal(t, 4, cfg.BuildWorkers)
	assert.True(t, cfg.SubtropicalACE)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("ARCHIVE_URL", "https://example.com/tracks.csv")
	t.Setenv("ARCHIVE_PATH", "/tmp/tracks.csv")
	t.Setenv("DOWNLOAD_TIMEOUT", "1m")
	t.Setenv("STORE_BACKEND", "docdir")
	t.Setenv("SQL_DRIVER", "postgres")
	t.Setenv("SQL_DSN", "postgres://localhost/storms?sslmode=disable")
	t.Setenv("DOC_ROOT", "/tmp/json")
	t.Setenv("MERGE_PRECEDENCE", "tokyo,atcf")
	t.Setenv("PARSE_STRICT", "true")
	t.Setenv("BUILD_WORKERS", "16")
	t.Setenv("ACE_SUBTROPICAL", "false")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/tracks.csv", cfg.ArchiveURL)
	assert.Equal(t, "/tmp/tracks.csv", cfg.ArchivePath)
	assert.Equal(t, time.Minute, cfg.DownloadTimeout)
	assert.Equal(t, BackendDocDir, cfg.StoreBackend)
	assert.Equal(t, "postgres", cfg.SQLDriver)
	assert.Equal(t, "postgres://localhost/storms?sslmode=disable", cfg.SQLDSN)
	assert.Equal(t, "/tmp/json", cfg.DocRoot)
	assert.Equal(t, "tokyo,atcf", cfg.Precedence.String())
	assert.True(t, cfg.StrictParse)
	assert.Equal(t, 16, cfg.BuildWorkers)
	assert.False(t, cfg.SubtropicalACE)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidWorkers(t *testing.T) {
	for _, bad := range []string{"0", "65", "many"} {
		t.Run(bad, func(t *testing.T) {
			t.Setenv("BUILD_WORKERS", bad)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "BUILD_WORKERS")
		})
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "s3")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("SQL_DRIVER", "oracle")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQL_DRIVER")
}

func TestLoad_InvalidPrecedence(t *testing.T) {
	t.Setenv("MERGE_PRECEDENCE", "atcf,jtwc")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MERGE_PRECEDENCE")
}

func TestLoad_InvalidStrictFlag(t *testing.T) {
	t.Setenv("PARSE_STRICT", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARSE_STRICT")
}
