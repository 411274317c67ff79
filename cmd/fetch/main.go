// Command fetch downloads the upstream best-track archive CSV to the
// local path cmd/ingest reads from. When the upstream copy has not
// changed since the last download, the local file is kept as is.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-track-archive/internal/adapter/ncei"
	"github.com/couchcryptid/storm-track-archive/internal/config"
	"github.com/couchcryptid/storm-track-archive/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := ncei.NewClient(cfg.ArchiveURL, cfg.DownloadTimeout, logger)
	if _, err := client.Download(ctx, cfg.ArchivePath); err != nil {
		logger.Error("archive download failed", "error", err)
		os.Exit(1)
	}
}
