// Command serve exposes the most recent archive snapshot over HTTP.
//
// The snapshot is loaded once at startup from the configured store
// backend; run cmd/ingest first to build one.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/storm-track-archive/internal/adapter/http"
	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/config"
	"github.com/couchcryptid/storm-track-archive/internal/observability"
	"github.com/couchcryptid/storm-track-archive/internal/store"
)

type staticProvider struct {
	collection *archive.Collection
}

func (p staticProvider) Collection() *archive.Collection { return p.collection }

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collection, err := loadSnapshot(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to load snapshot", "error", err)
		os.Exit(1)
	}
	logger.Info("snapshot loaded", "storms", collection.Len(), "built_at", collection.BuiltAt())

	srv := httpadapter.NewServer(cfg.HTTPAddr, staticProvider{collection: collection}, cfg.SubtropicalACE, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func loadSnapshot(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*archive.Collection, error) {
	switch cfg.StoreBackend {
	case config.BackendSQL:
		sqlStore, err := store.NewSQL(ctx, cfg.SQLDriver, cfg.SQLDSN, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		defer sqlStore.Close()
		return sqlStore.Load(ctx)
	case config.BackendDocDir:
		return store.NewDocDir(cfg.DocRoot, logger, metrics).Load(ctx)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
