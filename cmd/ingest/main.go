// Command ingest builds the storm collection from a local archive CSV
// and persists the snapshot to the configured store backend.
//
// Configuration comes from the environment (see internal/config); a
// .env file in the working directory is honored. Fetch the archive
// first with cmd/fetch, or generate a synthetic one with cmd/genmock.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-track-archive/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/config"
	"github.com/couchcryptid/storm-track-archive/internal/observability"
	"github.com/couchcryptid/storm-track-archive/internal/pipeline"
	"github.com/couchcryptid/storm-track-archive/internal/store"
)

// maxRowErrors caps how many malformed rows get their own log line.
const maxRowErrors = 20

type snapshotSaver interface {
	Save(ctx context.Context, c *archive.Collection) error
}

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

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	reader, err := csvfile.Open(cfg.ArchivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	builder := pipeline.New(cfg.Precedence, cfg.StrictParse, cfg.BuildWorkers, logger, metrics)
	collection, report, err := builder.Build(ctx, reader)
	if err != nil {
		return err
	}

	// The build logs malformed rows at debug; surface the first few for
	// the operator so a bad archive is diagnosable from default logs.
	for i, rowErr := range report.RowErrors {
		if i == maxRowErrors {
			logger.Warn("further malformed rows omitted", "total", report.RowsMalformed)
			break
		}
		logger.Warn("malformed row skipped", "error", rowErr)
	}

	var st snapshotSaver
	switch cfg.StoreBackend {
	case config.BackendSQL:
		sqlStore, err := store.NewSQL(ctx, cfg.SQLDriver, cfg.SQLDSN, logger, metrics)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer sqlStore.Close()
		st = sqlStore
	case config.BackendDocDir:
		st = store.NewDocDir(cfg.DocRoot, logger, metrics)
	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if err := st.Save(ctx, collection); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	logger.Info("ingest complete",
		"backend", cfg.StoreBackend,
		"storms", collection.Len(),
		"rows_read", report.RowsRead,
		"rows_malformed", report.RowsMalformed,
		"storms_failed", report.StormsFailed,
		"duplicates_dropped", report.DuplicatesDropped,
		"elapsed", report.Elapsed,
	)
	return nil
}
