// Package pipeline orchestrates the archive build: parse per-agency
// rows, merge them per storm, assemble tracks and produce a queryable
// collection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/domain"
	"github.com/couchcryptid/storm-track-archive/internal/observability"
)

// RowSource yields archive rows in file order and io.EOF when the
// source is exhausted.
type RowSource interface {
	Next() (domain.Row, error)
}

// Builder runs the row-to-collection build.
type Builder struct {
	precedence domain.Precedence
	strict     bool
	workers    int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Builder. In strict mode the first malformed row aborts
// the build instead of being skipped. Workers bounds the number of
// storms merged concurrently.
func New(precedence domain.Precedence, strict bool, workers int, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		precedence: precedence,
		strict:     strict,
		workers:    workers,
		logger:     logger,
		metrics:    metrics,
	}
}

// StormError records one storm the build rejected and why.
type StormError struct {
	SID string
	Err error
}

// Report summarizes one build. Malformed rows and rejected storms are
// collected here rather than failing the build; strict mode is the
// exception.
type Report struct {
	RowsRead          int
	RowsMalformed     int
	RowErrors         []*domain.MalformedRowError
	StormsBuilt       int
	StormsFailed      int
	StormErrors       []StormError
	DuplicatesDropped int
	Elapsed           time.Duration
}

// Build reads every row from the source and assembles the storm
// collection. The returned report is non-nil whenever the collection
// is. Row and storm failures are reported, not fatal; source I/O
// errors, strict-mode violations and context cancellation abort the
// build.
func (b *Builder) Build(ctx context.Context, src RowSource) (*archive.Collection, *Report, error) {
	start := time.Now()
	report := &Report{}
	b.logger.Info("build started", "workers", b.workers, "strict", b.strict, "precedence", b.precedence.String())

	groups, err := b.readRows(ctx, src, report)
	if err != nil {
		return nil, nil, err
	}

	storms, failures, err := b.buildStorms(ctx, groups)
	if err != nil {
		return nil, nil, err
	}
	report.StormsBuilt = len(storms)
	report.StormsFailed = len(failures)
	report.StormErrors = failures
	for _, failure := range failures {
		b.logger.Warn("storm rejected", "sid", failure.SID, "error", failure.Err)
		b.metrics.StormsFailed.Inc()
	}
	b.metrics.StormsBuilt.Add(float64(len(storms)))

	kept, dropped := archive.ResolveDuplicates(storms)
	report.DuplicatesDropped = len(dropped)
	for _, storm := range dropped {
		b.logger.Info("duplicate storm dropped", "sid", storm.SID, "name", storm.Name, "season", storm.Season)
	}
	b.metrics.DuplicatesDropped.Add(float64(len(dropped)))

	collection, err := archive.New(kept)
	if err != nil {
		return nil, nil, fmt.Errorf("build collection: %w", err)
	}

	report.Elapsed = time.Since(start)
	b.metrics.BuildDuration.Observe(report.Elapsed.Seconds())
	b.metrics.CollectionStorms.Set(float64(collection.Len()))
	b.metrics.CollectionObservations.Set(float64(countObservations(collection)))
	b.logger.Info("build finished",
		"rows_read", report.RowsRead,
		"rows_malformed", report.RowsMalformed,
		"storms_built", report.StormsBuilt,
		"storms_failed", report.StormsFailed,
		"duplicates_dropped", report.DuplicatesDropped,
		"elapsed", report.Elapsed,
	)
	return collection, report, nil
}

// readRows parses the whole source into per-storm observation groups.
// Rows stay grouped in file order so merge tie-breaking is stable.
func (b *Builder) readRows(ctx context.Context, src RowSource, report *Report) (map[string][]domain.Observation, error) {
	groups := make(map[string][]domain.Observation)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return groups, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		report.RowsRead++
		b.metrics.RowsRead.Inc()

		obs, err := domain.ParseRow(row)
		if err != nil {
			if b.strict {
				return nil, fmt.Errorf("strict parse: %w", err)
			}
			var malformedErr *domain.MalformedRowError
			if !errors.As(err, &malformedErr) {
				return nil, fmt.Errorf("parse row: %w", err)
			}
			report.RowsMalformed++
			report.RowErrors = append(report.RowErrors, malformedErr)
			b.metrics.RowsMalformed.Inc()
			b.logger.Debug("malformed row skipped", "error", malformedErr)
			continue
		}
		groups[obs.SID] = append(groups[obs.SID], obs)
	}
}

// buildStorms merges and assembles every storm group across the worker
// pool. Failures are per-storm; only cancellation aborts.
func (b *Builder) buildStorms(ctx context.Context, groups map[string][]domain.Observation) ([]*domain.Storm, []StormError, error) {
	sids := make([]string, 0, len(groups))
	for sid := range groups {
		sids = append(sids, sid)
	}
	sort.Strings(sids)

	var (
		mu       sync.Mutex
		storms   []*domain.Storm
		failures []StormError
		wg       sync.WaitGroup
	)
	jobs := make(chan string)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sid := range jobs {
				storm, err := buildStorm(groups[sid], b.precedence)
				mu.Lock()
				if err != nil {
					failures = append(failures, StormError{SID: sid, Err: err})
				} else {
					storms = append(storms, storm)
				}
				mu.Unlock()
			}
		}()
	}

	for _, sid := range sids {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, nil, ctx.Err()
		case jobs <- sid:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(storms, func(i, j int) bool { return storms[i].SID < storms[j].SID })
	sort.Slice(failures, func(i, j int) bool { return failures[i].SID < failures[j].SID })
	return storms, failures, nil
}

func buildStorm(observations []domain.Observation, prec domain.Precedence) (*domain.Storm, error) {
	id, canonical, err := domain.Merge(observations, prec)
	if err != nil {
		return nil, err
	}
	return domain.Assemble(id, canonical)
}

func countObservations(c *archive.Collection) int {
	total := 0
	for _, storm := range c.All() {
		total += storm.Points()
	}
	return total
}
