// Command validate runs end-to-end integrity checks over an archive
// CSV: it builds the collection, verifies per-storm track invariants,
// round-trips the snapshot through both store backends and spot-checks
// the query surface. Point it at a real download or at cmd/genmock
// output; a -dirty mock exercises the malformed-row paths too.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/archive.csv -dirty
//	go run ./cmd/validate -archive data/mock/archive.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/storm-track-archive/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/domain"
	"github.com/couchcryptid/storm-track-archive/internal/observability"
	"github.com/couchcryptid/storm-track-archive/internal/pipeline"
	"github.com/couchcryptid/storm-track-archive/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	archivePath := flag.String("archive", "", "path to the archive CSV to validate")
	flag.Parse()

	if *archivePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*archivePath); code != 0 {
		os.Exit(code)
	}
}

func run(archivePath string) int {
	fmt.Println("=== Storm Archive Integrity Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	ctx := context.Background()

	reader, err := csvfile.Open(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open archive: %v\n", err)
		return 1
	}
	defer reader.Close()

	builder := pipeline.New(domain.DefaultPrecedence(), false, 4, logger, metrics)
	collection, report, err := builder.Build(ctx, reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build: %v\n", err)
		return 1
	}

	workDir, err := os.MkdirTemp("", "storm-validate-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: temp dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(workDir)

	// ── Run validation phases ──
	phases := []*phase{
		validateBuild(report, collection),
		validateTracks(collection),
		validateSQLRoundTrip(ctx, workDir, collection, logger, metrics),
		validateDocRoundTrip(ctx, workDir, collection, logger, metrics),
		validateQueries(collection),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-38s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d read, %d malformed; storms: %d built, %d rejected, %d duplicates dropped; collection: %d\n",
		report.RowsRead, report.RowsMalformed, report.StormsBuilt, report.StormsFailed,
		report.DuplicatesDropped, collection.Len())

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Archive Build ──
// The build itself succeeded; check it produced something sane.

func validateBuild(report *pipeline.Report, c *archive.Collection) *phase {
	p := &phase{name: "Phase 1: Archive Build"}

	if report.RowsRead == 0 {
		p.errorf("archive yielded no rows")
	}
	if c.Len() == 0 {
		p.errorf("collection holds no storms")
	}
	if report.RowsMalformed > report.RowsRead/2 {
		p.errorf("more than half the rows are malformed (%d of %d)", report.RowsMalformed, report.RowsRead)
	}
	if report.StormsFailed > 0 {
		fmt.Printf("  Note: %d storm(s) rejected at build (expected for dirty archives)\n", report.StormsFailed)
	}
	return p
}

// ── Phase 2: Track Invariants ──
// Every assembled storm honors the track shape the rest of the system
// assumes: parallel series, a strictly increasing synoptic-grid clock,
// coordinates in range and derived attributes consistent with genesis.

func validateTracks(c *archive.Collection) *phase {
	p := &phase{name: "Phase 2: Track Invariants"}
	for _, storm := range c.All() {
		checkTrack(p, storm)
	}
	return p
}

func checkTrack(p *phase, storm *domain.Storm) {
	n := storm.Points()
	if n == 0 {
		p.errorf("%s: track has no points", storm.SID)
		return
	}
	series := []struct {
		name string
		len  int
	}{
		{"lats", len(storm.Lats)},
		{"lons", len(storm.Lons)},
		{"winds", len(storm.Winds)},
		{"pressures", len(storm.Pressures)},
		{"classifications", len(storm.Classifications)},
		{"basins", len(storm.Basins)},
		{"subbasins", len(storm.Subbasins)},
		{"radii", len(storm.Radii)},
		{"rmws", len(storm.RMWs)},
		{"dists_to_land", len(storm.DistsToLand)},
		{"speeds", len(storm.Speeds)},
		{"provenance", len(storm.Provenance)},
	}
	for _, s := range series {
		if s.len != n {
			p.errorf("%s: %s has %d entries for %d points", storm.SID, s.name, s.len, n)
		}
	}

	for i, ts := range storm.Times {
		if !ts.Equal(ts.Truncate(domain.SynopticInterval)) {
			p.errorf("%s: point %d at %s is off the synoptic grid", storm.SID, i, ts)
		}
		if i > 0 && !storm.Times[i-1].Before(ts) {
			p.errorf("%s: point %d at %s does not advance the clock", storm.SID, i, ts)
		}
	}
	for i := range storm.Lats {
		if storm.Lats[i] < -90 || storm.Lats[i] > 90 {
			p.errorf("%s: point %d latitude %v out of range", storm.SID, i, storm.Lats[i])
		}
		if storm.Lons[i] < 0 || storm.Lons[i] >= 360 {
			p.errorf("%s: point %d longitude %v outside [0,360)", storm.SID, i, storm.Lons[i])
		}
	}

	checkAttribution(p, storm)
	checkSpeeds(p, storm)
	checkProvenance(p, storm)
}

func checkAttribution(p *phase, storm *domain.Storm) {
	if storm.Name == "" {
		p.errorf("%s: empty name (placeholder expected)", storm.SID)
	}
	if !storm.Genesis.Equal(storm.Times[0]) {
		p.errorf("%s: genesis %s is not the first point %s", storm.SID, storm.Genesis, storm.Times[0])
	}
	if storm.Basin != storm.Basins[0] {
		p.errorf("%s: storm basin %s differs from genesis basin %s", storm.SID, storm.Basin, storm.Basins[0])
	}
	if storm.Subbasin != storm.Subbasins[0] {
		p.errorf("%s: storm subbasin %s differs from genesis subbasin %s", storm.SID, storm.Subbasin, storm.Subbasins[0])
	}

	want := storm.Genesis.Year()
	if storm.Basin.Southern() && storm.Genesis.Month() >= time.July {
		want++
	}
	if storm.Season != want {
		p.errorf("%s: season %d, want %d for %s genesis in %s", storm.SID, storm.Season, want, storm.Basin, storm.Genesis.Format("2006-01"))
	}
}

func checkSpeeds(p *phase, storm *domain.Storm) {
	if storm.Speeds[0] != nil {
		p.errorf("%s: first point carries a translation speed", storm.SID)
	}
	for i := 1; i < storm.Points(); i++ {
		gap := storm.Times[i].Sub(storm.Times[i-1])
		if gap > domain.SynopticInterval && storm.Speeds[i] != nil {
			p.errorf("%s: point %d has a speed across a %s gap", storm.SID, i, gap)
		}
		if storm.Speeds[i] != nil && *storm.Speeds[i] < 0 {
			p.errorf("%s: point %d has negative speed %v", storm.SID, i, *storm.Speeds[i])
		}
	}
}

func checkProvenance(p *phase, storm *domain.Storm) {
	contributors := make(map[domain.Agency]bool, len(storm.Agencies))
	for _, agency := range storm.Agencies {
		contributors[agency] = true
	}
	for i, prov := range storm.Provenance {
		for field, agency := range prov {
			if !contributors[agency] {
				p.errorf("%s: point %d field %s attributed to %s, absent from storm agencies", storm.SID, i, field, agency)
			}
		}
	}
}

// ── Phase 3: Relational Round Trip ──

func validateSQLRoundTrip(ctx context.Context, dir string, c *archive.Collection, logger *slog.Logger, metrics *observability.Metrics) *phase {
	p := &phase{name: "Phase 3: Relational Round Trip"}

	st, err := store.NewSQL(ctx, store.DriverSQLite, filepath.Join(dir, "storms.db"), logger, metrics)
	if err != nil {
		p.errorf("open store: %v", err)
		return p
	}
	defer st.Close()

	if err := st.Save(ctx, c); err != nil {
		p.errorf("save: %v", err)
		return p
	}
	loaded, err := st.Load(ctx)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	compareCollections(p, c, loaded)
	return p
}

// ── Phase 4: Document Round Trip ──

func validateDocRoundTrip(ctx context.Context, dir string, c *archive.Collection, logger *slog.Logger, metrics *observability.Metrics) *phase {
	p := &phase{name: "Phase 4: Document Round Trip"}

	st := store.NewDocDir(filepath.Join(dir, "json"), logger, metrics)
	if err := st.Save(ctx, c); err != nil {
		p.errorf("save: %v", err)
		return p
	}
	loaded, err := st.Load(ctx)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	compareCollections(p, c, loaded)
	return p
}

func compareCollections(p *phase, saved, loaded *archive.Collection) {
	if !saved.BuiltAt().Equal(loaded.BuiltAt()) {
		p.errorf("built-at drifted: saved %s, loaded %s", saved.BuiltAt(), loaded.BuiltAt())
	}
	if diff := cmp.Diff(saved.All(), loaded.All()); diff != "" {
		p.errorf("collection mismatch (-saved +loaded):\n%s", diff)
	}
}

// ── Phase 5: Query Surface ──

func validateQueries(c *archive.Collection) *phase {
	p := &phase{name: "Phase 5: Query Surface"}
	storms := c.All()
	if len(storms) == 0 {
		p.errorf("nothing to query")
		return p
	}

	first := storms[0]
	got, err := c.Get(first.SID)
	if err != nil {
		p.errorf("get %s: %v", first.SID, err)
	} else if got.SID != first.SID {
		p.errorf("get %s returned %s", first.SID, got.SID)
	}

	checkSeasonACE(p, c, storms)
	checkSelect(p, c, storms)
	checkFind(p, c, storms)
	return p
}

// checkSeasonACE exercises the aggregate scopes: the hemispheres
// partition the globe, so their totals must sum to the global one, and
// widening the policy to subtropical points never lowers a total.
func checkSeasonACE(p *phase, c *archive.Collection, storms []*domain.Storm) {
	seasons := make(map[int]bool)
	for _, storm := range storms {
		seasons[storm.Season] = true
	}
	for season := range seasons {
		global, err := c.SeasonACE(season, archive.ScopeGlobal, true)
		if err != nil {
			p.errorf("season %d global ace: %v", season, err)
			continue
		}
		north, err := c.SeasonACE(season, archive.ScopeNorthern, true)
		if err != nil {
			p.errorf("season %d northern ace: %v", season, err)
			continue
		}
		south, err := c.SeasonACE(season, archive.ScopeSouthern, true)
		if err != nil {
			p.errorf("season %d southern ace: %v", season, err)
			continue
		}
		if math.Abs(global-(north+south)) > 1e-9 {
			p.errorf("season %d: hemispheres sum to %g, global is %g", season, north+south, global)
		}
		strict, err := c.SeasonACE(season, archive.ScopeGlobal, false)
		if err != nil {
			p.errorf("season %d strict ace: %v", season, err)
			continue
		}
		if strict > global+1e-9 {
			p.errorf("season %d: excluding subtropical raised ace from %g to %g", season, global, strict)
		}
	}
}

func checkSelect(p *phase, c *archive.Collection, storms []*domain.Storm) {
	everywhere := domain.Box{LatMin: -90, LatMax: 90, LonMin: 0, LonMax: 360}
	if got := len(c.Select(archive.Filter{Box: &everywhere})); got != len(storms) {
		p.errorf("global box selected %d of %d storms", got, len(storms))
	}

	basins := append(append([]domain.Basin(nil), domain.NorthernBasins...), domain.SouthernBasins...)
	total := 0
	for _, basin := range basins {
		total += len(c.Select(archive.Filter{Basin: basin}))
	}
	if total != len(storms) {
		p.errorf("per-basin selects cover %d of %d storms", total, len(storms))
	}
}

// checkFind resolves every named storm by name, season and basin.
// Duplicates were dropped at build time, so a fully constrained lookup
// must land on exactly the storm it came from.
func checkFind(p *phase, c *archive.Collection, storms []*domain.Storm) {
	for _, storm := range storms {
		if storm.Name == domain.UnnamedStorm {
			continue
		}
		got, err := c.Find(storm.Name, storm.Season, storm.Basin)
		if err != nil {
			p.errorf("find %s/%d/%s: %v", storm.Name, storm.Season, storm.Basin, err)
			continue
		}
		if got.SID != storm.SID {
			p.errorf("find %s/%d/%s returned %s, want %s", storm.Name, storm.Season, storm.Basin, got.SID, storm.SID)
		}
	}
}
