package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/domain"
	"github.com/couchcryptid/storm-track-archive/internal/observability"
)

// SQL drivers the store accepts.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Timestamps are stored as archive-format TEXT in both drivers, so a
// snapshot written under sqlite reads identically under postgres.
const sqlSchema = `
CREATE TABLE IF NOT EXISTS storms (
	sid      TEXT PRIMARY KEY,
	atcf_id  TEXT NOT NULL,
	name     TEXT NOT NULL,
	season   INTEGER NOT NULL,
	basin    TEXT NOT NULL,
	subbasin TEXT NOT NULL,
	genesis  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_storms_name_season ON storms (name, season);
CREATE INDEX IF NOT EXISTS idx_storms_season_basin ON storms (season, basin);

CREATE TABLE IF NOT EXISTS observations (
	sid            TEXT NOT NULL REFERENCES storms (sid),
	obs_time       TEXT NOT NULL,
	lat            DOUBLE PRECISION NOT NULL,
	lon            DOUBLE PRECISION NOT NULL,
	wind           DOUBLE PRECISION,
	mslp           DOUBLE PRECISION,
	classification TEXT NOT NULL,
	basin          TEXT NOT NULL,
	subbasin       TEXT NOT NULL,
	r34_ne         DOUBLE PRECISION,
	r34_se         DOUBLE PRECISION,
	r34_sw         DOUBLE PRECISION,
	r34_nw         DOUBLE PRECISION,
	r50_ne         DOUBLE PRECISION,
	r50_se         DOUBLE PRECISION,
	r50_sw         DOUBLE PRECISION,
	r50_nw         DOUBLE PRECISION,
	r64_ne         DOUBLE PRECISION,
	r64_se         DOUBLE PRECISION,
	r64_sw         DOUBLE PRECISION,
	r64_nw         DOUBLE PRECISION,
	rmw            DOUBLE PRECISION,
	dist2land      DOUBLE PRECISION,
	speed          DOUBLE PRECISION,
	provenance     TEXT NOT NULL,
	PRIMARY KEY (sid, obs_time)
);

CREATE TABLE IF NOT EXISTS snapshot (
	id       INTEGER PRIMARY KEY,
	built_at TEXT NOT NULL
);
`

// SQLStore persists snapshots in a relational database, one row per
// storm and one per observation, so the archive stays queryable with
// plain SQL alongside the Load path.
type SQLStore struct {
	db      *sqlx.DB
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSQL opens the database, creates the schema when absent, and
// verifies connectivity. Driver is "sqlite" or "postgres".
func NewSQL(ctx context.Context, driver, dsn string, logger *slog.Logger, metrics *observability.Metrics) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLStore{db: db, logger: logger, metrics: metrics}, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

type stormRow struct {
	SID      string `db:"sid"`
	ATCFID   string `db:"atcf_id"`
	Name     string `db:"name"`
	Season   int    `db:"season"`
	Basin    string `db:"basin"`
	Subbasin string `db:"subbasin"`
	Genesis  string `db:"genesis"`
}

type obsRow struct {
	SID            string   `db:"sid"`
	Time           string   `db:"obs_time"`
	Lat            float64  `db:"lat"`
	Lon            float64  `db:"lon"`
	Wind           *float64 `db:"wind"`
	MSLP           *float64 `db:"mslp"`
	Classification string   `db:"classification"`
	Basin          string   `db:"basin"`
	Subbasin       string   `db:"subbasin"`
	R34NE          *float64 `db:"r34_ne"`
	R34SE          *float64 `db:"r34_se"`
	R34SW          *float64 `db:"r34_sw"`
	R34NW          *float64 `db:"r34_nw"`
	R50NE          *float64 `db:"r50_ne"`
	R50SE          *float64 `db:"r50_se"`
	R50SW          *float64 `db:"r50_sw"`
	R50NW          *float64 `db:"r50_nw"`
	R64NE          *float64 `db:"r64_ne"`
	R64SE          *float64 `db:"r64_se"`
	R64SW          *float64 `db:"r64_sw"`
	R64NW          *float64 `db:"r64_nw"`
	RMW            *float64 `db:"rmw"`
	DistToLand     *float64 `db:"dist2land"`
	Speed          *float64 `db:"speed"`
	Provenance     string   `db:"provenance"`
}

const insertStormSQL = `
INSERT INTO storms (sid, atcf_id, name, season, basin, subbasin, genesis)
VALUES (:sid, :atcf_id, :name, :season, :basin, :subbasin, :genesis)`

const insertObsSQL = `
INSERT INTO observations (
	sid, obs_time, lat, lon, wind, mslp, classification, basin, subbasin,
	r34_ne, r34_se, r34_sw, r34_nw, r50_ne, r50_se, r50_sw, r50_nw,
	r64_ne, r64_se, r64_sw, r64_nw, rmw, dist2land, speed, provenance
) VALUES (
	:sid, :obs_time, :lat, :lon, :wind, :mslp, :classification, :basin, :subbasin,
	:r34_ne, :r34_se, :r34_sw, :r34_nw, :r50_ne, :r50_se, :r50_sw, :r50_nw,
	:r64_ne, :r64_se, :r64_sw, :r64_nw, :rmw, :dist2land, :speed, :provenance
)`

// Save replaces the stored snapshot with the collection inside one
// transaction. Readers either see the old snapshot or the new one.
func (s *SQLStore) Save(ctx context.Context, c *archive.Collection) error {
	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"observations", "storms", "snapshot"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO snapshot (id, built_at) VALUES (?, ?)"), 1, formatTime(c.BuiltAt())); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	obsStmt, err := tx.PrepareNamedContext(ctx, insertObsSQL)
	if err != nil {
		return fmt.Errorf("prepare observation insert: %w", err)
	}
	defer obsStmt.Close()

	observations := 0
	for _, storm := range c.All() {
		if _, err := tx.NamedExecContext(ctx, insertStormSQL, stormToRow(storm)); err != nil {
			return fmt.Errorf("insert storm %s: %w", storm.SID, err)
		}
		for i := range storm.Times {
			row, err := obsToRow(storm, i)
			if err != nil {
				return err
			}
			if _, err := obsStmt.ExecContext(ctx, row); err != nil {
				return fmt.Errorf("insert observation %s %s: %w", storm.SID, row.Time, err)
			}
			observations++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.metrics.StoreDuration.WithLabelValues("sql", "save").Observe(time.Since(start).Seconds())
	s.logger.Info("snapshot saved", "backend", "sql", "storms", c.Len(), "observations", observations, "elapsed", time.Since(start))
	return nil
}

// Load rebuilds the stored snapshot. Observations are reassembled per
// storm, so track invariants are re-verified on the way in.
func (s *SQLStore) Load(ctx context.Context) (*archive.Collection, error) {
	start := time.Now()

	var builtAtRaw string
	err := s.db.GetContext(ctx, &builtAtRaw, s.db.Rebind("SELECT built_at FROM snapshot WHERE id = ?"), 1)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no snapshot stored")
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	builtAt, err := parseTime(builtAtRaw)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	var stormRows []stormRow
	if err := s.db.SelectContext(ctx, &stormRows, "SELECT sid, atcf_id, name, season, basin, subbasin, genesis FROM storms ORDER BY sid"); err != nil {
		return nil, fmt.Errorf("read storms: %w", err)
	}

	var obsRows []obsRow
	obsQuery := `SELECT sid, obs_time, lat, lon, wind, mslp, classification, basin, subbasin,
		r34_ne, r34_se, r34_sw, r34_nw, r50_ne, r50_se, r50_sw, r50_nw,
		r64_ne, r64_se, r64_sw, r64_nw, rmw, dist2land, speed, provenance
		FROM observations ORDER BY sid, obs_time`
	if err := s.db.SelectContext(ctx, &obsRows, obsQuery); err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}

	bySID := make(map[string][]domain.CanonicalObservation, len(stormRows))
	for _, row := range obsRows {
		obs, err := rowToObs(row)
		if err != nil {
			return nil, fmt.Errorf("observation %s %s: %w", row.SID, row.Time, err)
		}
		bySID[row.SID] = append(bySID[row.SID], obs)
	}

	storms := make([]*domain.Storm, 0, len(stormRows))
	for _, row := range stormRows {
		storm, err := reassemble(domain.Identity{SID: row.SID, ATCFID: row.ATCFID, Name: row.Name}, bySID[row.SID])
		if err != nil {
			return nil, err
		}
		storms = append(storms, storm)
	}

	collection, err := archive.Restore(storms, builtAt)
	if err != nil {
		return nil, err
	}
	s.metrics.StoreDuration.WithLabelValues("sql", "load").Observe(time.Since(start).Seconds())
	s.logger.Info("snapshot loaded", "backend", "sql", "storms", collection.Len(), "elapsed", time.Since(start))
	return collection, nil
}

func stormToRow(storm *domain.Storm) stormRow {
	return stormRow{
		SID:      storm.SID,
		ATCFID:   storm.ATCFID,
		Name:     storm.Name,
		Season:   storm.Season,
		Basin:    string(storm.Basin),
		Subbasin: string(storm.Subbasin),
		Genesis:  formatTime(storm.Genesis),
	}
}

func obsToRow(storm *domain.Storm, i int) (obsRow, error) {
	prov, err := json.Marshal(provenanceToWire(storm.Provenance[i]))
	if err != nil {
		return obsRow{}, fmt.Errorf("encode provenance %s: %w", storm.SID, err)
	}
	radii := storm.Radii[i]
	return obsRow{
		SID:            storm.SID,
		Time:           formatTime(storm.Times[i]),
		Lat:            storm.Lats[i],
		Lon:            storm.Lons[i],
		Wind:           storm.Winds[i],
		MSLP:           storm.Pressures[i],
		Classification: string(storm.Classifications[i]),
		Basin:          string(storm.Basins[i]),
		Subbasin:       string(storm.Subbasins[i]),
		R34NE:          radii.R34.NE,
		R34SE:          radii.R34.SE,
		R34SW:          radii.R34.SW,
		R34NW:          radii.R34.NW,
		R50NE:          radii.R50.NE,
		R50SE:          radii.R50.SE,
		R50SW:          radii.R50.SW,
		R50NW:          radii.R50.NW,
		R64NE:          radii.R64.NE,
		R64SE:          radii.R64.SE,
		R64SW:          radii.R64.SW,
		R64NW:          radii.R64.NW,
		RMW:            storm.RMWs[i],
		DistToLand:     storm.DistsToLand[i],
		Speed:          storm.Speeds[i],
		Provenance:     string(prov),
	}, nil
}

func rowToObs(row obsRow) (domain.CanonicalObservation, error) {
	ts, err := parseTime(row.Time)
	if err != nil {
		return domain.CanonicalObservation{}, err
	}
	var wire map[string]string
	if err := json.Unmarshal([]byte(row.Provenance), &wire); err != nil {
		return domain.CanonicalObservation{}, fmt.Errorf("decode provenance: %w", err)
	}
	prov, err := wireToProvenance(wire)
	if err != nil {
		return domain.CanonicalObservation{}, err
	}
	return domain.CanonicalObservation{
		Time:           ts,
		Lat:            row.Lat,
		Lon:            row.Lon,
		Wind:           row.Wind,
		Pressure:       row.MSLP,
		Classification: domain.Classification(row.Classification),
		Basin:          domain.Basin(row.Basin),
		Subbasin:       domain.Subbasin(row.Subbasin),
		Radii: domain.WindRadii{
			R34: domain.Quadrants{NE: row.R34NE, SE: row.R34SE, SW: row.R34SW, NW: row.R34NW},
			R50: domain.Quadrants{NE: row.R50NE, SE: row.R50SE, SW: row.R50SW, NW: row.R50NW},
			R64: domain.Quadrants{NE: row.R64NE, SE: row.R64SE, SW: row.R64SW, NW: row.R64NW},
		},
		RMW:        row.RMW,
		DistToLand: row.DistToLand,
		Provenance: prov,
	}, nil
}
