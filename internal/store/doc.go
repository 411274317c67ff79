package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/domain"
	"github.com/couchcryptid/storm-track-archive/internal/observability"
)

const manifestName = "collection.json"

// DocDirStore mirrors a snapshot as a directory tree of JSON
// documents, one per storm, laid out basin/season/name_sid.json. Every
// document embeds the field schema, so the files are readable without
// this codebase.
type DocDirStore struct {
	root    string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDocDir creates a document store rooted at the given directory.
// The directory is created on first save.
func NewDocDir(root string, logger *slog.Logger, metrics *observability.Metrics) *DocDirStore {
	return &DocDirStore{root: root, logger: logger, metrics: metrics}
}

type manifest struct {
	BuiltAt string `json:"built_at"`
	Storms  int    `json:"storms"`
}

type document struct {
	Schema map[string]domain.FieldInfo `json:"schema"`
	Storm  stormDoc                    `json:"storm"`
}

// stormDoc is the serialized storm. Absent values are explicit nulls
// so a round trip cannot confuse "missing" with zero.
type stormDoc struct {
	ID       string   `json:"id"`
	ATCFID   *string  `json:"atcf_id"`
	Name     string   `json:"name"`
	Season   int      `json:"season"`
	Basin    string   `json:"basin"`
	Subbasin string   `json:"subbasin"`
	Genesis  string   `json:"genesis"`
	Agencies []string `json:"agencies"`

	Times           []string   `json:"time"`
	Lats            []float64  `json:"lat"`
	Lons            []float64  `json:"lon"`
	Winds           []*float64 `json:"wind"`
	MSLPs           []*float64 `json:"mslp"`
	Classifications []string   `json:"classification"`
	Basins          []string   `json:"basins"`
	Subbasins       []string   `json:"subbasins"`
	Speeds          []*float64 `json:"speed"`

	R34NE []*float64 `json:"r34_ne"`
	R34SE []*float64 `json:"r34_se"`
	R34SW []*float64 `json:"r34_sw"`
	R34NW []*float64 `json:"r34_nw"`
	R50NE []*float64 `json:"r50_ne"`
	R50SE []*float64 `json:"r50_se"`
	R50SW []*float64 `json:"r50_sw"`
	R50NW []*float64 `json:"r50_nw"`
	R64NE []*float64 `json:"r64_ne"`
	R64SE []*float64 `json:"r64_se"`
	R64SW []*float64 `json:"r64_sw"`
	R64NW []*float64 `json:"r64_nw"`

	RMWs        []*float64          `json:"rmw"`
	DistsToLand []*float64          `json:"dist2land"`
	Provenance  []map[string]string `json:"provenance"`
}

// Save replaces the document tree with the collection. A non-empty
// root without a manifest is refused rather than clobbered: it was not
// written by this store.
func (d *DocDirStore) Save(ctx context.Context, c *archive.Collection) error {
	start := time.Now()
	if err := d.clearRoot(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", d.root, err)
	}

	m := manifest{BuiltAt: formatTime(c.BuiltAt()), Storms: c.Len()}
	if err := writeJSONFile(filepath.Join(d.root, manifestName), m); err != nil {
		return err
	}

	for _, storm := range c.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := filepath.Join(d.root, string(storm.Basin), strconv.Itoa(storm.Season))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		doc := document{Schema: domain.Schema, Storm: stormToDoc(storm)}
		if err := writeJSONFile(filepath.Join(dir, docFileName(storm)), doc); err != nil {
			return err
		}
	}

	d.metrics.StoreDuration.WithLabelValues("docdir", "save").Observe(time.Since(start).Seconds())
	d.logger.Info("snapshot saved", "backend", "docdir", "root", d.root, "storms", c.Len(), "elapsed", time.Since(start))
	return nil
}

// Load rebuilds the collection from the document tree.
func (d *DocDirStore) Load(ctx context.Context) (*archive.Collection, error) {
	start := time.Now()

	var m manifest
	if err := readJSONFile(filepath.Join(d.root, manifestName), &m); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no snapshot at %s", d.root)
		}
		return nil, err
	}
	builtAt, err := parseTime(m.BuiltAt)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	var storms []*domain.Storm
	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(path, ".json") || entry.Name() == manifestName {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		var doc document
		if err := readJSONFile(path, &doc); err != nil {
			return err
		}
		storm, err := docToStorm(doc.Storm)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		storms = append(storms, storm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(storms) != m.Storms {
		return nil, fmt.Errorf("manifest promises %d storms, found %d", m.Storms, len(storms))
	}

	collection, err := archive.Restore(storms, builtAt)
	if err != nil {
		return nil, err
	}
	d.metrics.StoreDuration.WithLabelValues("docdir", "load").Observe(time.Since(start).Seconds())
	d.logger.Info("snapshot loaded", "backend", "docdir", "root", d.root, "storms", collection.Len(), "elapsed", time.Since(start))
	return collection, nil
}

// clearRoot removes a previous snapshot. Only directories carrying a
// manifest (or empty ones) are fair game.
func (d *DocDirStore) clearRoot() error {
	entries, err := os.ReadDir(d.root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", d.root, err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(d.root, manifestName)); err != nil {
		return fmt.Errorf("%s is not empty and carries no %s; refusing to overwrite", d.root, manifestName)
	}
	return os.RemoveAll(d.root)
}

func docFileName(storm *domain.Storm) string {
	return strings.ToLower(storm.Name) + "_" + storm.SID + ".json"
}

func stormToDoc(storm *domain.Storm) stormDoc {
	doc := stormDoc{
		ID:       storm.SID,
		Name:     storm.Name,
		Season:   storm.Season,
		Basin:    string(storm.Basin),
		Subbasin: string(storm.Subbasin),
		Genesis:  formatTime(storm.Genesis),
		Winds:    storm.Winds,
		MSLPs:    storm.Pressures,
		Speeds:   storm.Speeds,
		RMWs:     storm.RMWs,

		DistsToLand: storm.DistsToLand,
	}
	if storm.ATCFID != "" {
		doc.ATCFID = &storm.ATCFID
	}
	for _, agency := range storm.Agencies {
		doc.Agencies = append(doc.Agencies, string(agency))
	}
	for i := range storm.Times {
		doc.Times = append(doc.Times, formatTime(storm.Times[i]))
		doc.Lats = append(doc.Lats, storm.Lats[i])
		doc.Lons = append(doc.Lons, storm.Lons[i])
		doc.Classifications = append(doc.Classifications, string(storm.Classifications[i]))
		doc.Basins = append(doc.Basins, string(storm.Basins[i]))
		doc.Subbasins = append(doc.Subbasins, string(storm.Subbasins[i]))
		radii := storm.Radii[i]
		doc.R34NE = append(doc.R34NE, radii.R34.NE)
		doc.R34SE = append(doc.R34SE, radii.R34.SE)
		doc.R34SW = append(doc.R34SW, radii.R34.SW)
		doc.R34NW = append(doc.R34NW, radii.R34.NW)
		doc.R50NE = append(doc.R50NE, radii.R50.NE)
		doc.R50SE = append(doc.R50SE, radii.R50.SE)
		doc.R50SW = append(doc.R50SW, radii.R50.SW)
		doc.R50NW = append(doc.R50NW, radii.R50.NW)
		doc.R64NE = append(doc.R64NE, radii.R64.NE)
		doc.R64SE = append(doc.R64SE, radii.R64.SE)
		doc.R64SW = append(doc.R64SW, radii.R64.SW)
		doc.R64NW = append(doc.R64NW, radii.R64.NW)
		doc.Provenance = append(doc.Provenance, provenanceToWire(storm.Provenance[i]))
	}
	return doc
}

func docToStorm(doc stormDoc) (*domain.Storm, error) {
	points := len(doc.Times)
	lengths := map[string]int{
		"lat": len(doc.Lats), "lon": len(doc.Lons), "wind": len(doc.Winds),
		"mslp": len(doc.MSLPs), "classification": len(doc.Classifications),
		"basins": len(doc.Basins), "subbasins": len(doc.Subbasins),
		"speed": len(doc.Speeds), "rmw": len(doc.RMWs), "dist2land": len(doc.DistsToLand),
		"provenance": len(doc.Provenance),
		"r34_ne":     len(doc.R34NE), "r34_se": len(doc.R34SE), "r34_sw": len(doc.R34SW), "r34_nw": len(doc.R34NW),
		"r50_ne": len(doc.R50NE), "r50_se": len(doc.R50SE), "r50_sw": len(doc.R50SW), "r50_nw": len(doc.R50NW),
		"r64_ne": len(doc.R64NE), "r64_se": len(doc.R64SE), "r64_sw": len(doc.R64SW), "r64_nw": len(doc.R64NW),
	}
	for field, n := range lengths {
		if n != points {
			return nil, fmt.Errorf("field %s has %d entries for %d observations", field, n, points)
		}
	}

	canonical := make([]domain.CanonicalObservation, points)
	for i := 0; i < points; i++ {
		ts, err := parseTime(doc.Times[i])
		if err != nil {
			return nil, err
		}
		prov, err := wireToProvenance(doc.Provenance[i])
		if err != nil {
			return nil, err
		}
		canonical[i] = domain.CanonicalObservation{
			Time:           ts,
			Lat:            doc.Lats[i],
			Lon:            doc.Lons[i],
			Wind:           doc.Winds[i],
			Pressure:       doc.MSLPs[i],
			Classification: domain.Classification(doc.Classifications[i]),
			Basin:          domain.Basin(doc.Basins[i]),
			Subbasin:       domain.Subbasin(doc.Subbasins[i]),
			Radii: domain.WindRadii{
				R34: domain.Quadrants{NE: doc.R34NE[i], SE: doc.R34SE[i], SW: doc.R34SW[i], NW: doc.R34NW[i]},
				R50: domain.Quadrants{NE: doc.R50NE[i], SE: doc.R50SE[i], SW: doc.R50SW[i], NW: doc.R50NW[i]},
				R64: domain.Quadrants{NE: doc.R64NE[i], SE: doc.R64SE[i], SW: doc.R64SW[i], NW: doc.R64NW[i]},
			},
			RMW:        doc.RMWs[i],
			DistToLand: doc.DistsToLand[i],
			Provenance: prov,
		}
	}

	id := domain.Identity{SID: doc.ID, Name: doc.Name}
	if doc.ATCFID != nil {
		id.ATCFID = *doc.ATCFID
	}
	return reassemble(id, canonical)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
