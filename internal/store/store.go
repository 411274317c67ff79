// Package store persists collection snapshots and restores them
// bit-for-bit. Two backends exist: a relational store for deployments
// that query storms with SQL, and a document-directory store that
// mirrors the archive as self-describing JSON files.
//
// Both backends persist canonical observations plus storm identity and
// rebuild storms through the track assembler on load, so every derived
// attribute is recomputed by the same code that produced it and a
// loaded collection compares equal to the saved one.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

// Store saves and restores complete collection snapshots. Save
// replaces any previous snapshot wholesale; partial updates do not
// exist at this boundary.
type Store interface {
	Save(ctx context.Context, c *archive.Collection) error
	Load(ctx context.Context) (*archive.Collection, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(domain.TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", s)
	}
	return t, nil
}

// stormCanonicals converts an assembled storm back into the canonical
// observations it was built from.
func stormCanonicals(s *domain.Storm) []domain.CanonicalObservation {
	canonical := make([]domain.CanonicalObservation, s.Points())
	for i := range canonical {
		canonical[i] = domain.CanonicalObservation{
			Time:           s.Times[i],
			Lat:            s.Lats[i],
			Lon:            s.Lons[i],
			Wind:           s.Winds[i],
			Pressure:       s.Pressures[i],
			Classification: s.Classifications[i],
			Basin:          s.Basins[i],
			Subbasin:       s.Subbasins[i],
			Radii:          s.Radii[i],
			RMW:            s.RMWs[i],
			DistToLand:     s.DistsToLand[i],
			Provenance:     s.Provenance[i],
		}
	}
	return canonical
}

// reassemble rebuilds a storm from persisted identity and
// observations, re-running every track invariant on the way in.
func reassemble(id domain.Identity, canonical []domain.CanonicalObservation) (*domain.Storm, error) {
	storm, err := domain.Assemble(id, canonical)
	if err != nil {
		return nil, fmt.Errorf("storm %s: %w", id.SID, err)
	}
	return storm, nil
}

func provenanceToWire(p domain.Provenance) map[string]string {
	wire := make(map[string]string, len(p))
	for field, agency := range p {
		wire[string(field)] = string(agency)
	}
	return wire
}

func wireToProvenance(wire map[string]string) (domain.Provenance, error) {
	p := make(domain.Provenance, len(wire))
	for field, raw := range wire {
		agency, err := domain.ParseAgency(raw)
		if err != nil {
			return nil, fmt.Errorf("provenance for %s: %w", field, err)
		}
		p[domain.Field(field)] = agency
	}
	return p, nil
}

