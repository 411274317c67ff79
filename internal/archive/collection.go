// Package archive holds the queryable in-memory form of the processed
// best-track data: an immutable collection of assembled storms with
// name/identifier lookups and season aggregates.
package archive

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

// Aggregate scopes for season queries. A bare basin code is also a
// valid scope.
const (
	ScopeGlobal   = "global"
	ScopeNorthern = "NHEM"
	ScopeSouthern = "SHEM"
)

// Collection is an immutable snapshot of assembled storms, ordered by
// SID. Queries never mutate it, so it is safe for concurrent readers.
type Collection struct {
	storms  []*domain.Storm
	bySID   map[string]*domain.Storm
	builtAt time.Time
}

// New builds a collection from assembled storms, stamping it with the
// current build time. Storms are reordered by SID; input order never
// leaks into query results.
func New(storms []*domain.Storm) (*Collection, error) {
	return Restore(storms, clock.Now().UTC().Truncate(time.Second))
}

// Restore builds a collection carrying an existing build timestamp.
// Persistence backends use it so a loaded snapshot equals the saved
// one.
func Restore(storms []*domain.Storm, builtAt time.Time) (*Collection, error) {
	sorted := make([]*domain.Storm, len(storms))
	copy(sorted, storms)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SID < sorted[j].SID })

	bySID := make(map[string]*domain.Storm, len(sorted))
	for _, storm := range sorted {
		if _, dup := bySID[storm.SID]; dup {
			return nil, fmt.Errorf("collection: duplicate storm %s", storm.SID)
		}
		bySID[storm.SID] = storm
	}
	return &Collection{storms: sorted, bySID: bySID, builtAt: builtAt.UTC()}, nil
}

// Len returns the number of storms in the collection.
func (c *Collection) Len() int { return len(c.storms) }

// BuiltAt returns when this snapshot was assembled.
func (c *Collection) BuiltAt() time.Time { return c.builtAt }

// All returns every storm in SID order. The slice is the caller's; the
// storms are shared and must not be mutated.
func (c *Collection) All() []*domain.Storm {
	return append([]*domain.Storm(nil), c.storms...)
}

// Get returns the storm with the exact serial identifier.
func (c *Collection) Get(sid string) (*domain.Storm, error) {
	if storm, ok := c.bySID[sid]; ok {
		return storm, nil
	}
	return nil, &NotFoundError{Query: fmt.Sprintf("sid %q", sid)}
}

// Find looks a storm up by name, case-insensitively. Season and basin
// narrow the match when non-zero; names repeat across seasons and
// basins, so an under-constrained lookup can fail with
// *AmbiguousMatchError listing the candidate SIDs.
func (c *Collection) Find(name string, season int, basin domain.Basin) (*domain.Storm, error) {
	if name == "" {
		return nil, fmt.Errorf("find: empty storm name")
	}
	want := strings.ToUpper(name)

	var matches []*domain.Storm
	for _, storm := range c.storms {
		if storm.Name != want {
			continue
		}
		if season != 0 && storm.Season != season {
			continue
		}
		if basin != "" && storm.Basin != basin {
			continue
		}
		matches = append(matches, storm)
	}

	query := describeQuery(want, season, basin)
	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Query: query}
	case 1:
		return matches[0], nil
	default:
		sids := make([]string, len(matches))
		for i, storm := range matches {
			sids[i] = storm.SID
		}
		return nil, &AmbiguousMatchError{Query: query, SIDs: sids}
	}
}

func describeQuery(name string, season int, basin domain.Basin) string {
	parts := []string{fmt.Sprintf("name %q", name)}
	if season != 0 {
		parts = append(parts, fmt.Sprintf("season %d", season))
	}
	if basin != "" {
		parts = append(parts, fmt.Sprintf("basin %s", basin))
	}
	return strings.Join(parts, ", ")
}

// Filter narrows a Select. Zero values leave a dimension
// unconstrained.
type Filter struct {
	Season int
	Basin  domain.Basin
	Name   string

	// Classification keeps storms that carried the classification at
	// any observation.
	Classification domain.Classification

	// Box keeps storms with at least one observed position inside it.
	Box *domain.Box
}

// Select returns the storms matching every set filter dimension, in
// SID order.
func (c *Collection) Select(f Filter) []*domain.Storm {
	want := strings.ToUpper(f.Name)
	var matches []*domain.Storm
	for _, storm := range c.storms {
		if f.Season != 0 && storm.Season != f.Season {
			continue
		}
		if f.Basin != "" && storm.Basin != f.Basin {
			continue
		}
		if want != "" && storm.Name != want {
			continue
		}
		if f.Classification != "" && !hasClassification(storm, f.Classification) {
			continue
		}
		if f.Box != nil && !storm.IntersectsBox(*f.Box) {
			continue
		}
		matches = append(matches, storm)
	}
	return matches
}

func hasClassification(storm *domain.Storm, class domain.Classification) bool {
	for _, c := range storm.Classifications {
		if c == class {
			return true
		}
	}
	return false
}

// SeasonACE sums accumulated cyclone energy over one season's storms.
// Scope is "global", "NHEM", "SHEM" or a single basin code. A global
// season mixes hemispheres: the 2005 global total includes southern
// storms of the 2005 season, which began in July 2004.
func (c *Collection) SeasonACE(season int, scope string, includeSubtropical bool) (float64, error) {
	basins, err := scopeBasins(scope)
	if err != nil {
		return 0, err
	}
	ace := 0.0
	for _, storm := range c.Select(Filter{Season: season}) {
		if basins != nil && !basinIn(storm.Basin, basins) {
			continue
		}
		ace += storm.ACE(includeSubtropical)
	}
	return ace, nil
}

func scopeBasins(scope string) ([]domain.Basin, error) {
	switch scope {
	case "", ScopeGlobal:
		return nil, nil
	case ScopeNorthern:
		return domain.NorthernBasins, nil
	case ScopeSouthern:
		return domain.SouthernBasins, nil
	}
	basin, err := domain.ParseBasin(scope)
	if err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}
	return []domain.Basin{basin}, nil
}

func basinIn(basin domain.Basin, basins []domain.Basin) bool {
	for _, b := range basins {
		if b == basin {
			return true
		}
	}
	return false
}

// ResolveDuplicates drops rereported storms: when several storms share
// a basin, name and season, only the one with the longest track
// survives, ties favoring the lowest SID. Unnamed storms are exempt;
// the placeholder name carries no identity.
func ResolveDuplicates(storms []*domain.Storm) (kept, dropped []*domain.Storm) {
	ordered := make([]*domain.Storm, len(storms))
	copy(ordered, storms)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SID < ordered[j].SID })

	type key struct {
		basin  domain.Basin
		name   string
		season int
	}
	best := make(map[key]*domain.Storm)
	for _, storm := range ordered {
		if storm.Name == domain.UnnamedStorm {
			kept = append(kept, storm)
			continue
		}
		k := key{basin: storm.Basin, name: storm.Name, season: storm.Season}
		if current, ok := best[k]; !ok || storm.Points() > current.Points() {
			best[k] = storm
		}
	}
	for _, storm := range ordered {
		if storm.Name == domain.UnnamedStorm {
			continue
		}
		k := key{basin: storm.Basin, name: storm.Name, season: storm.Season}
		if best[k] == storm {
			kept = append(kept, storm)
		} else {
			dropped = append(dropped, storm)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].SID < kept[j].SID })
	return kept, dropped
}
