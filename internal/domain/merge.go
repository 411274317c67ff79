package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Precedence is a total ranking of reporting agencies. When agencies
// disagree at a timestamp, the highest-ranked agency with a value
// wins. Agencies left out of the list rank below every listed one, in
// KnownAgencies order.
type Precedence []Agency

// DefaultPrecedence ranks the US centers first, then the remaining
// WMO centers roughly by historical record quality. Deployments with
// a different preference configure their own list.
func DefaultPrecedence() Precedence {
	return Precedence{
		AgencyATCF,
		AgencyHurdatATL,
		AgencyHurdatEPA,
		AgencyCPHC,
		AgencyTokyo,
		AgencyReunion,
		AgencyBOM,
		AgencyNadi,
		AgencyWellington,
		AgencyNewDelhi,
	}
}

// ParsePrecedence parses a comma-separated agency list. Unknown or
// repeated agencies are rejected.
func ParsePrecedence(s string) (Precedence, error) {
	parts := strings.Split(s, ",")
	prec := make(Precedence, 0, len(parts))
	seen := make(map[Agency]bool, len(parts))
	for _, part := range parts {
		agency, err := ParseAgency(part)
		if err != nil {
			return nil, fmt.Errorf("precedence: %w", err)
		}
		if seen[agency] {
			return nil, fmt.Errorf("precedence: agency %q listed twice", agency)
		}
		seen[agency] = true
		prec = append(prec, agency)
	}
	if len(prec) == 0 {
		return nil, fmt.Errorf("precedence: empty list")
	}
	return prec, nil
}

// Rank returns the agency's position in the total order. Lower wins.
func (p Precedence) Rank(a Agency) int {
	for i, agency := range p {
		if agency == a {
			return i
		}
	}
	for i, agency := range KnownAgencies {
		if agency == a {
			return len(p) + i
		}
	}
	return len(p) + len(KnownAgencies)
}

func (p Precedence) String() string {
	names := make([]string, len(p))
	for i, agency := range p {
		names[i] = string(agency)
	}
	return strings.Join(names, ",")
}

// Merge collapses one storm's per-agency observations into a single
// canonical observation per synoptic timestamp.
//
// Each field group resolves independently: the highest-precedence
// agency that reported a value for the group wins, and Provenance
// records the winner. A classification of NR and a subbasin of MM
// count as "no report" and fall through to lower-ranked agencies.
// Position, classification, basin and subbasin always resolve (every
// parsed row carries them); rows from the same agency at the same
// timestamp keep input order, earliest winning.
//
// Merge also derives the storm's Identity and rejects the storm when
// observations disagree on its name or ATCF identifier.
//
// Output is ordered by timestamp, but callers must not rely on that:
// the track assembler owns ordering guarantees.
func Merge(observations []Observation, prec Precedence) (Identity, []CanonicalObservation, error) {
	if len(observations) == 0 {
		return Identity{}, nil, nil
	}

	id, err := stormIdentity(observations)
	if err != nil {
		return Identity{}, nil, err
	}

	groups := make(map[time.Time][]Observation)
	for _, obs := range observations {
		key := obs.Time.UTC()
		groups[key] = append(groups[key], obs)
	}
	times := make([]time.Time, 0, len(groups))
	for ts := range groups {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	canonical := make([]CanonicalObservation, 0, len(times))
	for _, ts := range times {
		group := groups[ts]
		sort.SliceStable(group, func(i, j int) bool {
			return prec.Rank(group[i].Agency) < prec.Rank(group[j].Agency)
		})
		canonical = append(canonical, resolveGroup(ts, group))
	}
	return id, canonical, nil
}

func stormIdentity(observations []Observation) (Identity, error) {
	id := Identity{SID: observations[0].SID}

	names := distinctNonEmpty(observations, func(o Observation) string { return o.Name })
	switch len(names) {
	case 0:
	case 1:
		id.Name = names[0]
	default:
		return Identity{}, &ConflictingIdentityError{SID: id.SID, Attribute: "name", Values: names}
	}

	atcfIDs := distinctNonEmpty(observations, func(o Observation) string { return o.ATCFID })
	switch len(atcfIDs) {
	case 0:
	case 1:
		id.ATCFID = atcfIDs[0]
	default:
		return Identity{}, &ConflictingIdentityError{SID: id.SID, Attribute: "atcf_id", Values: atcfIDs}
	}

	return id, nil
}

func distinctNonEmpty(observations []Observation, get func(Observation) string) []string {
	seen := make(map[string]bool)
	for _, obs := range observations {
		if v := get(obs); v != "" {
			seen[v] = true
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// resolveGroup picks winners for every field group among one
// timestamp's observations, which arrive sorted best-rank first.
func resolveGroup(ts time.Time, group []Observation) CanonicalObservation {
	top := group[0]
	c := CanonicalObservation{
		Time:           ts,
		Lat:            top.Lat,
		Lon:            top.Lon,
		Classification: ClassNotReported,
		Basin:          top.Basin,
		Subbasin:       SubbasinMissing,
		Provenance: Provenance{
			FieldPosition: top.Agency,
			FieldBasin:    top.Agency,
		},
	}

	for _, obs := range group {
		if obs.Classification != ClassNotReported {
			c.Classification = obs.Classification
			c.Provenance[FieldClassification] = obs.Agency
			break
		}
	}
	for _, obs := range group {
		if obs.Subbasin != SubbasinMissing {
			c.Subbasin = obs.Subbasin
			c.Provenance[FieldSubbasin] = obs.Agency
			break
		}
	}

	c.Wind = resolveScalar(group, &c.Provenance, FieldWind, func(o Observation) *float64 { return o.Wind })
	c.Pressure = resolveScalar(group, &c.Provenance, FieldPressure, func(o Observation) *float64 { return o.Pressure })
	c.RMW = resolveScalar(group, &c.Provenance, FieldRMW, func(o Observation) *float64 { return o.RMW })
	c.DistToLand = resolveScalar(group, &c.Provenance, FieldDistToLand, func(o Observation) *float64 { return o.DistToLand })

	// A threshold's four quadrants travel together: mixing agencies
	// within one threshold would fabricate a wind field no agency
	// reported.
	c.Radii.R34 = resolveQuadrants(group, &c.Provenance, FieldR34, func(o Observation) Quadrants { return o.Radii.R34 })
	c.Radii.R50 = resolveQuadrants(group, &c.Provenance, FieldR50, func(o Observation) Quadrants { return o.Radii.R50 })
	c.Radii.R64 = resolveQuadrants(group, &c.Provenance, FieldR64, func(o Observation) Quadrants { return o.Radii.R64 })

	return c
}

func resolveScalar(group []Observation, prov *Provenance, field Field, get func(Observation) *float64) *float64 {
	for _, obs := range group {
		if v := get(obs); v != nil {
			(*prov)[field] = obs.Agency
			return v
		}
	}
	return nil
}

func resolveQuadrants(group []Observation, prov *Provenance, field Field, get func(Observation) Quadrants) Quadrants {
	for _, obs := range group {
		if q := get(obs); !q.Empty() {
			(*prov)[field] = obs.Agency
			return q
		}
	}
	return Quadrants{}
}
