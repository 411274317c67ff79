package domain

import (
	"fmt"
	"sort"
	"time"
)

// UnnamedStorm is the placeholder name for storms no agency named.
const UnnamedStorm = "NOT_NAMED"

// Storm is one assembled track: storm-level identity and attribution
// plus parallel per-observation series. All slices share the length of
// Times, which is strictly increasing. Storms are immutable once
// assembled.
type Storm struct {
	SID      string
	ATCFID   string
	Name     string
	Season   int
	Basin    Basin
	Subbasin Subbasin
	Genesis  time.Time
	Agencies []Agency

	Times           []time.Time
	Lats            []float64
	Lons            []float64
	Winds           []*float64
	Pressures       []*float64
	Classifications []Classification
	Basins          []Basin
	Subbasins       []Subbasin
	Radii           []WindRadii
	RMWs            []*float64
	DistsToLand     []*float64
	Speeds          []*float64
	Provenance      []Provenance
}

// Points returns the number of observations on the track.
func (s *Storm) Points() int { return len(s.Times) }

// Assemble orders one storm's canonical observations into a track and
// derives its storm-level attributes.
//
// Attribution follows genesis, the first observation: the storm's
// basin and subbasin are the genesis values, and its season is the
// genesis year, shifted to the following year for southern-hemisphere
// storms born July onward so a season straddling New Year stays one
// season.
//
// Translation speed at each point comes from the great-circle distance
// to the previous point; the first point and any point following a gap
// longer than the synoptic interval have no speed.
func Assemble(id Identity, observations []CanonicalObservation) (*Storm, error) {
	if id.SID == "" {
		return nil, fmt.Errorf("assemble: empty storm identifier")
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("assemble: storm %s has no observations", id.SID)
	}

	track := make([]CanonicalObservation, len(observations))
	copy(track, observations)
	sort.Slice(track, func(i, j int) bool { return track[i].Time.Before(track[j].Time) })
	for i := 1; i < len(track); i++ {
		if track[i].Time.Equal(track[i-1].Time) {
			return nil, &DuplicateTimestampError{SID: id.SID, Time: track[i].Time}
		}
	}

	name := id.Name
	if name == "" {
		name = UnnamedStorm
	}

	genesis := track[0].Time.UTC()
	storm := &Storm{
		SID:      id.SID,
		ATCFID:   id.ATCFID,
		Name:     name,
		Basin:    track[0].Basin,
		Subbasin: track[0].Subbasin,
		Genesis:  genesis,
		Season:   season(track[0].Basin, genesis),

		Times:           make([]time.Time, len(track)),
		Lats:            make([]float64, len(track)),
		Lons:            make([]float64, len(track)),
		Winds:           make([]*float64, len(track)),
		Pressures:       make([]*float64, len(track)),
		Classifications: make([]Classification, len(track)),
		Basins:          make([]Basin, len(track)),
		Subbasins:       make([]Subbasin, len(track)),
		Radii:           make([]WindRadii, len(track)),
		RMWs:            make([]*float64, len(track)),
		DistsToLand:     make([]*float64, len(track)),
		Speeds:          make([]*float64, len(track)),
		Provenance:      make([]Provenance, len(track)),
	}

	contributors := make(map[Agency]bool)
	for i, obs := range track {
		storm.Times[i] = obs.Time.UTC()
		storm.Lats[i] = obs.Lat
		storm.Lons[i] = obs.Lon
		storm.Winds[i] = obs.Wind
		storm.Pressures[i] = obs.Pressure
		storm.Classifications[i] = obs.Classification
		storm.Basins[i] = obs.Basin
		storm.Subbasins[i] = obs.Subbasin
		storm.Radii[i] = obs.Radii
		storm.RMWs[i] = obs.RMW
		storm.DistsToLand[i] = obs.DistToLand
		storm.Provenance[i] = obs.Provenance
		for _, agency := range obs.Provenance {
			contributors[agency] = true
		}
	}

	for i := 1; i < len(track); i++ {
		gap := storm.Times[i].Sub(storm.Times[i-1])
		if gap > SynopticInterval {
			continue
		}
		km := GreatCircleKm(storm.Lats[i-1], storm.Lons[i-1], storm.Lats[i], storm.Lons[i])
		kt := km * NauticalMilesPerKm / gap.Hours()
		storm.Speeds[i] = &kt
	}

	storm.Agencies = make([]Agency, 0, len(contributors))
	for agency := range contributors {
		storm.Agencies = append(storm.Agencies, agency)
	}
	SortAgencies(storm.Agencies)

	return storm, nil
}

func season(basin Basin, genesis time.Time) int {
	year := genesis.Year()
	if basin.Southern() && genesis.Month() >= time.July {
		return year + 1
	}
	return year
}
