package domain

import "time"

// SynopticInterval is the spacing of the archive's observation grid.
// Rows off this grid are rejected at parse time, and track gaps longer
// than this leave the translation speed unset.
const SynopticInterval = 6 * time.Hour

// Float returns a pointer to v. Observation fields model "absent" as a
// nil pointer, so literal fixtures need this to say "present".
func Float(v float64) *float64 { return &v }

// Quadrants holds one wind-radii threshold: the maximum extent, in
// nautical miles, of winds at that threshold in each compass quadrant.
// A nil entry means the reporting agency did not estimate it.
type Quadrants struct {
	NE *float64
	SE *float64
	SW *float64
	NW *float64
}

// Empty reports whether no quadrant carries a value.
func (q Quadrants) Empty() bool {
	return q.NE == nil && q.SE == nil && q.SW == nil && q.NW == nil
}

// WindRadii groups the three standard wind thresholds.
type WindRadii struct {
	R34 Quadrants
	R50 Quadrants
	R64 Quadrants
}

// Observation is one agency's report of one storm at one synoptic
// time, as parsed from a single archive row. Pointer fields are nil
// when the row left the value blank.
type Observation struct {
	SID    string
	ATCFID string
	Name   string
	Agency Agency
	Time   time.Time

	Lat float64
	Lon float64

	Wind           *float64
	Pressure       *float64
	Classification Classification
	Basin          Basin
	Subbasin       Subbasin
	Radii          WindRadii
	RMW            *float64
	DistToLand     *float64
}

// Provenance records, for each field group that resolved to a value,
// the agency whose report won.
type Provenance map[Field]Agency

// CanonicalObservation is the merged, single-valued view of a storm at
// one synoptic time. Values absent from every agency's report stay
// nil, and Provenance names the winning agency per field group.
type CanonicalObservation struct {
	Time time.Time

	Lat float64
	Lon float64

	Wind           *float64
	Pressure       *float64
	Classification Classification
	Basin          Basin
	Subbasin       Subbasin
	Radii          WindRadii
	RMW            *float64
	DistToLand     *float64

	Provenance Provenance
}

// Identity is the storm-level identity shared by all of a storm's
// observations. ATCFID is empty for storms no US agency tracked.
type Identity struct {
	SID    string
	ATCFID string
	Name   string
}
