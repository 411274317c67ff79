// Package domain models IBTrACS tropical-cyclone best-track data.
//
// # Data Source
//
// Best tracks originate from the NOAA International Best Track Archive
// for Climate Stewardship (IBTrACS), available at
// https://www.ncei.noaa.gov/products/international-best-track-archive.
// The archive aggregates post-season reanalyses from ten reporting
// agencies; one CSV row is one agency's report of one storm at one
// synoptic time.
//
// # Archive Conventions
//
// Timestamps:
//
//	"2006-01-02 15:04:05" in UTC, on a strict 6-hour synoptic grid
//	(00/06/12/18Z). Rows off the grid are rejected as malformed;
//	inter-agency disagreement about off-grid fix times is not worth
//	modeling and upstream providers emit them only by mistake.
//
// Positions:
//
//	Latitude in degrees north, [-90,90]. Longitude arrives in either
//	[-180,180] or [0,360) depending on the source and is normalized to
//	degrees east in [0,360), so tracks crossing the antimeridian stay
//	numerically continuous. The prime meridian is the discontinuity
//	instead, which almost no tropical cyclone crosses.
//
// Missing values:
//
//	An empty cell means the agency did not report the value, and stays
//	absent (a nil pointer) through the whole pipeline. Non-positive
//	wind, pressure and RMW values are archive shorthand for "not
//	estimated" and also parse as absent. A classification of NR and a
//	subbasin of MM are in-band "no report" markers.
//
// Wind radii:
//
//	R34/R50/R64 give the maximum extent, in nautical miles, of 34, 50
//	and 64 kt winds per compass quadrant. A threshold's four quadrants
//	always resolve from a single agency; see [Merge].
//
// # Merge Policy
//
// Agencies frequently disagree. Resolution uses a fixed total agency
// ranking ([Precedence]): per field group, the highest-ranked agency
// with a value wins, with no averaging or blending, and the winner is
// recorded per field group in [Provenance]. One canonical observation
// may therefore combine ATCF's position with Tokyo's pressure.
//
// # Season Attribution
//
// A storm belongs to the year of its genesis (first observation).
// Southern-hemisphere storms born July onward belong to the following
// year, so a season straddling New Year carries one label; seasons in
// SI/SP/SA run July through June.
//
// # Derived Metrics
//
// Accumulated cyclone energy follows the NHC definition: the sum over
// qualifying 6-hourly observations of the squared sustained wind, in
// 1e-4 kt^2, counting only winds of at least 34 kt. See [Storm.ACE]
// for which classifications qualify. Translation speed in knots is
// derived from consecutive positions via the spherical law of cosines
// ([GreatCircleKm]) and left absent across gaps in the synoptic grid.
package domain
