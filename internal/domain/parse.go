package domain

import (
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the archive's timestamp format, always UTC.
const TimeLayout = "2006-01-02 15:04:05"

// Archive column names. One row is one agency's report of one storm at
// one synoptic time; blank cells mean the agency did not report the
// value.
const (
	ColSID      = "SID"
	ColName     = "NAME"
	ColAgency   = "AGENCY"
	ColATCFID   = "ATCF_ID"
	ColISOTime  = "ISO_TIME"
	ColNature   = "NATURE"
	ColLat      = "LAT"
	ColLon      = "LON"
	ColWind     = "WIND"
	ColPressure = "PRES"
	ColBasin    = "BASIN"
	ColSubbasin = "SUBBASIN"
	ColRMW      = "RMW"
	ColDistLand = "DIST2LAND"
)

// RadiiColumns lists the twelve wind-radii columns, by threshold then
// quadrant.
var RadiiColumns = []string{
	"R34_NE", "R34_SE", "R34_SW", "R34_NW",
	"R50_NE", "R50_SE", "R50_SW", "R50_NW",
	"R64_NE", "R64_SE", "R64_SW", "R64_NW",
}

// Columns returns the canonical column order for archive files.
// Readers require every column to be present; writers emit them in
// this order.
func Columns() []string {
	cols := []string{
		ColSID, ColName, ColAgency, ColATCFID, ColISOTime, ColNature,
		ColLat, ColLon, ColWind, ColPressure, ColBasin, ColSubbasin,
	}
	cols = append(cols, RadiiColumns...)
	return append(cols, ColRMW, ColDistLand)
}

// Row is one archive record keyed by column name, before validation.
// Line is the 1-based position in the source file, kept for error
// reporting.
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed cell under the named column, or the empty
// string when the column is missing.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// ParseRow validates one archive row and converts it into an
// Observation. Any violation returns a *MalformedRowError naming the
// offending column; rows never partially parse.
func ParseRow(row Row) (Observation, error) {
	var obs Observation

	obs.SID = row.Get(ColSID)
	if obs.SID == "" {
		return Observation{}, malformed(row.Line, ColSID, "missing storm identifier")
	}

	agency, err := ParseAgency(row.Get(ColAgency))
	if err != nil {
		return Observation{}, malformed(row.Line, ColAgency, "%v", err)
	}
	obs.Agency = agency

	ts, err := parseTimestamp(row)
	if err != nil {
		return Observation{}, err
	}
	obs.Time = ts

	obs.Lat, obs.Lon, err = parsePosition(row)
	if err != nil {
		return Observation{}, err
	}

	obs.Classification, err = ParseClassification(row.Get(ColNature))
	if err != nil {
		return Observation{}, malformed(row.Line, ColNature, "%v", err)
	}
	obs.Basin, err = ParseBasin(row.Get(ColBasin))
	if err != nil {
		return Observation{}, malformed(row.Line, ColBasin, "%v", err)
	}
	obs.Subbasin, err = ParseSubbasin(row.Get(ColSubbasin))
	if err != nil {
		return Observation{}, malformed(row.Line, ColSubbasin, "%v", err)
	}

	obs.Name = strings.ToUpper(row.Get(ColName))
	obs.ATCFID = strings.ToUpper(row.Get(ColATCFID))

	// Non-positive wind, pressure and RMW are archive shorthand for
	// "not estimated" and parse as absent.
	if obs.Wind, err = positiveOrAbsent(row, ColWind); err != nil {
		return Observation{}, err
	}
	if obs.Pressure, err = positiveOrAbsent(row, ColPressure); err != nil {
		return Observation{}, err
	}
	if obs.RMW, err = positiveOrAbsent(row, ColRMW); err != nil {
		return Observation{}, err
	}

	if obs.DistToLand, err = nonNegativeOrAbsent(row, ColDistLand); err != nil {
		return Observation{}, err
	}
	if obs.Radii, err = parseRadii(row); err != nil {
		return Observation{}, err
	}

	return obs, nil
}

func parseTimestamp(row Row) (time.Time, error) {
	raw := row.Get(ColISOTime)
	if raw == "" {
		return time.Time{}, malformed(row.Line, ColISOTime, "missing timestamp")
	}
	ts, err := time.ParseInLocation(TimeLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, malformed(row.Line, ColISOTime, "bad timestamp %q", raw)
	}
	if ts.Hour()%6 != 0 || ts.Minute() != 0 || ts.Second() != 0 || ts.Nanosecond() != 0 {
		return time.Time{}, malformed(row.Line, ColISOTime, "timestamp %q off the %s synoptic grid", raw, SynopticInterval)
	}
	return ts, nil
}

func parsePosition(row Row) (lat, lon float64, err error) {
	lat, err = requiredFloat(row, ColLat)
	if err != nil {
		return 0, 0, err
	}
	if lat < -90 || lat > 90 {
		return 0, 0, malformed(row.Line, ColLat, "latitude %v out of range", lat)
	}
	lon, err = requiredFloat(row, ColLon)
	if err != nil {
		return 0, 0, err
	}
	// Sources report longitude either in [-180,180] or already in
	// degrees east; both normalize to [0,360).
	if lon < -180 || lon >= 360 {
		return 0, 0, malformed(row.Line, ColLon, "longitude %v out of range", lon)
	}
	if lon < 0 {
		lon += 360
	}
	return lat, lon, nil
}

func parseRadii(row Row) (WindRadii, error) {
	var radii WindRadii
	quads := [3]*Quadrants{&radii.R34, &radii.R50, &radii.R64}
	for i, col := range RadiiColumns {
		v, err := nonNegativeOrAbsent(row, col)
		if err != nil {
			return WindRadii{}, err
		}
		q := quads[i/4]
		switch i % 4 {
		case 0:
			q.NE = v
		case 1:
			q.SE = v
		case 2:
			q.SW = v
		case 3:
			q.NW = v
		}
	}
	return radii, nil
}

func requiredFloat(row Row, column string) (float64, error) {
	raw := row.Get(column)
	if raw == "" {
		return 0, malformed(row.Line, column, "missing value")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, malformed(row.Line, column, "bad number %q", raw)
	}
	return v, nil
}

func optionalFloat(row Row, column string) (*float64, error) {
	raw := row.Get(column)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, malformed(row.Line, column, "bad number %q", raw)
	}
	return &v, nil
}

func positiveOrAbsent(row Row, column string) (*float64, error) {
	v, err := optionalFloat(row, column)
	if err != nil {
		return nil, err
	}
	if v != nil && *v <= 0 {
		return nil, nil
	}
	return v, nil
}

func nonNegativeOrAbsent(row Row, column string) (*float64, error) {
	v, err := optionalFloat(row, column)
	if err != nil {
		return nil, err
	}
	if v != nil && *v < 0 {
		return nil, malformed(row.Line, column, "negative value %v", *v)
	}
	return v, nil
}
