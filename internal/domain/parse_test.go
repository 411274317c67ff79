package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRow returns a fully-populated archive row modeled on Katrina's
// 2005-08-28 18Z fix. Tests mutate single cells from here.
func validRow() Row {
	return Row{
		Line: 7,
		Fields: map[string]string{
			ColSID:      "2005236N23285",
			ColName:     "KATRINA",
			ColAgency:   "atcf",
			ColATCFID:   "AL122005",
			ColISOTime:  "2005-08-28 18:00:00",
			ColNature:   "TS",
			ColLat:      "26.3",
			ColLon:      "-89.6",
			ColWind:     "150",
			ColPressure: "902",
			ColBasin:    "NA",
			ColSubbasin: "GM",
			"R34_NE":    "120",
			"R34_SE":    "120",
			"R34_SW":    "90",
			"R34_NW":    "90",
			"R50_NE":    "75",
			"R50_SE":    "75",
			"R50_SW":    "50",
			"R50_NW":    "50",
			"R64_NE":    "40",
			"R64_SE":    "40",
			"R64_SW":    "30",
			"R64_NW":    "30",
			ColRMW:      "15",
			ColDistLand: "185",
		},
	}
}

func setCell(row Row, column, value string) Row {
	fields := make(map[string]string, len(row.Fields))
	for k, v := range row.Fields {
		fields[k] = v
	}
	fields[column] = value
	row.Fields = fields
	return row
}

func TestParseRow(t *testing.T) {
	t.Run("full row", func(t *testing.T) {
		obs, err := ParseRow(validRow())

		require.NoError(t, err)
		assert.Equal(t, "2005236N23285", obs.SID)
		assert.Equal(t, "KATRINA", obs.Name)
		assert.Equal(t, "AL122005", obs.ATCFID)
		assert.Equal(t, AgencyATCF, obs.Agency)
		assert.Equal(t, time.Date(2005, 8, 28, 18, 0, 0, 0, time.UTC), obs.Time)
		assert.Equal(t, 26.3, obs.Lat)
		assert.InDelta(t, 270.4, obs.Lon, 1e-9)
		require.NotNil(t, obs.Wind)
		assert.Equal(t, 150.0, *obs.Wind)
		require.NotNil(t, obs.Pressure)
		assert.Equal(t, 902.0, *obs.Pressure)
		assert.Equal(t, ClassTropical, obs.Classification)
		assert.Equal(t, BasinNorthAtlantic, obs.Basin)
		assert.Equal(t, SubbasinGulfOfMexico, obs.Subbasin)
		require.NotNil(t, obs.Radii.R64.SW)
		assert.Equal(t, 30.0, *obs.Radii.R64.SW)
		require.NotNil(t, obs.RMW)
		assert.Equal(t, 15.0, *obs.RMW)
		require.NotNil(t, obs.DistToLand)
		assert.Equal(t, 185.0, *obs.DistToLand)
	})

	t.Run("blank cells parse as absent", func(t *testing.T) {
		row := validRow()
		for _, col := range append([]string{ColWind, ColPressure, ColRMW, ColDistLand, ColName, ColATCFID, ColSubbasin}, RadiiColumns...) {
			row = setCell(row, col, "")
		}
		obs, err := ParseRow(row)

		require.NoError(t, err)
		assert.Nil(t, obs.Wind)
		assert.Nil(t, obs.Pressure)
		assert.Nil(t, obs.RMW)
		assert.Nil(t, obs.DistToLand)
		assert.True(t, obs.Radii.R34.Empty())
		assert.True(t, obs.Radii.R50.Empty())
		assert.True(t, obs.Radii.R64.Empty())
		assert.Equal(t, "", obs.Name)
		assert.Equal(t, "", obs.ATCFID)
		assert.Equal(t, SubbasinMissing, obs.Subbasin)
	})

	t.Run("non-positive sentinel winds parse as absent", func(t *testing.T) {
		tests := []struct {
			name   string
			column string
			value  string
		}{
			{"zero wind", ColWind, "0"},
			{"negative wind", ColWind, "-99"},
			{"zero pressure", ColPressure, "0"},
			{"negative pressure", ColPressure, "-1"},
			{"zero rmw", ColRMW, "0"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				obs, err := ParseRow(setCell(validRow(), tt.column, tt.value))

				require.NoError(t, err)
				switch tt.column {
				case ColWind:
					assert.Nil(t, obs.Wind)
				case ColPressure:
					assert.Nil(t, obs.Pressure)
				case ColRMW:
					assert.Nil(t, obs.RMW)
				}
			})
		}
	})

	t.Run("longitude normalization", func(t *testing.T) {
		tests := []struct {
			name     string
			lon      string
			expected float64
		}{
			{"negative west", "-89.6", 270.4},
			{"already degrees east", "270.4", 270.4},
			{"antimeridian west side", "179.9", 179.9},
			{"antimeridian east side", "-179.9", 180.1},
			{"prime meridian", "0", 0.0},
			{"minus 180", "-180", 180.0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				obs, err := ParseRow(setCell(validRow(), ColLon, tt.lon))

				require.NoError(t, err)
				assert.InDelta(t, tt.expected, obs.Lon, 1e-9)
			})
		}
	})

	t.Run("names are upper-cased", func(t *testing.T) {
		obs, err := ParseRow(setCell(validRow(), ColName, "katrina"))

		require.NoError(t, err)
		assert.Equal(t, "KATRINA", obs.Name)
	})

	t.Run("malformed rows", func(t *testing.T) {
		tests := []struct {
			name   string
			column string
			value  string
		}{
			{"missing sid", ColSID, ""},
			{"unknown agency", ColAgency, "jtwc"},
			{"missing timestamp", ColISOTime, ""},
			{"unparseable timestamp", ColISOTime, "2005-08-28T18:00:00Z"},
			{"off-grid hour", ColISOTime, "2005-08-28 17:00:00"},
			{"off-grid minute", ColISOTime, "2005-08-28 18:30:00"},
			{"missing latitude", ColLat, ""},
			{"latitude beyond pole", ColLat, "91"},
			{"bad latitude", ColLat, "north"},
			{"longitude out of range", ColLon, "360"},
			{"longitude far west", ColLon, "-181"},
			{"unknown classification", ColNature, "XX"},
			{"unknown basin", ColBasin, "XX"},
			{"unknown subbasin", ColSubbasin, "XX"},
			{"bad wind", ColWind, "strong"},
			{"negative radius", "R34_NE", "-5"},
			{"negative distance to land", ColDistLand, "-1"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseRow(setCell(validRow(), tt.column, tt.value))

				require.Error(t, err)
				var malformedErr *MalformedRowError
				require.ErrorAs(t, err, &malformedErr)
				assert.Equal(t, 7, malformedErr.Line)
			})
		}
	})

	t.Run("malformed error names the column", func(t *testing.T) {
		_, err := ParseRow(setCell(validRow(), ColWind, "strong"))

		var malformedErr *MalformedRowError
		require.True(t, errors.As(err, &malformedErr))
		assert.Equal(t, ColWind, malformedErr.Column)
		assert.Contains(t, malformedErr.Error(), "row 7")
		assert.Contains(t, malformedErr.Error(), ColWind)
	})

	t.Run("zero distance to land is landfall not absent", func(t *testing.T) {
		obs, err := ParseRow(setCell(validRow(), ColDistLand, "0"))

		require.NoError(t, err)
		require.NotNil(t, obs.DistToLand)
		assert.Equal(t, 0.0, *obs.DistToLand)
	})
}

func TestColumns(t *testing.T) {
	cols := Columns()

	assert.Len(t, cols, 26)
	assert.Equal(t, ColSID, cols[0])
	seen := make(map[string]bool)
	for _, col := range cols {
		assert.False(t, seen[col], "column %s repeated", col)
		seen[col] = true
	}
	for _, col := range RadiiColumns {
		assert.True(t, seen[col], "column %s missing", col)
	}
}
