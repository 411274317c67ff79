package store_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

// --- fixtures ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// katrina is a full-fat northern storm: mixed provenance, partial wind
// radii, and a landfall point with absent pressure.
func katrina(t *testing.T) *domain.Storm {
	t.Helper()
	atcfOwns := func(fields ...domain.Field) domain.Provenance {
		prov := domain.Provenance{}
		for _, f := range fields {
			prov[f] = domain.AgencyATCF
		}
		return prov
	}

	first := atcfOwns(domain.FieldPosition, domain.FieldBasin, domain.FieldWind, domain.FieldPressure,
		domain.FieldClassification, domain.FieldSubbasin, domain.FieldR34, domain.FieldRMW, domain.FieldDistToLand)
	first[domain.FieldR50] = domain.AgencyTokyo

	obs := []domain.CanonicalObservation{
		{
			Time: time.Date(2005, 8, 28, 12, 0, 0, 0, time.UTC),
			Lat:  25.4, Lon: 270.3,
			Wind: domain.Float(145), Pressure: domain.Float(909),
			Classification: domain.ClassTropical,
			Basin:          domain.BasinNorthAtlantic,
			Subbasin:       domain.SubbasinGulfOfMexico,
			Radii: domain.WindRadii{
				R34: domain.Quadrants{NE: domain.Float(120), SE: domain.Float(100), SW: domain.Float(75), NW: domain.Float(90)},
				R50: domain.Quadrants{NE: domain.Float(60), SE: domain.Float(50)},
			},
			RMW: domain.Float(20), DistToLand: domain.Float(180),
			Provenance: first,
		},
		{
			Time: time.Date(2005, 8, 28, 18, 0, 0, 0, time.UTC),
			Lat:  26.3, Lon: 270.1,
			Wind: domain.Float(150), Pressure: domain.Float(902),
			Classification: domain.ClassTropical,
			Basin:          domain.BasinNorthAtlantic,
			Subbasin:       domain.SubbasinGulfOfMexico,
			Radii: domain.WindRadii{
				R34: domain.Quadrants{NE: domain.Float(130), SE: domain.Float(110), SW: domain.Float(80), NW: domain.Float(100)},
				R64: domain.Quadrants{NE: domain.Float(40), SE: domain.Float(35), SW: domain.Float(25), NW: domain.Float(30)},
			},
			RMW: domain.Float(18), DistToLand: domain.Float(95),
			Provenance: atcfOwns(domain.FieldPosition, domain.FieldBasin, domain.FieldWind, domain.FieldPressure,
				domain.FieldClassification, domain.FieldSubbasin, domain.FieldR34, domain.FieldR64,
				domain.FieldRMW, domain.FieldDistToLand),
		},
		{
			// Landfall: dist2land zero, pressure dropped out.
			Time: time.Date(2005, 8, 29, 0, 0, 0, 0, time.UTC),
			Lat:  27.2, Lon: 269.9,
			Wind:           domain.Float(125),
			Classification: domain.ClassTropical,
			Basin:          domain.BasinNorthAtlantic,
			Subbasin:       domain.SubbasinGulfOfMexico,
			DistToLand:     domain.Float(0),
			Provenance: atcfOwns(domain.FieldPosition, domain.FieldBasin, domain.FieldWind,
				domain.FieldClassification, domain.FieldSubbasin, domain.FieldDistToLand),
		},
	}

	storm, err := domain.Assemble(domain.Identity{SID: "2005236N23285", ATCFID: "AL122005", Name: "KATRINA"}, obs)
	require.NoError(t, err)
	return storm
}

// olaf is a southern-hemisphere storm whose August genesis lands it in
// the following season.
func olaf(t *testing.T) *domain.Storm {
	t.Helper()
	obs := []domain.CanonicalObservation{
		{
			Time: time.Date(2005, 8, 5, 0, 0, 0, 0, time.UTC),
			Lat:  -14.2, Lon: 170.4,
			Wind: domain.Float(45), Pressure: domain.Float(990),
			Classification: domain.ClassTropical,
			Basin:          domain.BasinSouthPacific,
			Subbasin:       domain.SubbasinMissing,
			Provenance: domain.Provenance{
				domain.FieldPosition: domain.AgencyNadi,
				domain.FieldBasin:    domain.AgencyNadi,
				domain.FieldWind:     domain.AgencyNadi,
				domain.FieldPressure: domain.AgencyWellington,
			},
		},
		{
			Time: time.Date(2005, 8, 5, 6, 0, 0, 0, time.UTC),
			Lat:  -14.9, Lon: 169.8,
			Wind: domain.Float(50), Pressure: domain.Float(985),
			Classification: domain.ClassTropical,
			Basin:          domain.BasinSouthPacific,
			Subbasin:       domain.SubbasinMissing,
			Provenance: domain.Provenance{
				domain.FieldPosition: domain.AgencyNadi,
				domain.FieldBasin:    domain.AgencyNadi,
				domain.FieldWind:     domain.AgencyNadi,
				domain.FieldPressure: domain.AgencyWellington,
			},
		},
	}

	storm, err := domain.Assemble(domain.Identity{SID: "2005217S14170", Name: "OLAF"}, obs)
	require.NoError(t, err)
	return storm
}

// unnamed is the sparse early-archive case: no name, no ATCF number,
// almost every field absent.
func unnamed(t *testing.T) *domain.Storm {
	t.Helper()
	obs := []domain.CanonicalObservation{
		{
			Time: time.Date(1902, 6, 12, 6, 0, 0, 0, time.UTC),
			Lat:  11.5, Lon: 300.0,
			Classification: domain.ClassNotReported,
			Basin:          domain.BasinNorthAtlantic,
			Subbasin:       domain.SubbasinMissing,
			Provenance: domain.Provenance{
				domain.FieldPosition: domain.AgencyHurdatATL,
				domain.FieldBasin:    domain.AgencyHurdatATL,
			},
		},
	}

	storm, err := domain.Assemble(domain.Identity{SID: "1902163N11300"}, obs)
	require.NoError(t, err)
	return storm
}

func fixtureCollection(t *testing.T) *archive.Collection {
	t.Helper()
	c, err := archive.New([]*domain.Storm{katrina(t), olaf(t), unnamed(t)})
	require.NoError(t, err)
	return c
}
