package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSID = "2005236N23285"

func synTime(hour int) time.Time {
	return time.Date(2005, 8, 28, hour, 0, 0, 0, time.UTC)
}

// testObs returns one agency's minimal valid report at the given
// synoptic hour. Tests fill in the fields under dispute.
func testObs(agency Agency, hour int) Observation {
	return Observation{
		SID:            testSID,
		Name:           "KATRINA",
		Agency:         agency,
		Time:           synTime(hour),
		Lat:            26.3,
		Lon:            270.4,
		Classification: ClassTropical,
		Basin:          BasinNorthAtlantic,
		Subbasin:       SubbasinGulfOfMexico,
	}
}

func TestMerge(t *testing.T) {
	prec := Precedence{AgencyATCF, AgencyTokyo, AgencyReunion}

	t.Run("highest ranked agency with a value wins", func(t *testing.T) {
		first := testObs(AgencyATCF, 18)
		second := testObs(AgencyTokyo, 18)
		second.Wind = Float(45)
		third := testObs(AgencyReunion, 18)
		third.Wind = Float(50)

		_, canonical, err := Merge([]Observation{third, first, second}, prec)

		require.NoError(t, err)
		require.Len(t, canonical, 1)
		require.NotNil(t, canonical[0].Wind)
		assert.Equal(t, 45.0, *canonical[0].Wind)
		assert.Equal(t, AgencyTokyo, canonical[0].Provenance[FieldWind])
	})

	t.Run("field groups resolve independently", func(t *testing.T) {
		atcf := testObs(AgencyATCF, 18)
		atcf.Wind = Float(150)
		tokyo := testObs(AgencyTokyo, 18)
		tokyo.Lat, tokyo.Lon = 26.5, 270.6
		tokyo.Pressure = Float(902)
		tokyo.RMW = Float(20)

		_, canonical, err := Merge([]Observation{tokyo, atcf}, prec)

		require.NoError(t, err)
		require.Len(t, canonical, 1)
		c := canonical[0]
		assert.Equal(t, 26.3, c.Lat)
		assert.InDelta(t, 270.4, c.Lon, 1e-9)
		require.NotNil(t, c.Wind)
		assert.Equal(t, 150.0, *c.Wind)
		require.NotNil(t, c.Pressure)
		assert.Equal(t, 902.0, *c.Pressure)
		require.NotNil(t, c.RMW)
		assert.Equal(t, 20.0, *c.RMW)
		assert.Equal(t, Provenance{
			FieldPosition:       AgencyATCF,
			FieldBasin:          AgencyATCF,
			FieldClassification: AgencyATCF,
			FieldSubbasin:       AgencyATCF,
			FieldWind:           AgencyATCF,
			FieldPressure:       AgencyTokyo,
			FieldRMW:            AgencyTokyo,
		}, c.Provenance)
	})

	t.Run("partial radii set still wins whole threshold", func(t *testing.T) {
		atcf := testObs(AgencyATCF, 18)
		atcf.Radii.R34 = Quadrants{NE: Float(100)}
		tokyo := testObs(AgencyTokyo, 18)
		tokyo.Radii.R34 = Quadrants{NE: Float(90), SE: Float(80), SW: Float(70), NW: Float(60)}
		tokyo.Radii.R64 = Quadrants{NE: Float(25), SE: Float(25), SW: Float(20), NW: Float(20)}

		_, canonical, err := Merge([]Observation{tokyo, atcf}, prec)

		require.NoError(t, err)
		c := canonical[0]
		require.NotNil(t, c.Radii.R34.NE)
		assert.Equal(t, 100.0, *c.Radii.R34.NE)
		assert.Nil(t, c.Radii.R34.SE, "quadrants must not mix agencies within a threshold")
		assert.Equal(t, AgencyATCF, c.Provenance[FieldR34])
		require.NotNil(t, c.Radii.R64.NE)
		assert.Equal(t, 25.0, *c.Radii.R64.NE)
		assert.Equal(t, AgencyTokyo, c.Provenance[FieldR64])
		assert.True(t, c.Radii.R50.Empty())
		assert.NotContains(t, c.Provenance, FieldR50)
	})

	t.Run("NR classification falls through", func(t *testing.T) {
		atcf := testObs(AgencyATCF, 18)
		atcf.Classification = ClassNotReported
		tokyo := testObs(AgencyTokyo, 18)
		tokyo.Classification = ClassExtratropical

		_, canonical, err := Merge([]Observation{atcf, tokyo}, prec)

		require.NoError(t, err)
		assert.Equal(t, ClassExtratropical, canonical[0].Classification)
		assert.Equal(t, AgencyTokyo, canonical[0].Provenance[FieldClassification])
	})

	t.Run("all agencies abstain from classification", func(t *testing.T) {
		atcf := testObs(AgencyATCF, 18)
		atcf.Classification = ClassNotReported
		tokyo := testObs(AgencyTokyo, 18)
		tokyo.Classification = ClassNotReported

		_, canonical, err := Merge([]Observation{atcf, tokyo}, prec)

		require.NoError(t, err)
		assert.Equal(t, ClassNotReported, canonical[0].Classification)
		assert.NotContains(t, canonical[0].Provenance, FieldClassification)
	})

	t.Run("MM subbasin falls through", func(t *testing.T) {
		atcf := testObs(AgencyATCF, 18)
		atcf.Subbasin = SubbasinMissing
		tokyo := testObs(AgencyTokyo, 18)

		_, canonical, err := Merge([]Observation{atcf, tokyo}, prec)

		require.NoError(t, err)
		assert.Equal(t, SubbasinGulfOfMexico, canonical[0].Subbasin)
		assert.Equal(t, AgencyTokyo, canonical[0].Provenance[FieldSubbasin])
	})

	t.Run("timestamps group and order the output", func(t *testing.T) {
		obs := []Observation{
			testObs(AgencyTokyo, 12),
			testObs(AgencyATCF, 18),
			testObs(AgencyATCF, 6),
			testObs(AgencyATCF, 12),
		}

		_, canonical, err := Merge(obs, prec)

		require.NoError(t, err)
		require.Len(t, canonical, 3)
		assert.Equal(t, synTime(6), canonical[0].Time)
		assert.Equal(t, synTime(12), canonical[1].Time)
		assert.Equal(t, synTime(18), canonical[2].Time)
	})

	t.Run("identity survives partial reporting", func(t *testing.T) {
		named := testObs(AgencyATCF, 12)
		named.ATCFID = "AL122005"
		anonymous := testObs(AgencyTokyo, 18)
		anonymous.Name = ""

		id, _, err := Merge([]Observation{anonymous, named}, prec)

		require.NoError(t, err)
		assert.Equal(t, testSID, id.SID)
		assert.Equal(t, "KATRINA", id.Name)
		assert.Equal(t, "AL122005", id.ATCFID)
	})

	t.Run("conflicting names reject the storm", func(t *testing.T) {
		first := testObs(AgencyATCF, 12)
		second := testObs(AgencyTokyo, 12)
		second.Name = "RITA"

		_, _, err := Merge([]Observation{first, second}, prec)

		require.Error(t, err)
		var conflictErr *ConflictingIdentityError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, testSID, conflictErr.SID)
		assert.Equal(t, "name", conflictErr.Attribute)
		assert.Equal(t, []string{"KATRINA", "RITA"}, conflictErr.Values)
	})

	t.Run("conflicting ATCF IDs reject the storm", func(t *testing.T) {
		first := testObs(AgencyATCF, 12)
		first.ATCFID = "AL122005"
		second := testObs(AgencyHurdatATL, 12)
		second.ATCFID = "AL132005"

		_, _, err := Merge([]Observation{first, second}, prec)

		var conflictErr *ConflictingIdentityError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, "atcf_id", conflictErr.Attribute)
	})

	t.Run("unlisted agency ranks below every listed one", func(t *testing.T) {
		listed := testObs(AgencyReunion, 18)
		listed.Wind = Float(40)
		unlisted := testObs(AgencyWellington, 18)
		unlisted.Wind = Float(55)

		_, canonical, err := Merge([]Observation{unlisted, listed}, prec)

		require.NoError(t, err)
		require.NotNil(t, canonical[0].Wind)
		assert.Equal(t, 40.0, *canonical[0].Wind)
	})

	t.Run("no observations", func(t *testing.T) {
		id, canonical, err := Merge(nil, prec)

		require.NoError(t, err)
		assert.Empty(t, id.SID)
		assert.Empty(t, canonical)
	})
}

func TestPrecedenceRank(t *testing.T) {
	prec := Precedence{AgencyTokyo, AgencyATCF}

	assert.Equal(t, 0, prec.Rank(AgencyTokyo))
	assert.Equal(t, 1, prec.Rank(AgencyATCF))
	// Unlisted agencies follow in KnownAgencies order.
	assert.Equal(t, 2+1, prec.Rank(AgencyBOM))
	assert.Equal(t, 2+9, prec.Rank(AgencyWellington))
	assert.Less(t, prec.Rank(AgencyATCF), prec.Rank(AgencyWellington))
}

func TestParsePrecedence(t *testing.T) {
	t.Run("valid list", func(t *testing.T) {
		prec, err := ParsePrecedence("tokyo, atcf,reunion")

		require.NoError(t, err)
		assert.Equal(t, Precedence{AgencyTokyo, AgencyATCF, AgencyReunion}, prec)
		assert.Equal(t, "tokyo,atcf,reunion", prec.String())
	})

	t.Run("unknown agency", func(t *testing.T) {
		_, err := ParsePrecedence("tokyo,jtwc")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "jtwc")
	})

	t.Run("repeated agency", func(t *testing.T) {
		_, err := ParsePrecedence("tokyo,atcf,tokyo")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listed twice")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParsePrecedence("")

		require.Error(t, err)
	})
}

func TestDefaultPrecedence(t *testing.T) {
	prec := DefaultPrecedence()

	require.Len(t, prec, len(KnownAgencies))
	assert.Equal(t, AgencyATCF, prec[0])
	seen := make(map[Agency]bool)
	for _, agency := range prec {
		assert.False(t, seen[agency])
		seen[agency] = true
	}
}
