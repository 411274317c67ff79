package archive

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

// makeStorm builds a storm whose every point carries 50 kt tropical
// winds, so each point contributes 0.25 to ACE.
func makeStorm(sid, name string, season int, basin domain.Basin, points int) *domain.Storm {
	storm := &domain.Storm{
		SID:      sid,
		Name:     name,
		Season:   season,
		Basin:    basin,
		Subbasin: domain.SubbasinMissing,
		Genesis:  time.Date(season, 8, 1, 0, 0, 0, 0, time.UTC),
		Agencies: []domain.Agency{domain.AgencyATCF},
	}
	for i := 0; i < points; i++ {
		storm.Times = append(storm.Times, storm.Genesis.Add(time.Duration(i)*domain.SynopticInterval))
		storm.Lats = append(storm.Lats, 20.0)
		storm.Lons = append(storm.Lons, 270.0+float64(i))
		storm.Winds = append(storm.Winds, domain.Float(50))
		storm.Classifications = append(storm.Classifications, domain.ClassTropical)
		storm.Basins = append(storm.Basins, basin)
		storm.Subbasins = append(storm.Subbasins, domain.SubbasinMissing)
		storm.Radii = append(storm.Radii, domain.WindRadii{})
		storm.Pressures = append(storm.Pressures, nil)
		storm.RMWs = append(storm.RMWs, nil)
		storm.DistsToLand = append(storm.DistsToLand, nil)
		storm.Speeds = append(storm.Speeds, nil)
		storm.Provenance = append(storm.Provenance, domain.Provenance{domain.FieldPosition: domain.AgencyATCF})
	}
	return storm
}

func testCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := New([]*domain.Storm{
		makeStorm("2005236N23285", "KATRINA", 2005, domain.BasinNorthAtlantic, 10),
		makeStorm("2005261N21290", "RITA", 2005, domain.BasinNorthAtlantic, 8),
		makeStorm("1999236N20280", "KATRINA", 1999, domain.BasinNorthAtlantic, 4),
		makeStorm("2005032S15140", "OLAF", 2005, domain.BasinSouthPacific, 6),
	})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("orders storms by SID", func(t *testing.T) {
		c := testCollection(t)

		sids := make([]string, 0, c.Len())
		for _, storm := range c.All() {
			sids = append(sids, storm.SID)
		}
		assert.Equal(t, []string{"1999236N20280", "2005032S15140", "2005236N23285", "2005261N21290"}, sids)
	})

	t.Run("stamps the build time", func(t *testing.T) {
		fixed := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
		SetClock(clockwork.NewFakeClockAt(fixed))
		defer SetClock(nil)

		c, err := New(nil)

		require.NoError(t, err)
		assert.Equal(t, fixed, c.BuiltAt())
	})

	t.Run("rejects duplicate SIDs", func(t *testing.T) {
		_, err := New([]*domain.Storm{
			makeStorm("2005236N23285", "KATRINA", 2005, domain.BasinNorthAtlantic, 2),
			makeStorm("2005236N23285", "KATRINA", 2005, domain.BasinNorthAtlantic, 3),
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate storm")
	})

	t.Run("restore keeps the given build time", func(t *testing.T) {
		builtAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

		c, err := Restore(nil, builtAt)

		require.NoError(t, err)
		assert.Equal(t, builtAt, c.BuiltAt())
	})
}

func TestGet(t *testing.T) {
	c := testCollection(t)

	t.Run("by exact SID", func(t *testing.T) {
		storm, err := c.Get("2005261N21290")

		require.NoError(t, err)
		assert.Equal(t, "RITA", storm.Name)
	})

	t.Run("unknown SID", func(t *testing.T) {
		_, err := c.Get("0000000X00000")

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestFind(t *testing.T) {
	c := testCollection(t)

	t.Run("unique name", func(t *testing.T) {
		storm, err := c.Find("rita", 0, "")

		require.NoError(t, err)
		assert.Equal(t, "2005261N21290", storm.SID)
	})

	t.Run("name repeated across seasons is ambiguous", func(t *testing.T) {
		_, err := c.Find("KATRINA", 0, "")

		var ambiguous *AmbiguousMatchError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, []string{"1999236N20280", "2005236N23285"}, ambiguous.SIDs)
	})

	t.Run("season disambiguates", func(t *testing.T) {
		storm, err := c.Find("KATRINA", 2005, "")

		require.NoError(t, err)
		assert.Equal(t, "2005236N23285", storm.SID)
	})

	t.Run("basin narrows", func(t *testing.T) {
		storm, err := c.Find("OLAF", 0, domain.BasinSouthPacific)

		require.NoError(t, err)
		assert.Equal(t, "2005032S15140", storm.SID)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := c.Find("IVAN", 0, "")

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := c.Find("", 0, "")

		require.Error(t, err)
	})
}

func TestSelect(t *testing.T) {
	c := testCollection(t)

	t.Run("by season", func(t *testing.T) {
		storms := c.Select(Filter{Season: 2005})

		require.Len(t, storms, 3)
		assert.Equal(t, "2005032S15140", storms[0].SID)
	})

	t.Run("by season and basin", func(t *testing.T) {
		storms := c.Select(Filter{Season: 2005, Basin: domain.BasinNorthAtlantic})

		require.Len(t, storms, 2)
	})

	t.Run("by classification", func(t *testing.T) {
		assert.Len(t, c.Select(Filter{Classification: domain.ClassTropical}), 4)
		assert.Empty(t, c.Select(Filter{Classification: domain.ClassExtratropical}))
	})

	t.Run("by box", func(t *testing.T) {
		storms := c.Select(Filter{Box: &domain.Box{LatMin: 10, LatMax: 30, LonMin: 269, LonMax: 271}})

		require.Len(t, storms, 4, "all test tracks start at lon 270")

		storms = c.Select(Filter{Box: &domain.Box{LatMin: -90, LatMax: 0, LonMin: 0, LonMax: 359}})
		assert.Empty(t, storms, "no track dips south of the equator")
	})

	t.Run("empty filter returns everything", func(t *testing.T) {
		assert.Len(t, c.Select(Filter{}), 4)
	})
}

func TestSeasonACE(t *testing.T) {
	c := testCollection(t)

	t.Run("global mixes hemispheres", func(t *testing.T) {
		ace, err := c.SeasonACE(2005, ScopeGlobal, true)

		require.NoError(t, err)
		// KATRINA 10 pts + RITA 8 pts + OLAF 6 pts at 0.25 each.
		assert.InEpsilon(t, 6.0, ace, 1e-12)
	})

	t.Run("northern hemisphere only", func(t *testing.T) {
		ace, err := c.SeasonACE(2005, ScopeNorthern, true)

		require.NoError(t, err)
		assert.InEpsilon(t, 4.5, ace, 1e-12)
	})

	t.Run("southern hemisphere only", func(t *testing.T) {
		ace, err := c.SeasonACE(2005, ScopeSouthern, true)

		require.NoError(t, err)
		assert.InEpsilon(t, 1.5, ace, 1e-12)
	})

	t.Run("single basin scope", func(t *testing.T) {
		ace, err := c.SeasonACE(2005, "NA", true)

		require.NoError(t, err)
		assert.InEpsilon(t, 4.5, ace, 1e-12)
	})

	t.Run("empty season", func(t *testing.T) {
		ace, err := c.SeasonACE(1987, ScopeGlobal, true)

		require.NoError(t, err)
		assert.Equal(t, 0.0, ace)
	})

	t.Run("unknown scope", func(t *testing.T) {
		_, err := c.SeasonACE(2005, "ATLANTIC", true)

		require.Error(t, err)
	})
}

func TestResolveDuplicates(t *testing.T) {
	t.Run("longest record wins", func(t *testing.T) {
		short := makeStorm("2005236N23285", "KATRINA", 2005, domain.BasinNorthAtlantic, 4)
		long := makeStorm("2005236N23299", "KATRINA", 2005, domain.BasinNorthAtlantic, 12)
		other := makeStorm("2005261N21290", "RITA", 2005, domain.BasinNorthAtlantic, 8)

		kept, dropped := ResolveDuplicates([]*domain.Storm{short, long, other})

		require.Len(t, kept, 2)
		assert.Equal(t, "2005236N23299", kept[0].SID)
		assert.Equal(t, "2005261N21290", kept[1].SID)
		require.Len(t, dropped, 1)
		assert.Equal(t, "2005236N23285", dropped[0].SID)
	})

	t.Run("same name in different seasons is no duplicate", func(t *testing.T) {
		kept, dropped := ResolveDuplicates([]*domain.Storm{
			makeStorm("1999236N20280", "KATRINA", 1999, domain.BasinNorthAtlantic, 4),
			makeStorm("2005236N23285", "KATRINA", 2005, domain.BasinNorthAtlantic, 10),
		})

		assert.Len(t, kept, 2)
		assert.Empty(t, dropped)
	})

	t.Run("unnamed storms are exempt", func(t *testing.T) {
		kept, dropped := ResolveDuplicates([]*domain.Storm{
			makeStorm("2005001N10260", domain.UnnamedStorm, 2005, domain.BasinNorthAtlantic, 3),
			makeStorm("2005002N11261", domain.UnnamedStorm, 2005, domain.BasinNorthAtlantic, 5),
		})

		assert.Len(t, kept, 2)
		assert.Empty(t, dropped)
	})

	t.Run("tie keeps the lowest SID", func(t *testing.T) {
		kept, dropped := ResolveDuplicates([]*domain.Storm{
			makeStorm("2005236N23299", "KATRINA", 2005, domain.BasinNorthAtlantic, 6),
			makeStorm("2005236N23285", "KATRINA", 2005, domain.BasinNorthAtlantic, 6),
		})

		require.Len(t, kept, 1)
		assert.Equal(t, "2005236N23285", kept[0].SID)
		require.Len(t, dropped, 1)
	})
}
