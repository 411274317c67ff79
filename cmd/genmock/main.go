// Command genmock writes a synthetic best-track archive CSV for tests
// and local runs. Output is deterministic for a given seed, so fixtures
// can be regenerated without churning test assertions.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/archive.csv -storms 25 -season 2023
//
// The generated archive exercises the whole build path: multi-agency
// reporting with disagreements, southern-hemisphere season straddling,
// a rereported duplicate track, and (with -dirty) malformed rows plus
// one storm with conflicting identity that the build must reject.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/storm-track-archive/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

var stormNames = []string{
	"ARLENE", "BRET", "CINDY", "DON", "EMILY", "FRANKLIN", "GERT",
	"HAROLD", "IDALIA", "JOSE", "KATIA", "LEE", "MARGOT", "NIGEL",
	"OPHELIA", "PHILIPPE", "RINA", "SEAN", "TAMMY", "VINCE", "WHITNEY",
	"YASA", "ZAZU", "ANA",
}

type basinProfile struct {
	basin    domain.Basin
	agencies []domain.Agency
	latMin   float64
	lonMin   float64
	lonMax   float64
}

// First agency in each list is the primary reporter; the rest chime in
// with partial, slightly different reports.
var basinProfiles = []basinProfile{
	{basin: domain.BasinNorthAtlantic, agencies: []domain.Agency{domain.AgencyATCF, domain.AgencyHurdatATL}, latMin: 10, lonMin: 280, lonMax: 340},
	{basin: domain.BasinEasternPacific, agencies: []domain.Agency{domain.AgencyATCF, domain.AgencyHurdatEPA, domain.AgencyCPHC}, latMin: 10, lonMin: 220, lonMax: 255},
	{basin: domain.BasinWesternPacific, agencies: []domain.Agency{domain.AgencyTokyo, domain.AgencyATCF}, latMin: 8, lonMin: 125, lonMax: 165},
	{basin: domain.BasinNorthIndian, agencies: []domain.Agency{domain.AgencyNewDelhi, domain.AgencyATCF}, latMin: 8, lonMin: 60, lonMax: 92},
	{basin: domain.BasinSouthIndian, agencies: []domain.Agency{domain.AgencyReunion, domain.AgencyBOM, domain.AgencyATCF}, latMin: -12, lonMin: 45, lonMax: 100},
	{basin: domain.BasinSouthPacific, agencies: []domain.Agency{domain.AgencyNadi, domain.AgencyWellington, domain.AgencyATCF}, latMin: -12, lonMin: 160, lonMax: 200},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the archive CSV")
	storms := flag.Int("storms", 25, "number of storms to generate")
	season := flag.Int("season", 2023, "season the storms belong to")
	seed := flag.Int64("seed", 1, "random seed")
	dirty := flag.Bool("dirty", false, "include malformed rows and a conflicting-identity storm")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *storms < 1 {
		return fmt.Errorf("-storms must be positive")
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	w, err := csvfile.Create(*out)
	if err != nil {
		return err
	}

	g := &generator{
		rng:    rand.New(rand.NewSource(*seed)),
		season: *season,
		named:  make([]int, len(basinProfiles)),
	}
	stats := &archiveStats{byBasin: map[domain.Basin]int{}, agencies: map[domain.Agency]int{}}

	for i := 0; i < *storms; i++ {
		track := g.storm(i)
		for _, obs := range track {
			if err := w.WriteObservation(obs); err != nil {
				return err
			}
		}
		stats.record(track)

		// Rereport the first storm under a second identifier with a
		// truncated track; deduplication must drop the shorter copy.
		if i == 0 {
			dup := g.rereport(track)
			for _, obs := range dup {
				if err := w.WriteObservation(obs); err != nil {
					return err
				}
			}
			stats.duplicateSID = dup[0].SID
			stats.rows += len(dup)
		}
	}

	if *dirty {
		if err := g.writeDirty(w, stats); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	log.Printf("wrote archive: %s", *out)
	printStats(stats)
	return nil
}

type generator struct {
	rng    *rand.Rand
	season int
	named  []int
}

// nameFor hands out names per basin, each basin walking its own slice
// of the list. Within one basin a name repeats only after the whole
// list is spent, so same-season rereports never collide by accident.
func (g *generator) nameFor(profileIdx int) string {
	k := g.named[profileIdx]
	g.named[profileIdx]++
	return stormNames[(profileIdx*4+k)%len(stormNames)]
}

// genesis picks a season-appropriate start time on the synoptic grid.
// Southern-hemisphere storms start late in the prior calendar year or
// early in the season year; both attribute to the same season.
func (g *generator) genesis(basin domain.Basin) time.Time {
	year := g.season
	var month time.Month
	if basin.Southern() {
		months := []time.Month{time.November, time.December, time.January, time.February, time.March}
		month = months[g.rng.Intn(len(months))]
		if month >= time.November {
			year = g.season - 1
		}
	} else {
		month = time.Month(6 + g.rng.Intn(5))
	}
	day := 1 + g.rng.Intn(28)
	hour := 6 * g.rng.Intn(4)
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func sid(genesis time.Time, lat, lon float64) string {
	hemi := "N"
	if lat < 0 {
		hemi = "S"
	}
	return fmt.Sprintf("%04d%03d%s%02d%03d", genesis.Year(), genesis.YearDay(), hemi, int(math.Abs(lat)), int(lon))
}

// storm synthesizes every agency's rows for one storm, chronologically.
func (g *generator) storm(i int) []domain.Observation {
	profileIdx := i % len(basinProfiles)
	profile := basinProfiles[profileIdx]
	genesis := g.genesis(profile.basin)

	name := g.nameFor(profileIdx)
	if i%7 == 6 {
		name = ""
	}
	atcfID := ""
	switch profile.basin {
	case domain.BasinNorthAtlantic:
		atcfID = fmt.Sprintf("AL%02d%04d", i+1, g.season)
	case domain.BasinEasternPacific:
		atcfID = fmt.Sprintf("EP%02d%04d", i+1, g.season)
	}

	points := 8 + g.rng.Intn(25)
	peak := 40 + g.rng.Float64()*110
	lat := profile.latMin + g.rng.Float64()*6
	if profile.basin.Southern() {
		lat = -lat
	}
	lon := profile.lonMin + g.rng.Float64()*(profile.lonMax-profile.lonMin)
	stormSID := sid(genesis, lat, lon)
	landfalling := g.rng.Float64() < 0.4
	distToLand := 300 + g.rng.Float64()*500

	// One storm per archive runs subtropical end to end, so the ACE
	// policy switch has something to bite on.
	subtropical := i == 2

	var rows []domain.Observation
	for p := 0; p < points; p++ {
		ts := genesis.Add(time.Duration(p) * domain.SynopticInterval)
		wind := windAt(peak, p, points)
		class := classify(wind, p, points, subtropical)

		// Poleward drift with a slow recurve past 25 degrees.
		poleward := 0.2 + g.rng.Float64()*0.4
		if lat < 0 {
			lat -= poleward
		} else {
			lat += poleward
		}
		if math.Abs(lat) > 25 {
			lon += 0.4 + g.rng.Float64()*0.5
		} else {
			lon -= 0.3 + g.rng.Float64()*0.4
		}
		dist := distToLand
		if landfalling {
			dist = math.Max(0, distToLand-float64(p)*45)
		}

		primary := domain.Observation{
			SID:            stormSID,
			ATCFID:         atcfID,
			Name:           name,
			Agency:         profile.agencies[0],
			Time:           ts,
			Lat:            round1(lat),
			Lon:            round1(normalizeLon(lon)),
			Classification: class,
			Basin:          profile.basin,
			Subbasin:       subbasinFor(profile.basin, lat, lon),
			DistToLand:     domain.Float(math.Round(dist)),
		}
		if wind >= 20 {
			primary.Wind = domain.Float(wind)
			primary.Pressure = domain.Float(math.Round(1010 - wind/2))
			primary.RMW = domain.Float(float64(15 + 5*g.rng.Intn(6)))
			primary.Radii = radiiFor(wind, g.rng)
		}
		rows = append(rows, primary)

		// Secondary agencies report intermittently and disagree a little.
		for _, agency := range profile.agencies[1:] {
			if g.rng.Float64() < 0.35 {
				continue
			}
			secondary := primary
			secondary.Agency = agency
			secondary.Lat = round1(primary.Lat + 0.1)
			secondary.RMW = nil
			secondary.Radii = domain.WindRadii{}
			secondary.DistToLand = nil
			secondary.Subbasin = domain.SubbasinMissing
			if primary.Wind != nil {
				secondary.Wind = domain.Float(*primary.Wind - 5)
				secondary.Pressure = nil
			}
			rows = append(rows, secondary)
		}
	}
	return rows
}

// rereport clones the front half of a track under a fresh identifier,
// mimicking an agency resubmitting a storm it already reported.
func (g *generator) rereport(track []domain.Observation) []domain.Observation {
	half := track[:len(track)/2]
	dup := make([]domain.Observation, len(half))
	for i, obs := range half {
		obs.SID = track[0].SID[:4] + "900" + track[0].SID[7:]
		obs.ATCFID = ""
		dup[i] = obs
	}
	return dup
}

func (g *generator) writeDirty(w *csvfile.Writer, stats *archiveStats) error {
	base := map[string]string{
		domain.ColSID:     fmt.Sprintf("%04d260N15310", stats.season()),
		domain.ColName:    "GREMLIN",
		domain.ColAgency:  "atcf",
		domain.ColISOTime: fmt.Sprintf("%04d-09-17 12:00:00", stats.season()),
		domain.ColNature:  "TS",
		domain.ColLat:     "15.0",
		domain.ColLon:     "310.0",
		domain.ColWind:    "45",
		domain.ColBasin:   "NA",
	}

	// Three rows that each trip a different parser check.
	malformed := []map[string]string{
		cloneWith(base, domain.ColISOTime, fmt.Sprintf("%04d-09-17 13:30:00", stats.season())),
		cloneWith(base, domain.ColLat, "95.2"),
		cloneWith(base, domain.ColWind, "gusty"),
	}
	for _, cells := range malformed {
		if err := w.WriteRow(cells); err != nil {
			return err
		}
	}
	stats.malformed = len(malformed)
	stats.rows += len(malformed)

	// A storm whose two rows disagree on the name; the merge rejects
	// the whole storm rather than guessing.
	conflictSID := fmt.Sprintf("%04d263N18320", stats.season())
	first := cloneWith(base, domain.ColSID, conflictSID)
	second := cloneWith(first, domain.ColName, "GOBLIN")
	second[domain.ColISOTime] = fmt.Sprintf("%04d-09-17 18:00:00", stats.season())
	if err := w.WriteRow(first); err != nil {
		return err
	}
	if err := w.WriteRow(second); err != nil {
		return err
	}
	stats.conflictSID = conflictSID
	stats.rows += 2
	return nil
}

func cloneWith(cells map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	out[key] = value
	return out
}

// windAt shapes a spin-up, peak, decay intensity curve, in 5 kt steps.
func windAt(peak float64, p, points int) float64 {
	frac := float64(p) / float64(points-1)
	var v float64
	switch {
	case frac < 0.4:
		v = peak * (0.25 + 1.875*frac)
	case frac < 0.6:
		v = peak
	default:
		v = peak * (1 - 1.75*(frac-0.6))
	}
	return math.Max(15, 5*math.Round(v/5))
}

func classify(wind float64, p, points int, subtropical bool) domain.Classification {
	if subtropical {
		return domain.ClassSubtropical
	}
	if p == 0 || wind < 25 {
		return domain.ClassDisturbance
	}
	if p >= points-2 && points > 12 {
		return domain.ClassExtratropical
	}
	return domain.ClassTropical
}

func subbasinFor(basin domain.Basin, lat, lon float64) domain.Subbasin {
	switch basin {
	case domain.BasinNorthAtlantic:
		if lat < 18 {
			return domain.SubbasinCaribbean
		}
		if lon < 280 {
			return domain.SubbasinGulfOfMexico
		}
		return domain.SubbasinNorthAtlantic
	case domain.BasinNorthIndian:
		if lon > 78 {
			return domain.SubbasinBayOfBengal
		}
		return domain.SubbasinArabianSea
	}
	return domain.SubbasinMissing
}

func radiiFor(wind float64, rng *rand.Rand) domain.WindRadii {
	var radii domain.WindRadii
	if wind < 34 {
		return radii
	}
	base := 60 + rng.Float64()*90
	radii.R34 = quadrantsScaled(base, rng)
	if wind >= 50 {
		radii.R50 = quadrantsScaled(base*0.6, rng)
	}
	if wind >= 64 {
		radii.R64 = quadrantsScaled(base*0.35, rng)
	}
	return radii
}

func quadrantsScaled(base float64, rng *rand.Rand) domain.Quadrants {
	q := func(scale float64) *float64 {
		return domain.Float(5 * math.Round(base*scale*(0.85+rng.Float64()*0.3)/5))
	}
	return domain.Quadrants{NE: q(1.1), SE: q(1.0), SW: q(0.8), NW: q(0.9)}
}

func normalizeLon(lon float64) float64 {
	for lon < 0 {
		lon += 360
	}
	for lon >= 360 {
		lon -= 360
	}
	return lon
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

type archiveStats struct {
	rows         int
	storms       int
	malformed    int
	byBasin      map[domain.Basin]int
	agencies     map[domain.Agency]int
	maxWind      float64
	duplicateSID string
	conflictSID  string
	seasonYear   int
}

func (s *archiveStats) record(track []domain.Observation) {
	s.rows += len(track)
	s.storms++
	s.byBasin[track[0].Basin]++
	for _, obs := range track {
		s.agencies[obs.Agency]++
		if obs.Wind != nil && *obs.Wind > s.maxWind {
			s.maxWind = *obs.Wind
		}
	}
	if s.seasonYear == 0 {
		s.seasonYear = track[0].Time.Year()
	}
}

func (s *archiveStats) season() int { return s.seasonYear }

func printStats(s *archiveStats) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d (malformed: %d)\n", s.rows, s.malformed)
	fmt.Printf("Storms: %d (+1 rereported duplicate %s)\n", s.storms, s.duplicateSID)
	if s.conflictSID != "" {
		fmt.Printf("Conflicting identity: %s (build must reject it)\n", s.conflictSID)
	}
	fmt.Printf("Max wind: %g kt\n", s.maxWind)
	fmt.Print("By basin:")
	for _, p := range basinProfiles {
		if n := s.byBasin[p.basin]; n > 0 {
			fmt.Printf(" %s=%d", p.basin, n)
		}
	}
	fmt.Println()
	fmt.Print("Rows by agency:")
	for _, agency := range domain.KnownAgencies {
		if n := s.agencies[agency]; n > 0 {
			fmt.Printf(" %s=%d", agency, n)
		}
	}
	fmt.Println()
}
