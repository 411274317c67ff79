package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Classification is the storm-system classification carried by every
// observation. Codes follow the archive's NATURE column.
type Classification string

const (
	ClassTropical      Classification = "TS"
	ClassSubtropical   Classification = "SS"
	ClassExtratropical Classification = "ET"
	ClassDisturbance   Classification = "DS"
	ClassNotReported   Classification = "NR"
	// ClassMixture marks a point where reporting agencies contradict
	// each other on the system's nature.
	ClassMixture Classification = "MX"
)

var classificationNames = map[Classification]string{
	ClassTropical:      "Tropical",
	ClassSubtropical:   "Subtropical",
	ClassExtratropical: "Extratropical",
	ClassDisturbance:   "Disturbance",
	ClassNotReported:   "Not reported",
	ClassMixture:       "Mixture",
}

// ParseClassification validates a raw NATURE code.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := classificationNames[c]; !ok {
		return "", fmt.Errorf("unknown classification %q", s)
	}
	return c, nil
}

// Describe returns the human-readable name for the code.
func (c Classification) Describe() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return string(c)
}

// Basin is one of the seven ocean basins the archive partitions storms
// into.
type Basin string

const (
	BasinNorthAtlantic  Basin = "NA"
	BasinEasternPacific Basin = "EP"
	BasinWesternPacific Basin = "WP"
	BasinNorthIndian    Basin = "NI"
	BasinSouthIndian    Basin = "SI"
	BasinSouthPacific   Basin = "SP"
	BasinSouthAtlantic  Basin = "SA"
)

var basinNames = map[Basin]string{
	BasinNorthAtlantic:  "North Atlantic",
	BasinEasternPacific: "Eastern Pacific",
	BasinWesternPacific: "Western Pacific",
	BasinNorthIndian:    "North Indian",
	BasinSouthIndian:    "South Indian",
	BasinSouthPacific:   "South Pacific",
	BasinSouthAtlantic:  "South Atlantic",
}

// NorthernBasins and SouthernBasins partition the basins by hemisphere.
// The split drives season attribution and hemispheric aggregates.
var (
	NorthernBasins = []Basin{BasinNorthAtlantic, BasinEasternPacific, BasinWesternPacific, BasinNorthIndian}
	SouthernBasins = []Basin{BasinSouthIndian, BasinSouthPacific, BasinSouthAtlantic}
)

// ParseBasin validates a raw BASIN code.
func ParseBasin(s string) (Basin, error) {
	b := Basin(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := basinNames[b]; !ok {
		return "", fmt.Errorf("unknown basin %q", s)
	}
	return b, nil
}

// Describe returns the human-readable name for the code.
func (b Basin) Describe() string {
	if name, ok := basinNames[b]; ok {
		return name
	}
	return string(b)
}

// Southern reports whether the basin lies in the southern hemisphere,
// where the storm season straddles the calendar year.
func (b Basin) Southern() bool {
	switch b {
	case BasinSouthIndian, BasinSouthPacific, BasinSouthAtlantic:
		return true
	}
	return false
}

// Subbasin refines the basin for storms in subdivided regions. MM marks
// an observation without a subbasin assignment.
type Subbasin string

const (
	SubbasinCaribbean      Subbasin = "CS"
	SubbasinGulfOfMexico   Subbasin = "GM"
	SubbasinCentralPacific Subbasin = "CP"
	SubbasinBayOfBengal    Subbasin = "BB"
	SubbasinArabianSea     Subbasin = "AS"
	SubbasinWestAustralia  Subbasin = "WA"
	SubbasinEastAustralia  Subbasin = "EA"
	SubbasinNorthAtlantic  Subbasin = "NA"
	SubbasinMissing        Subbasin = "MM"
)

var subbasinNames = map[Subbasin]string{
	SubbasinCaribbean:      "Caribbean Sea",
	SubbasinGulfOfMexico:   "Gulf of Mexico",
	SubbasinCentralPacific: "Central Pacific",
	SubbasinBayOfBengal:    "Bay of Bengal",
	SubbasinArabianSea:     "Arabian Sea",
	SubbasinWestAustralia:  "Western Australia",
	SubbasinEastAustralia:  "Eastern Australia",
	SubbasinNorthAtlantic:  "North Atlantic",
	SubbasinMissing:        "No subbasin",
}

// ParseSubbasin validates a raw SUBBASIN code. The empty string maps to
// SubbasinMissing: many agencies never assign one.
func ParseSubbasin(s string) (Subbasin, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return SubbasinMissing, nil
	}
	sb := Subbasin(trimmed)
	if _, ok := subbasinNames[sb]; !ok {
		return "", fmt.Errorf("unknown subbasin %q", s)
	}
	return sb, nil
}

// Describe returns the human-readable name for the code.
func (s Subbasin) Describe() string {
	if name, ok := subbasinNames[s]; ok {
		return name
	}
	return string(s)
}

// Agency identifies the reporting center that produced an observation.
type Agency string

const (
	AgencyATCF       Agency = "atcf"
	AgencyBOM        Agency = "bom"
	AgencyCPHC       Agency = "cphc"
	AgencyHurdatATL  Agency = "hurdat_atl"
	AgencyHurdatEPA  Agency = "hurdat_epa"
	AgencyNadi       Agency = "nadi"
	AgencyNewDelhi   Agency = "newdelhi"
	AgencyReunion    Agency = "reunion"
	AgencyTokyo      Agency = "tokyo"
	AgencyWellington Agency = "wellington"
)

// KnownAgencies lists every agency the archive carries, alphabetically.
// The order is the stable fallback ranking for agencies left out of a
// configured precedence list.
var KnownAgencies = []Agency{
	AgencyATCF,
	AgencyBOM,
	AgencyCPHC,
	AgencyHurdatATL,
	AgencyHurdatEPA,
	AgencyNadi,
	AgencyNewDelhi,
	AgencyReunion,
	AgencyTokyo,
	AgencyWellington,
}

// ParseAgency validates a raw agency label.
func ParseAgency(s string) (Agency, error) {
	a := Agency(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownAgencies {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown agency %q", s)
}

// SortAgencies orders a set of agencies alphabetically in place and
// returns it. Storm-level agency lists use this ordering so repeated
// builds emit identical output.
func SortAgencies(agencies []Agency) []Agency {
	sort.Slice(agencies, func(i, j int) bool { return agencies[i] < agencies[j] })
	return agencies
}
