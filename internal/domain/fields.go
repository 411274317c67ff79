package domain

// Field names one independently-merged group of observation values.
// Position (lat+lon) moves as a unit so a track never mixes one
// agency's latitude with another's longitude, and each wind-radii
// threshold moves as a four-quadrant unit for the same reason.
type Field string

const (
	FieldPosition       Field = "position"
	FieldWind           Field = "wind"
	FieldPressure       Field = "mslp"
	FieldClassification Field = "classification"
	FieldBasin          Field = "basin"
	FieldSubbasin       Field = "subbasin"
	FieldR34            Field = "r34"
	FieldR50            Field = "r50"
	FieldR64            Field = "r64"
	FieldRMW            Field = "rmw"
	FieldDistToLand     Field = "dist2land"
)

// MergeFields lists every field group in resolution order.
var MergeFields = []Field{
	FieldPosition,
	FieldWind,
	FieldPressure,
	FieldClassification,
	FieldBasin,
	FieldSubbasin,
	FieldR34,
	FieldR50,
	FieldR64,
	FieldRMW,
	FieldDistToLand,
}

// FieldInfo documents one serialized storm attribute.
type FieldInfo struct {
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// quadrantSuffixes expands a wind-radii threshold into its four
// compass-quadrant attributes, clockwise from northeast.
var quadrantSuffixes = []string{"ne", "se", "sw", "nw"}

// Schema maps every attribute of a serialized storm document to its
// unit and description. Persistence backends embed it so a reader of
// the stored form never needs this package to interpret a column.
var Schema = buildSchema()

func buildSchema() map[string]FieldInfo {
	schema := map[string]FieldInfo{
		"id":             {Unit: "", Description: "Archive serial identifier for the storm"},
		"atcf_id":        {Unit: "", Description: "ATCF identifier, when a US agency tracked the storm"},
		"name":           {Unit: "", Description: "Storm name, NOT_NAMED when no agency named it"},
		"season":         {Unit: "year", Description: "Season the storm is attributed to"},
		"basin":          {Unit: "", Description: "Basin at genesis"},
		"subbasin":       {Unit: "", Description: "Subbasin at genesis"},
		"genesis":        {Unit: "UTC", Description: "Timestamp of the first observation"},
		"agencies":       {Unit: "", Description: "Reporting agencies that contributed winning values"},
		"time":           {Unit: "UTC", Description: "Observation timestamps on the synoptic grid"},
		"lat":            {Unit: "degrees north", Description: "Storm center latitude"},
		"lon":            {Unit: "degrees east", Description: "Storm center longitude in [0,360)"},
		"wind":           {Unit: "kt", Description: "Maximum sustained wind speed"},
		"mslp":           {Unit: "hPa", Description: "Minimum sea-level pressure"},
		"classification": {Unit: "", Description: "System classification code"},
		"basins":         {Unit: "", Description: "Basin the storm occupied at each observation"},
		"subbasins":      {Unit: "", Description: "Subbasin the storm occupied at each observation"},
		"speed":          {Unit: "kt", Description: "Translation speed of the storm center"},
		"rmw":            {Unit: "nm", Description: "Radius of maximum winds"},
		"dist2land":      {Unit: "km", Description: "Distance to the nearest land"},
		"provenance":     {Unit: "", Description: "Winning agency per field group at each observation"},
	}
	for _, threshold := range []string{"34", "50", "64"} {
		for _, quadrant := range quadrantSuffixes {
			schema["r"+threshold+"_"+quadrant] = FieldInfo{
				Unit:        "nm",
				Description: "Radius of " + threshold + " kt winds in the " + quadrant + " quadrant",
			}
		}
	}
	return schema
}
