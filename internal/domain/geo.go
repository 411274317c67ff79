package domain

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used for all track
	// geometry.
	EarthRadiusKm = 6371.0

	// NauticalMilesPerKm converts great-circle kilometers to nautical
	// miles, so distances over time become speeds in knots.
	NauticalMilesPerKm = 0.539957
)

// GreatCircleKm returns the spherical-law-of-cosines distance in
// kilometers between two points given in degrees. Longitudes may be in
// either [-180,180] or [0,360); only differences matter.
func GreatCircleKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dLambda := (lon2 - lon1) * degToRad

	arg := math.Sin(phi1)*math.Sin(phi2) + math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	// Rounding can push identical points just past 1.
	arg = math.Min(1, math.Max(-1, arg))
	return EarthRadiusKm * math.Acos(arg)
}

// Box is a closed latitude/longitude region in the archive's [0,360)
// longitude convention. A box with LonMin > LonMax wraps across the
// prime meridian: lon 355 and lon 5 both fall inside [350,10].
type Box struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Contains reports whether the point lies inside the box, boundaries
// included.
func (b Box) Contains(lat, lon float64) bool {
	if lat < b.LatMin || lat > b.LatMax {
		return false
	}
	if b.LonMin > b.LonMax {
		return lon >= b.LonMin || lon <= b.LonMax
	}
	return lon >= b.LonMin && lon <= b.LonMax
}
