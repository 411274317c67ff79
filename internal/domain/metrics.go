package domain

// ACEWindThreshold is the minimum sustained wind, in knots, for an
// observation to contribute accumulated cyclone energy.
const ACEWindThreshold = 34.0

// ACE returns the storm's accumulated cyclone energy: the sum of
// squared sustained winds, in 1e-4 kt^2, over qualifying synoptic
// observations. Extratropical and disturbance points never qualify;
// subtropical points qualify only when includeSubtropical is set.
// Points without a wind estimate contribute nothing.
func (s *Storm) ACE(includeSubtropical bool) float64 {
	ace := 0.0
	for i, wind := range s.Winds {
		if wind == nil || *wind < ACEWindThreshold {
			continue
		}
		switch s.Classifications[i] {
		case ClassExtratropical, ClassDisturbance:
			continue
		case ClassSubtropical:
			if !includeSubtropical {
				continue
			}
		}
		ace += *wind * *wind * 1e-4
	}
	return ace
}

// MaxWind returns the storm's peak sustained wind in knots, or nil
// when no observation carried a wind estimate.
func (s *Storm) MaxWind() *float64 {
	var max *float64
	for _, wind := range s.Winds {
		if wind == nil {
			continue
		}
		if max == nil || *wind > *max {
			v := *wind
			max = &v
		}
	}
	return max
}

// MinPressure returns the storm's lowest sea-level pressure in hPa, or
// nil when no observation carried a pressure estimate.
func (s *Storm) MinPressure() *float64 {
	var min *float64
	for _, pressure := range s.Pressures {
		if pressure == nil {
			continue
		}
		if min == nil || *pressure < *min {
			v := *pressure
			min = &v
		}
	}
	return min
}

// IntersectsBox reports whether any observed storm position falls
// inside the box. Only observed points count; no positions are
// interpolated between them.
func (s *Storm) IntersectsBox(box Box) bool {
	for i := range s.Times {
		if box.Contains(s.Lats[i], s.Lons[i]) {
			return true
		}
	}
	return false
}
