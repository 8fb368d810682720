package engine

// Classify labels every metric of a sample against the profile ranges.
// Nutrient overshoot gets the distinct DILUTE_WATER label: it warns the
// operator to dilute manually and never drives a dose.
func Classify(s Sample, p *Profile) StatusSet {
	if p == nil {
		return UnknownStatuses()
	}
	return StatusSet{
		Temperature: rangeStatus(s.TempC, p.TempMin, p.TempMax),
		Humidity:    rangeStatus(s.Humidity, p.HumidityMin, p.HumidityMax),
		PH:          rangeStatus(s.PH, p.PHMin, p.PHMax),
		PPM:         ppmStatus(s.PPM, p.PPMMin, p.PPMMax),
	}
}

func rangeStatus(v *float64, min, max float64) Status {
	if v == nil {
		return StatusUnknown
	}
	if *v >= min && *v <= max {
		return StatusIdeal
	}
	return StatusNotIdeal
}

func ppmStatus(v *float64, min, max float64) Status {
	if v == nil {
		return StatusUnknown
	}
	if *v > max {
		return StatusDilute
	}
	if *v >= min {
		return StatusIdeal
	}
	return StatusNotIdeal
}
