package engine

import (
	"math"
	"time"
)

const minutesPerDay = 24 * 60

// Brightness computes the 0-255 light level for the given wall-clock time.
// The ON window is [startHour, startHour+hoursPerDay) on a 24h ring, with a
// raised-cosine ramp of rampMinutes at dawn and dusk. Windows shorter than
// two ramps degrade to a plain on/off step, since overlapping ramps would
// dim midday below the plateau.
func Brightness(hoursPerDay float64, startHour int, rampMinutes int, now time.Time) int {
	if hoursPerDay <= 0 {
		return 0
	}
	if hoursPerDay >= 24 {
		return 255
	}

	window := hoursPerDay * 60
	ramp := float64(rampMinutes)

	minute := float64(now.Hour()*60+now.Minute()) + float64(now.Second())/60
	elapsed := minute - float64(startHour*60)
	if elapsed < 0 {
		elapsed += minutesPerDay
	}

	if elapsed >= window {
		return 0
	}
	if ramp <= 0 || window < 2*ramp {
		return 255
	}
	if elapsed < ramp {
		return scale(ease(elapsed / ramp))
	}
	if remaining := window - elapsed; remaining < ramp {
		return scale(ease(remaining / ramp))
	}
	return 255
}

// ease maps [0,1] onto [0,1] with zero slope at both ends.
func ease(x float64) float64 {
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}
	return 0.5 - 0.5*math.Cos(x*math.Pi)
}

func scale(frac float64) int {
	v := int(math.Round(frac * 255))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
