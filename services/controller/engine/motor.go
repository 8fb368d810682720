package engine

import "fmt"

// MotorPlan compares the measured light-to-canopy distance against the target
// band and returns the motor direction plus a human-readable reason. Missing
// measurement or target means STOP; the tolerance band itself is the only
// hysteresis since every tick re-evaluates.
func MotorPlan(distanceCM, targetCM *float64, toleranceCM float64) (MotorDirection, string) {
	if distanceCM == nil || targetCM == nil {
		return MotorStop, "N/A: light distance or target not available"
	}

	d, t := *distanceCM, *targetCM
	switch {
	case d > t+toleranceCM:
		return MotorDown, fmt.Sprintf("too high: measured %.1fcm, target %.1f±%.1fcm, moving down", d, t, toleranceCM)
	case d < t-toleranceCM:
		return MotorUp, fmt.Sprintf("too low: measured %.1fcm, target %.1f±%.1fcm, moving up", d, t, toleranceCM)
	default:
		return MotorStop, fmt.Sprintf("ok: measured %.1fcm within %.1f±%.1fcm", d, t, toleranceCM)
	}
}
