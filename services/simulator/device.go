package main

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Device is one simulated hydroponics rig. Readings drift as a bounded
// random walk; actuator commands from the controller nudge them back, which
// closes the loop well enough to watch dosing and lockouts behave.
type Device struct {
	ID       string
	Plant    string
	Stage    string
	Temp     float64
	Humidity float64
	PH       float64
	PPM      float64
	Distance float64
}

// NewDevice seeds a device with mid-range conditions.
func NewDevice(plant, stage string, rng *rand.Rand) *Device {
	return &Device{
		ID:       "rig-" + uuid.NewString()[:8],
		Plant:    plant,
		Stage:    stage,
		Temp:     21 + rng.Float64()*4,
		Humidity: 55 + rng.Float64()*15,
		PH:       5.6 + rng.Float64()*0.8,
		PPM:      850 + rng.Float64()*300,
		Distance: 14 + rng.Float64()*4,
	}
}

// Step advances the random walk one tick.
func (d *Device) Step(rng *rand.Rand) {
	d.Temp += (rng.Float64() - 0.5) * 0.6
	d.Humidity = clampF(d.Humidity+(rng.Float64()-0.5)*2, 20, 95)
	d.PH = clampF(d.PH+(rng.Float64()-0.52)*0.12, 3.5, 8.5)
	d.PPM = clampF(d.PPM+(rng.Float64()-0.55)*30, 200, 2000)
	d.Distance = clampF(d.Distance+(rng.Float64()-0.5)*0.4, 5, 40)
}

// Sample snapshots the current readings as an ingestion payload.
func (d *Device) Sample(now time.Time) SamplePayload {
	return SamplePayload{
		DeviceID:   d.ID,
		Plant:      d.Plant,
		Stage:      d.Stage,
		TempC:      d.Temp,
		Humidity:   d.Humidity,
		PH:         d.PH,
		PPM:        d.PPM,
		DistanceCM: d.Distance,
		Timestamp:  now,
	}
}

// Apply mimics the physical effect of the returned actuator command.
func (d *Device) Apply(cmd CommandPayload) {
	switch cmd.LightMotor {
	case "UP":
		d.Distance -= 0.5
	case "DOWN":
		d.Distance += 0.5
	}
	if cmd.PHUp {
		d.PH += 0.2
	}
	if cmd.PHDown {
		d.PH -= 0.2
	}
	if cmd.NutrientA && cmd.NutrientB {
		d.PPM += 90
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
