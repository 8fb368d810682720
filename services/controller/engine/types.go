package engine

import "time"

// Sample is one measurement event from a hydroponics controller. Readings the
// device could not take arrive as nil and are never guessed at.
type Sample struct {
	ID         string    `json:"id,omitempty"`
	DeviceID   string    `json:"device_id"`
	Plant      string    `json:"plant"`
	Stage      string    `json:"stage"`
	OwnerID    *string   `json:"owner_id,omitempty"`
	TempC      *float64  `json:"temperature_c,omitempty"`
	Humidity   *float64  `json:"humidity_pct,omitempty"`
	PH         *float64  `json:"ph,omitempty"`
	PPM        *float64  `json:"nutrient_ppm,omitempty"`
	DistanceCM *float64  `json:"light_distance_cm,omitempty"`
	Timestamp  time.Time `json:"ts"`
}

// Profile holds the target condition ranges for a (plant, stage) pair.
// OwnerID is nil for global presets.
type Profile struct {
	ID                  int64    `json:"id"`
	Plant               string   `json:"plant"`
	Stage               string   `json:"stage"`
	OwnerID             *string  `json:"owner_id,omitempty"`
	TempMin             float64  `json:"temp_min"`
	TempMax             float64  `json:"temp_max"`
	HumidityMin         float64  `json:"humidity_min"`
	HumidityMax         float64  `json:"humidity_max"`
	PHMin               float64  `json:"ph_min"`
	PHMax               float64  `json:"ph_max"`
	PPMMin              float64  `json:"ppm_min"`
	PPMMax              float64  `json:"ppm_max"`
	LightHours          float64  `json:"light_hours_per_day"`
	TargetDistanceCM    *float64 `json:"target_light_distance_cm,omitempty"`
	DistanceToleranceCM *float64 `json:"light_distance_tolerance_cm,omitempty"`
}

// MotorDirection is the light-fixture motor command.
type MotorDirection string

const (
	MotorUp   MotorDirection = "UP"
	MotorDown MotorDirection = "DOWN"
	MotorStop MotorDirection = "STOP"
)

// Status classifies one metric against its ideal range.
type Status string

const (
	StatusIdeal    Status = "IDEAL"
	StatusNotIdeal Status = "NOT_IDEAL"
	StatusDilute   Status = "DILUTE_WATER"
	StatusUnknown  Status = "UNKNOWN"
)

// StatusSet holds the per-metric classification for one sample.
type StatusSet struct {
	Temperature Status `json:"temperature"`
	Humidity    Status `json:"humidity"`
	PH          Status `json:"ph"`
	PPM         Status `json:"ppm"`
}

// Command is the full actuator command set for one tick. PHUp/PHDown are
// mutually exclusive, NutrientA and NutrientB always move together, and pH
// pumps preempt nutrient pumps.
type Command struct {
	LightBrightness int            `json:"light_brightness"`
	LightMotor      MotorDirection `json:"light_motor"`
	PHUp            bool           `json:"ph_up"`
	PHDown          bool           `json:"ph_down"`
	NutrientA       bool           `json:"nutrient_a"`
	NutrientB       bool           `json:"nutrient_b"`
}

// SafeCommand is the all-off command used whenever the engine cannot decide.
func SafeCommand() Command {
	return Command{LightBrightness: 0, LightMotor: MotorStop}
}

// UnknownStatuses marks every metric UNKNOWN (no profile to compare against).
func UnknownStatuses() StatusSet {
	return StatusSet{
		Temperature: StatusUnknown,
		Humidity:    StatusUnknown,
		PH:          StatusUnknown,
		PPM:         StatusUnknown,
	}
}
