package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ProfileStore resolves the applicable condition profile. A nil profile with
// nil error means nothing matched; the engine then holds safe defaults.
type ProfileStore interface {
	FindProfile(ctx context.Context, plant, stage string, ownerID *string) (*Profile, error)
}

// Params are the static engine knobs, fixed at construction.
type Params struct {
	StartHour   int           // hour the daily light window opens
	RampMinutes int           // dawn/dusk ramp length
	Settle      time.Duration // post-dose settling interval
	PPMExec     time.Duration // estimated full nutrient A-gap-B execution time
	ToleranceCM float64       // default light-distance tolerance
}

// Stats holds tick counters for the /v1/stats endpoint.
type Stats struct {
	Ticks       int64 `json:"ticks"`
	Doses       int64 `json:"doses"`
	NoProfile   int64 `json:"no_profile"`
	StoreErrors int64 `json:"store_errors"`
}

// Decision is the full engine output for one sample.
type Decision struct {
	DeviceID    string     `json:"device_id"`
	Command     Command    `json:"command"`
	Statuses    StatusSet  `json:"statuses"`
	MotorReason string     `json:"motor_reason"`
	Dose        DoseResult `json:"dose"`
	ProfileID   *int64     `json:"profile_id,omitempty"`
	DecidedAt   time.Time  `json:"decided_at"`
}

// Engine turns one sensor sample into one actuator command set. It is a
// straight-line composition with no internal concurrency; all state lives in
// the profile and busy-window stores.
type Engine struct {
	profiles ProfileStore
	arbiter  *Arbiter
	params   Params
	log      *slog.Logger
	now      func() time.Time

	ticks       atomic.Int64
	doses       atomic.Int64
	noProfile   atomic.Int64
	storeErrors atomic.Int64
}

// New builds the engine. now is stubbed in tests; pass nil for wall clock.
func New(profiles ProfileStore, busy BusyStore, params Params, log *slog.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		profiles: profiles,
		arbiter:  NewArbiter(busy, params.Settle, params.PPMExec, log),
		params:   params,
		log:      log,
		now:      now,
	}
}

// Decide resolves the profile for the sample and composes the light, motor,
// status and dosing outputs. Without a profile every actuator holds its safe
// default and the arbiter never runs. A busy-store failure returns the
// partial decision (lights and motor still computed, pumps off) together
// with the error, since the engine cannot safely guess busy state.
func (e *Engine) Decide(ctx context.Context, s Sample) (Decision, error) {
	e.ticks.Add(1)
	now := e.now()

	p, err := e.profiles.FindProfile(ctx, s.Plant, s.Stage, s.OwnerID)
	if err != nil {
		e.storeErrors.Add(1)
		return Decision{
			DeviceID:  s.DeviceID,
			Command:   SafeCommand(),
			Statuses:  UnknownStatuses(),
			Dose:      DoseResult{Action: DoseNone},
			DecidedAt: now,
		}, fmt.Errorf("resolve profile: %w", err)
	}
	if p == nil {
		e.noProfile.Add(1)
		e.log.Info("no profile, holding safe defaults", "device", s.DeviceID, "plant", s.Plant, "stage", s.Stage)
		return Decision{
			DeviceID:    s.DeviceID,
			Command:     SafeCommand(),
			Statuses:    UnknownStatuses(),
			MotorReason: "N/A: no profile",
			Dose:        DoseResult{Action: DoseNone, Reason: "no profile"},
			DecidedAt:   now,
		}, nil
	}

	tolerance := e.params.ToleranceCM
	if p.DistanceToleranceCM != nil {
		tolerance = *p.DistanceToleranceCM
	}

	motor, motorReason := MotorPlan(s.DistanceCM, p.TargetDistanceCM, tolerance)
	cmd := Command{
		LightBrightness: Brightness(p.LightHours, e.params.StartHour, e.params.RampMinutes, now),
		LightMotor:      motor,
	}
	statuses := Classify(s, p)

	dose, err := e.arbiter.Decide(ctx, s.DeviceID, s.PH, s.PPM, p, now)
	dec := Decision{
		DeviceID:    s.DeviceID,
		Command:     cmd,
		Statuses:    statuses,
		MotorReason: motorReason,
		Dose:        dose,
		ProfileID:   &p.ID,
		DecidedAt:   now,
	}
	if err != nil {
		e.storeErrors.Add(1)
		return dec, err
	}
	dose.apply(&dec.Command)
	if dose.Action != DoseNone {
		e.doses.Add(1)
	}
	return dec, nil
}

// Stats snapshots the tick counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:       e.ticks.Load(),
		Doses:       e.doses.Load(),
		NoProfile:   e.noProfile.Load(),
		StoreErrors: e.storeErrors.Load(),
	}
}
