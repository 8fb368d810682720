package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DoseAction identifies which single dosing action a tick starts, if any.
type DoseAction string

const (
	DoseNone     DoseAction = "NONE"
	DosePHUp     DoseAction = "PH_UP"
	DosePHDown   DoseAction = "PH_DOWN"
	DoseNutrient DoseAction = "NUTRIENT"
)

// BusyStore persists the per-device dosing lockout. AcquireBusy must be
// atomic: it sets a new window only when no unexpired window exists, so two
// concurrent ticks can never both start a dose.
type BusyStore interface {
	GetBusy(ctx context.Context, scopeID string) (*time.Time, error)
	AcquireBusy(ctx context.Context, scopeID string, until time.Time, now time.Time) (time.Time, bool, error)
}

// DoseResult reports the arbiter outcome for one tick.
type DoseResult struct {
	Action    DoseAction `json:"action"`
	Reason    string     `json:"reason"`
	BusyUntil *time.Time `json:"busy_until,omitempty"`
}

// Arbiter decides which dosing pump, if any, to start on a tick. A single
// busy window per device covers every dose plus its settle time, so tank
// chemistry stabilizes before the next reading is trusted and a multi-step
// nutrient sequence cannot be fragmented by a pH correction.
type Arbiter struct {
	store   BusyStore
	settle  time.Duration
	ppmExec time.Duration
	log     *slog.Logger
}

// NewArbiter wires the arbiter to its busy-window store. settle is the
// post-dose settling interval; ppmExec estimates the device's full
// A-gap-B nutrient sequence duration.
func NewArbiter(store BusyStore, settle, ppmExec time.Duration, log *slog.Logger) *Arbiter {
	return &Arbiter{store: store, settle: settle, ppmExec: ppmExec, log: log}
}

// Decide runs one arbitration tick. Corrections are evaluated in strict
// priority order (pH up, pH down, then nutrients) and at most one fires.
// A missing reading never triggers a correction on that axis. Store failures
// propagate: the caller must refuse to dose rather than risk an overlap.
func (a *Arbiter) Decide(ctx context.Context, scopeID string, ph, ppm *float64, p *Profile, now time.Time) (DoseResult, error) {
	until, err := a.store.GetBusy(ctx, scopeID)
	if err != nil {
		return DoseResult{Action: DoseNone}, fmt.Errorf("read busy window: %w", err)
	}
	if until != nil && until.After(now) {
		return DoseResult{
			Action:    DoseNone,
			Reason:    fmt.Sprintf("settling until %s", until.UTC().Format(time.RFC3339)),
			BusyUntil: until,
		}, nil
	}

	action, reason, hold := a.plan(ph, ppm, p)
	if action == DoseNone {
		return DoseResult{Action: DoseNone, Reason: reason}, nil
	}

	acquired, ok, err := a.store.AcquireBusy(ctx, scopeID, now.Add(hold), now)
	if err != nil {
		return DoseResult{Action: DoseNone}, fmt.Errorf("acquire busy window: %w", err)
	}
	if !ok {
		// Lost the race to a concurrent tick; its window now governs.
		a.log.Warn("busy window contended, skipping dose", "scope", scopeID, "wanted", action)
		return DoseResult{
			Action:    DoseNone,
			Reason:    "busy window held by concurrent tick",
			BusyUntil: &acquired,
		}, nil
	}

	a.log.Info("dose started", "scope", scopeID, "action", action, "until", acquired.UTC().Format(time.RFC3339), "reason", reason)
	return DoseResult{Action: action, Reason: reason, BusyUntil: &acquired}, nil
}

// plan is the ordered guarded-check sequence: the first matching correction
// wins and also determines how long the busy window must hold.
func (a *Arbiter) plan(ph, ppm *float64, p *Profile) (DoseAction, string, time.Duration) {
	if ph != nil {
		if *ph < p.PHMin {
			return DosePHUp, fmt.Sprintf("ph %.2f below %.2f", *ph, p.PHMin), a.settle
		}
		if *ph > p.PHMax {
			return DosePHDown, fmt.Sprintf("ph %.2f above %.2f", *ph, p.PHMax), a.settle
		}
	}
	// Nutrient reservation spans the whole A-gap-B sequence plus settle, so
	// a pH swing mid-sequence cannot interleave another dose.
	if ppm != nil && *ppm < p.PPMMin {
		return DoseNutrient, fmt.Sprintf("ppm %.0f below %.0f", *ppm, p.PPMMin), a.ppmExec + a.settle
	}
	return DoseNone, "all readings within thresholds", 0
}

// apply translates the chosen action into pump flags. Nutrient A and B are
// two halves of one dose and always switch together.
func (r DoseResult) apply(cmd *Command) {
	switch r.Action {
	case DosePHUp:
		cmd.PHUp = true
	case DosePHDown:
		cmd.PHDown = true
	case DoseNutrient:
		cmd.NutrientA = true
		cmd.NutrientB = true
	}
}
