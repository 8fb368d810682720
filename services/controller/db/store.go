package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mossline/verdant-controller/services/controller/engine"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const findProfileOwnedSQL = `
    SELECT id, plant, stage, owner_id,
           temp_min, temp_max, humidity_min, humidity_max,
           ph_min, ph_max, ppm_min, ppm_max,
           light_hours, target_distance_cm, distance_tolerance_cm
    FROM verdant.condition_profiles
    WHERE plant = $1 AND stage = $2 AND (owner_id = $3 OR owner_id IS NULL)
    ORDER BY owner_id NULLS LAST
    LIMIT 1
`

const findProfileGlobalSQL = `
    SELECT id, plant, stage, owner_id,
           temp_min, temp_max, humidity_min, humidity_max,
           ph_min, ph_max, ppm_min, ppm_max,
           light_hours, target_distance_cm, distance_tolerance_cm
    FROM verdant.condition_profiles
    WHERE plant = $1 AND stage = $2 AND owner_id IS NULL
    LIMIT 1
`

// FindProfile resolves the condition profile for a plant and growth stage,
// preferring an owner-scoped profile and falling back to the global preset.
// Returns (nil, nil) when nothing matches.
func (s *Store) FindProfile(ctx context.Context, plant, stage string, ownerID *string) (*engine.Profile, error) {
	var row pgx.Row
	if ownerID != nil {
		row = s.pool.QueryRow(ctx, findProfileOwnedSQL, plant, stage, *ownerID)
	} else {
		row = s.pool.QueryRow(ctx, findProfileGlobalSQL, plant, stage)
	}

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProfile(row pgx.Row) (*engine.Profile, error) {
	var p engine.Profile
	if err := row.Scan(
		&p.ID,
		&p.Plant,
		&p.Stage,
		&p.OwnerID,
		&p.TempMin,
		&p.TempMax,
		&p.HumidityMin,
		&p.HumidityMax,
		&p.PHMin,
		&p.PHMax,
		&p.PPMMin,
		&p.PPMMax,
		&p.LightHours,
		&p.TargetDistanceCM,
		&p.DistanceToleranceCM,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

const listProfilesSQL = `
    SELECT id, plant, stage, owner_id,
           temp_min, temp_max, humidity_min, humidity_max,
           ph_min, ph_max, ppm_min, ppm_max,
           light_hours, target_distance_cm, distance_tolerance_cm
    FROM verdant.condition_profiles
    WHERE ($1::text IS NULL OR plant = $1)
      AND ($2::text IS NULL OR stage = $2)
      AND ($3::text IS NULL OR owner_id = $3)
    ORDER BY plant, stage, owner_id NULLS FIRST
`

// ListProfiles returns profiles matching the optional filters.
func (s *Store) ListProfiles(ctx context.Context, plant, stage, ownerID *string) ([]engine.Profile, error) {
	rows, err := s.pool.Query(ctx, listProfilesSQL, plant, stage, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]engine.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

const getBusySQL = `
    SELECT busy_until
    FROM verdant.busy_windows
    WHERE scope_id = $1
`

// GetBusy returns the dosing lockout deadline for a device scope, or nil when
// no window was ever recorded.
func (s *Store) GetBusy(ctx context.Context, scopeID string) (*time.Time, error) {
	var until time.Time
	err := s.pool.QueryRow(ctx, getBusySQL, scopeID).Scan(&until)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &until, nil
}

const acquireBusySQL = `
    INSERT INTO verdant.busy_windows (scope_id, busy_until, created_at, updated_at)
    VALUES ($1, $2, NOW(), NOW())
    ON CONFLICT (scope_id) DO UPDATE
    SET busy_until = EXCLUDED.busy_until,
        updated_at = NOW()
    WHERE verdant.busy_windows.busy_until <= $3
    RETURNING busy_until
`

// AcquireBusy sets the busy window for a scope only if no unexpired window
// exists. The conditional upsert runs server-side, so two concurrent ticks
// observing IDLE cannot both succeed. Returns the governing deadline and
// whether this call won it.
func (s *Store) AcquireBusy(ctx context.Context, scopeID string, until, now time.Time) (time.Time, bool, error) {
	var got time.Time
	err := s.pool.QueryRow(ctx, acquireBusySQL, scopeID, until, now).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		// Predicate failed: an unexpired window is already held.
		current, gerr := s.GetBusy(ctx, scopeID)
		if gerr != nil {
			return time.Time{}, false, gerr
		}
		if current == nil {
			return time.Time{}, false, nil
		}
		return *current, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return got, true, nil
}

const insertSampleSQL = `
    INSERT INTO verdant.samples (id, device_id, plant, stage, owner_id,
                                 temperature_c, humidity_pct, ph, nutrient_ppm, light_distance_cm,
                                 ts, ingested_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
    ON CONFLICT (id) DO NOTHING
`

// InsertSample records one ingested sensor sample.
func (s *Store) InsertSample(ctx context.Context, sample engine.Sample) error {
	_, err := s.pool.Exec(ctx, insertSampleSQL,
		sample.ID,
		sample.DeviceID,
		sample.Plant,
		sample.Stage,
		sample.OwnerID,
		sample.TempC,
		sample.Humidity,
		sample.PH,
		sample.PPM,
		sample.DistanceCM,
		sample.Timestamp,
	)
	return err
}

const insertDecisionSQL = `
    INSERT INTO verdant.decisions (device_id, sample_id, profile_id,
                                   light_brightness, light_motor, motor_reason,
                                   ph_up, ph_down, nutrient_a, nutrient_b,
                                   dose_action, dose_reason, busy_until,
                                   status_temperature, status_humidity, status_ph, status_ppm,
                                   decided_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
`

// InsertDecision records the engine outcome for one tick.
func (s *Store) InsertDecision(ctx context.Context, sampleID string, d engine.Decision) error {
	_, err := s.pool.Exec(ctx, insertDecisionSQL,
		d.DeviceID,
		sampleID,
		d.ProfileID,
		d.Command.LightBrightness,
		string(d.Command.LightMotor),
		d.MotorReason,
		d.Command.PHUp,
		d.Command.PHDown,
		d.Command.NutrientA,
		d.Command.NutrientB,
		string(d.Dose.Action),
		d.Dose.Reason,
		d.Dose.BusyUntil,
		string(d.Statuses.Temperature),
		string(d.Statuses.Humidity),
		string(d.Statuses.PH),
		string(d.Statuses.PPM),
		d.DecidedAt,
	)
	return err
}

// DecisionRecord is one persisted decision row.
type DecisionRecord struct {
	DeviceID        string     `json:"device_id"`
	SampleID        string     `json:"sample_id"`
	ProfileID       *int64     `json:"profile_id,omitempty"`
	LightBrightness int        `json:"light_brightness"`
	LightMotor      string     `json:"light_motor"`
	MotorReason     string     `json:"motor_reason"`
	PHUp            bool       `json:"ph_up"`
	PHDown          bool       `json:"ph_down"`
	NutrientA       bool       `json:"nutrient_a"`
	NutrientB       bool       `json:"nutrient_b"`
	DoseAction      string     `json:"dose_action"`
	DoseReason      string     `json:"dose_reason"`
	BusyUntil       *time.Time `json:"busy_until,omitempty"`
	DecidedAt       time.Time  `json:"decided_at"`
}

const latestDecisionSQL = `
    SELECT device_id, sample_id, profile_id,
           light_brightness, light_motor, motor_reason,
           ph_up, ph_down, nutrient_a, nutrient_b,
           dose_action, dose_reason, busy_until, decided_at
    FROM verdant.decisions
    WHERE device_id = $1
    ORDER BY decided_at DESC
    LIMIT 1
`

// LatestDecision returns the most recent persisted decision for a device, or
// nil when the device has never been decided for.
func (s *Store) LatestDecision(ctx context.Context, deviceID string) (*DecisionRecord, error) {
	row := s.pool.QueryRow(ctx, latestDecisionSQL, deviceID)

	var r DecisionRecord
	err := row.Scan(
		&r.DeviceID,
		&r.SampleID,
		&r.ProfileID,
		&r.LightBrightness,
		&r.LightMotor,
		&r.MotorReason,
		&r.PHUp,
		&r.PHDown,
		&r.NutrientA,
		&r.NutrientB,
		&r.DoseAction,
		&r.DoseReason,
		&r.BusyUntil,
		&r.DecidedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
