package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mossline/verdant-controller/services/controller/config"
	"github.com/mossline/verdant-controller/services/controller/db"
	"github.com/mossline/verdant-controller/services/controller/engine"
)

// stubStore backs both the handler persistence surface and the engine's
// profile/busy stores for end-to-end handler tests.
type stubStore struct {
	mu       sync.Mutex
	profile  *engine.Profile
	profiles []engine.Profile
	windows  map[string]time.Time
	latest   *db.DecisionRecord
	samples  []engine.Sample
}

func newStubStore(p *engine.Profile) *stubStore {
	return &stubStore{profile: p, windows: map[string]time.Time{}}
}

func (s *stubStore) FindProfile(_ context.Context, plant, stage string, ownerID *string) (*engine.Profile, error) {
	return s.profile, nil
}

func (s *stubStore) GetBusy(_ context.Context, scopeID string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.windows[scopeID]; ok {
		u := until
		return &u, nil
	}
	return nil, nil
}

func (s *stubStore) AcquireBusy(_ context.Context, scopeID string, until, now time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.windows[scopeID]; ok && cur.After(now) {
		return cur, false, nil
	}
	s.windows[scopeID] = until
	return until, true, nil
}

func (s *stubStore) ListProfiles(_ context.Context, plant, stage, ownerID *string) ([]engine.Profile, error) {
	return s.profiles, nil
}

func (s *stubStore) InsertSample(_ context.Context, sample engine.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
	return nil
}

func (s *stubStore) InsertDecision(_ context.Context, sampleID string, d engine.Decision) error {
	return nil
}

func (s *stubStore) LatestDecision(_ context.Context, deviceID string) (*db.DecisionRecord, error) {
	return s.latest, nil
}

func testProfile() *engine.Profile {
	target := 15.0
	return &engine.Profile{
		ID: 1, Plant: "lettuce", Stage: "vegetative",
		TempMin: 18, TempMax: 24,
		HumidityMin: 50, HumidityMax: 70,
		PHMin: 5.5, PHMax: 6.5,
		PPMMin: 800, PPMMax: 1200,
		LightHours:       14,
		TargetDistanceCM: &target,
	}
}

func newTestServer(t *testing.T, store *stubStore, cfg config.Config) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	eng := engine.New(store, store, engine.Params{
		StartHour:   6,
		RampMinutes: 60,
		Settle:      120 * time.Second,
		PPMExec:     120 * time.Second,
		ToleranceCM: 2,
	}, log, func() time.Time { return noon })
	return New(cfg, store, eng, nil)
}

func postSample(t *testing.T, srv *Server, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/samples", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestIngestSampleDecision(t *testing.T) {
	store := newStubStore(testProfile())
	srv := newTestServer(t, store, config.Config{})

	rec := postSample(t, srv, map[string]any{
		"device_id":         "dev-1",
		"plant":             "lettuce",
		"stage":             "vegetative",
		"temperature_c":     21.0,
		"humidity_pct":      60.0,
		"ph":                5.0,
		"nutrient_ppm":      500.0,
		"light_distance_cm": 18.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var body struct {
		SampleID string         `json:"sample_id"`
		Command  engine.Command `json:"command"`
		Statuses engine.StatusSet
		Dose     engine.DoseResult `json:"dose"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SampleID == "" {
		t.Fatal("sample id should be assigned")
	}
	if !body.Command.PHUp || body.Command.NutrientA {
		t.Fatalf("low pH must preempt nutrients: %+v", body.Command)
	}
	if body.Command.LightBrightness != 255 {
		t.Fatalf("noon plateau expected 255, got %d", body.Command.LightBrightness)
	}
	if body.Command.LightMotor != engine.MotorDown {
		t.Fatalf("18cm vs 15±2 should move down, got %s", body.Command.LightMotor)
	}
	if body.Dose.Action != engine.DosePHUp {
		t.Fatalf("expected PH_UP dose, got %s", body.Dose.Action)
	}
	if len(store.samples) != 1 {
		t.Fatalf("sample should be persisted, got %d", len(store.samples))
	}

	// Immediate second sample hits the settle lockout.
	rec = postSample(t, srv, map[string]any{
		"device_id": "dev-1", "plant": "lettuce", "stage": "vegetative", "ph": 4.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Command.PHUp || body.Command.PHDown || body.Command.NutrientA {
		t.Fatalf("locked-out tick must not dose: %+v", body.Command)
	}
}

func TestIngestSampleValidation(t *testing.T) {
	srv := newTestServer(t, newStubStore(nil), config.Config{})

	rec := postSample(t, srv, map[string]any{"plant": "lettuce", "stage": "vegetative"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing device_id should 400, got %d", rec.Code)
	}

	rec = postSample(t, srv, map[string]any{"device_id": "dev-1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing plant/stage should 400, got %d", rec.Code)
	}
}

func TestIngestSampleNoProfile(t *testing.T) {
	srv := newTestServer(t, newStubStore(nil), config.Config{})

	rec := postSample(t, srv, map[string]any{
		"device_id": "dev-1", "plant": "basil", "stage": "seedling", "ph": 3.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body struct {
		Command  engine.Command   `json:"command"`
		Statuses engine.StatusSet `json:"statuses"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Command != engine.SafeCommand() {
		t.Fatalf("no profile must return safe command: %+v", body.Command)
	}
	if body.Statuses != engine.UnknownStatuses() {
		t.Fatalf("no profile must return UNKNOWN statuses: %+v", body.Statuses)
	}
}

func TestLockoutEndpoint(t *testing.T) {
	store := newStubStore(nil)
	srv := newTestServer(t, store, config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/devices/dev-1/lockout", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body struct {
		Busy bool `json:"busy"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Busy {
		t.Fatal("fresh device should not be busy")
	}

	store.mu.Lock()
	store.windows["dev-1"] = time.Now().UTC().Add(2 * time.Minute)
	store.mu.Unlock()

	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Busy {
		t.Fatal("device inside window should be busy")
	}
}

func TestLatestDecisionNotFound(t *testing.T) {
	srv := newTestServer(t, newStubStore(nil), config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/devices/dev-9/latest", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(t, newStubStore(nil), config.Config{BearerToken: "sekrit"})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token should 401, got %d", rec.Code)
	}

	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token should 200, got %d", rec.Code)
	}
}
