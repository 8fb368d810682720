package engine

import "testing"

func testProfile() *Profile {
	return &Profile{
		ID:          1,
		Plant:       "lettuce",
		Stage:       "vegetative",
		TempMin:     18,
		TempMax:     24,
		HumidityMin: 50,
		HumidityMax: 70,
		PHMin:       5.5,
		PHMax:       6.5,
		PPMMin:      800,
		PPMMax:      1200,
		LightHours:  14,
	}
}

func TestClassifyIdealBoundsInclusive(t *testing.T) {
	s := Sample{TempC: fp(18), Humidity: fp(70), PH: fp(6.5), PPM: fp(800)}
	got := Classify(s, testProfile())
	want := StatusSet{Temperature: StatusIdeal, Humidity: StatusIdeal, PH: StatusIdeal, PPM: StatusIdeal}
	if got != want {
		t.Fatalf("expected all IDEAL at bounds, got %+v", got)
	}
}

func TestClassifyOutOfRange(t *testing.T) {
	s := Sample{TempC: fp(30), Humidity: fp(20), PH: fp(4.9), PPM: fp(400)}
	got := Classify(s, testProfile())
	want := StatusSet{Temperature: StatusNotIdeal, Humidity: StatusNotIdeal, PH: StatusNotIdeal, PPM: StatusNotIdeal}
	if got != want {
		t.Fatalf("expected all NOT_IDEAL, got %+v", got)
	}
}

func TestClassifyDilutePrecedence(t *testing.T) {
	s := Sample{PPM: fp(1500)}
	got := Classify(s, testProfile())
	if got.PPM != StatusDilute {
		t.Fatalf("ppm overshoot must be DILUTE_WATER, got %s", got.PPM)
	}
}

func TestClassifyMissingValues(t *testing.T) {
	got := Classify(Sample{}, testProfile())
	want := UnknownStatuses()
	if got != want {
		t.Fatalf("missing readings should be UNKNOWN, got %+v", got)
	}
}

func TestClassifyNoProfile(t *testing.T) {
	s := Sample{TempC: fp(21), PH: fp(6.0)}
	if got := Classify(s, nil); got != UnknownStatuses() {
		t.Fatalf("nil profile should be all UNKNOWN, got %+v", got)
	}
}
