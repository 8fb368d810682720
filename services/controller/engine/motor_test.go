package engine

import (
	"strings"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestMotorToleranceBand(t *testing.T) {
	target := fp(15)
	cases := []struct {
		name     string
		distance *float64
		want     MotorDirection
	}{
		{"on target", fp(15), MotorStop},
		{"above band", fp(18), MotorDown},
		{"below band", fp(12), MotorUp},
		{"upper boundary inclusive", fp(17), MotorStop},
		{"lower boundary inclusive", fp(13), MotorStop},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir, msg := MotorPlan(tc.distance, target, 2)
			if dir != tc.want {
				t.Fatalf("expected %s, got %s (%s)", tc.want, dir, msg)
			}
			if !strings.Contains(msg, "15.0") || !strings.Contains(msg, "2.0") {
				t.Fatalf("message should embed target and tolerance: %q", msg)
			}
		})
	}
}

func TestMotorMissingInputs(t *testing.T) {
	if dir, msg := MotorPlan(nil, fp(15), 2); dir != MotorStop || !strings.Contains(msg, "N/A") {
		t.Fatalf("missing distance: got %s %q", dir, msg)
	}
	if dir, msg := MotorPlan(fp(15), nil, 2); dir != MotorStop || !strings.Contains(msg, "N/A") {
		t.Fatalf("missing target: got %s %q", dir, msg)
	}
}
