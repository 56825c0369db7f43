package dsp

import (
	"math"
	"testing"
)

func TestLinearSmootherReachesTargetExactly(t *testing.T) {
	s := NewLinearSmoother(5, 0)
	s.SetTarget(1000, 1)
	want := []float32{0.2, 0.4, 0.6, 0.8, 1, 1}
	for i, w := range want {
		got := s.Next()
		if math.Abs(float64(got-w)) > 1e-6 {
			t.Fatalf("step %d: got=%f want=%f", i, got, w)
		}
	}
	if s.IsSmoothing() {
		t.Fatalf("still smoothing after ramp")
	}
	if s.Value() != 1 {
		t.Fatalf("final value must equal target, got %f", s.Value())
	}
}

func TestLinearSmootherRetargetMidRamp(t *testing.T) {
	s := NewLinearSmoother(4, 0)
	s.SetTarget(1000, 1)
	s.Next()
	s.Next()
	s.SetTarget(1000, 0)
	prev := s.Value()
	for s.IsSmoothing() {
		v := s.Next()
		if v >= prev {
			t.Fatalf("ramp did not fall: %f -> %f", prev, v)
		}
		prev = v
	}
	if s.Value() != 0 {
		t.Fatalf("got=%f want=0", s.Value())
	}
}

func TestLinearSmootherZeroTimeJumps(t *testing.T) {
	tests := []struct {
		name       string
		timeMs, sr float32
	}{
		{"zero time", 0, 48000},
		{"negative time", -3, 48000},
		{"sub-sample ramp", 0.001, 1000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewLinearSmoother(tc.timeMs, 0.5)
			s.SetTarget(tc.sr, -0.25)
			if s.Value() != -0.25 || s.IsSmoothing() {
				t.Fatalf("expected jump, got value=%f smoothing=%v", s.Value(), s.IsSmoothing())
			}
		})
	}
}

func TestLinearSmootherReset(t *testing.T) {
	s := NewLinearSmoother(10, 0)
	s.SetTarget(48000, 1)
	s.Next()
	s.Reset(0.3)
	if s.Value() != 0.3 || s.Target() != 0.3 || s.IsSmoothing() {
		t.Fatalf("reset: value=%f target=%f smoothing=%v", s.Value(), s.Target(), s.IsSmoothing())
	}
	if got := s.Next(); got != 0.3 {
		t.Fatalf("Next after reset: got=%f", got)
	}
}
