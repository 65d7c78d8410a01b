package plant

import (
	"math"
	"testing"
)

func TestStepRK4_FreeFallAccuracy(t *testing.T) {
	// K=0, B=0, M=1, u=1N constant: exact c(t) = 0.5*t^2.
	p := AxisParams{Mass: 1, Damping: 0, Stiffness: 0}
	dt := 1e-3
	c, v := 0.0, 0.0
	for i := 0; i < 1000; i++ {
		c, v = StepRK4(c, v, 1.0, dt, p)
	}
	if math.Abs(c-0.5) > 1e-10 {
		t.Fatalf("expected c ~= 0.5 after 1000 ticks, got %v (v=%v)", c, v)
	}
}

func TestStepRK4_DampedOscillatorFirstZeroCrossing(t *testing.T) {
	// M=1, B=1, K=4; c0=1, v0=0, u=0: damped oscillation.
	p := AxisParams{Mass: 1, Damping: 1, Stiffness: 4}
	dt := 1e-3
	c, v := 1.0, 0.0
	var firstZeroCrossingT float64
	found := false
	for i := 0; i < 2000; i++ {
		prev := c
		c, v = StepRK4(c, v, 0, dt, p)
		tNow := float64(i+1) * dt
		if !found && prev > 0 && c <= 0 {
			firstZeroCrossingT = tNow
			found = true
		}
	}
	if !found {
		t.Fatal("expected a zero crossing within 2 seconds")
	}
	expected := math.Pi / math.Sqrt(4-0.25)
	if math.Abs(firstZeroCrossingT-expected) > 2e-3 {
		t.Fatalf("first zero crossing at %v, expected ~%v", firstZeroCrossingT, expected)
	}
	if math.Abs(c) > 0.2 {
		t.Fatalf("expected |c| <= 0.2 at t=2s, got %v", c)
	}
}

func TestStep_NaNPropagates(t *testing.T) {
	p := AxisParams{Mass: 1}
	s := State{X: math.NaN()}
	out := Step(s, p, p, Force{}, 1e-3)
	if !math.IsNaN(out.X) {
		t.Fatalf("expected NaN to propagate, got %v", out.X)
	}
}

func TestStepEuler_Basic(t *testing.T) {
	p := AxisParams{Mass: 1, Damping: 0, Stiffness: 0}
	c, v := StepEuler(0, 0, 1, 1e-3, p)
	if v != 1e-3 {
		t.Fatalf("expected v=dt after one euler step with u=1,M=1, got %v", v)
	}
	if c != 0 {
		t.Fatalf("expected c=0 after one euler step (position uses pre-step v), got %v", c)
	}
}
