package operator

import (
	"math/rand"

	"github.com/niceyeti/hmitrack/plant"
)

// Default PD gains and noise scale per spec.
const (
	DefaultKp    = 10.0
	DefaultKd    = 5.0
	DefaultSigma = 0.1
)

// AutoPD is a deterministic PD controller plus optional Gaussian noise,
// standing in for a human operator during testing. Stateful: holds the
// current setpoint, gains, and a seedable PRNG.
//
// The "-Kd*v" form assumes a stationary target (d/dt of error ~= -v). This
// is a deliberate simplification carried over from the spec: targets move,
// but the derivative term stays a plain velocity damper.
type AutoPD struct {
	tx, ty float64
	Kp, Kd float64
	Sigma  float64
	rng    *rand.Rand
}

// NewAutoPD constructs an AutoPD with the given gains, noise scale, and
// PRNG seed. Seed 0 is a valid, reproducible seed like any other.
func NewAutoPD(kp, kd, sigma float64, seed int64) *AutoPD {
	return &AutoPD{
		Kp:    kp,
		Kd:    kd,
		Sigma: sigma,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// SetTarget updates the controller's setpoint.
func (a *AutoPD) SetTarget(tx, ty float64) {
	a.tx, a.ty = tx, ty
}

// ComputeInput returns u = Kp*(t-c) + Kd*(-v) + sigma*xi per axis, xi a
// fresh standard-normal draw per call per axis. Sigma=0 is deterministic.
func (a *AutoPD) ComputeInput(s plant.State) plant.Force {
	ux := a.Kp*(a.tx-s.X) - a.Kd*s.VX
	uy := a.Kp*(a.ty-s.Y) - a.Kd*s.VY
	if a.Sigma > 0 {
		ux += a.Sigma * a.rng.NormFloat64()
		uy += a.Sigma * a.rng.NormFloat64()
	}
	return plant.Force{UX: ux, UY: uy}
}
