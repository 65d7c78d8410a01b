// Package plant integrates the second-order mechanical system driven by the
// control loop: a mass-spring-damper per axis, fully decoupled in x and y.
package plant

// State is the cursor's position and velocity, in metres and metres/second.
// Value semantics: a step produces a new State, never mutates its input.
type State struct {
	X, Y   float64
	VX, VY float64
}

// Force is the input driving the plant, in newtons.
type Force struct {
	UX, UY float64
}

// AxisParams are the physical constants of one axis. Immutable after
// construction; callers must supply Mass > 0.
type AxisParams struct {
	Mass      float64 // kg
	Damping   float64 // N*s/m
	Stiffness float64 // N/m
}

// accel returns c-double-dot for a single axis: (u - B*v - K*c) / M.
func (p AxisParams) accel(c, v, u float64) float64 {
	return (u - p.Damping*v - p.Stiffness*c) / p.Mass
}

// axisDeriv bundles the joint (v, a) sample used as one RK4 stage.
type axisDeriv struct {
	v, a float64
}

func (p AxisParams) deriv(c, v, u float64) axisDeriv {
	return axisDeriv{v: v, a: p.accel(c, v, u)}
}

// StepEuler advances one axis' (c, v) pair by dt using the one-stage forward
// update. Cheaper and less accurate than StepRK4; offered for simpler
// sub-simulations, not the main plant integration. (task/cit.go's
// first-order shadow plant does its own inline Euler step instead.)
func StepEuler(c, v, u, dt float64, p AxisParams) (cNext, vNext float64) {
	d := p.deriv(c, v, u)
	cNext = c + d.v*dt
	vNext = v + d.a*dt
	return
}

// StepRK4 advances one axis' (c, v) pair by dt using the classical 4-stage
// Runge-Kutta update, force held constant across the sub-steps (zero-order
// hold within the tick).
func StepRK4(c, v, u, dt float64, p AxisParams) (cNext, vNext float64) {
	k1 := p.deriv(c, v, u)
	k2 := p.deriv(c+0.5*dt*k1.v, v+0.5*dt*k1.a, u)
	k3 := p.deriv(c+0.5*dt*k2.v, v+0.5*dt*k2.a, u)
	k4 := p.deriv(c+dt*k3.v, v+dt*k3.a, u)

	cNext = c + (dt/6)*(k1.v+2*k2.v+2*k3.v+k4.v)
	vNext = v + (dt/6)*(k1.a+2*k2.a+2*k3.a+k4.a)
	return
}

// Step advances the full 2-axis State by dt using RK4, per-axis parameters
// and the given Force. Pure, total, allocation-free; NaN in yields NaN out,
// nothing is trapped.
func Step(s State, px, py AxisParams, f Force, dt float64) State {
	cx, vx := StepRK4(s.X, s.VX, f.UX, dt, px)
	cy, vy := StepRK4(s.Y, s.VY, f.UY, dt, py)
	return State{X: cx, Y: cy, VX: vx, VY: vy}
}

// StepEulerFull is the Euler analogue of Step, for callers that only need
// the cheaper single-stage update; it is kept as the natural counterpart
// to Step.
func StepEulerFull(s State, px, py AxisParams, f Force, dt float64) State {
	cx, vx := StepEuler(s.X, s.VX, f.UX, dt, px)
	cy, vy := StepEuler(s.Y, s.VY, f.UY, dt, py)
	return State{X: cx, Y: cy, VX: vx, VY: vy}
}
