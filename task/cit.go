package task

import (
	"math"

	"github.com/niceyeti/hmitrack/experiment"
	"github.com/niceyeti/hmitrack/plant"
)

// CIT configuration constants, per spec.md 4.5.
const (
	citLambdaStart  = 0.5
	citLambdaStep   = 0.2
	citStepInterval = 30.0
	citKu           = 1.0
	citCmax         = 0.08
	citLambdaMax    = 10.0
)

// CITMetrics reports the divergence outcome once the task has left Running.
type CITMetrics struct {
	DivergenceTime float64
	LambdaCritical float64
}

// CIT runs a first-order unstable shadow plant, independent of the main RK4
// plant, ramping its instability until the operator loses control or the
// ramp itself saturates (spec.md 4.5).
//
// The shadow plant intentionally does not reuse plant.AxisParams/Step: CIT
// needs bare first-order pole dynamics (c-dot = lambda*c + Ku*u) and must
// not inherit the default plant's mass/damping/stiffness.
type CIT struct {
	Shadow plant.State // X, Y only; VX/VY stay zero and are emitted as such

	lambdaX, lambdaY float64
	state            experiment.TaskState
	elapsed          float64
	sinceIncrement   float64
	incrementCount   int

	divergenceTime float64
	lambdaAtEnd    float64
}

// NewCIT constructs a fresh CIT task at the starting instability.
func NewCIT() *CIT {
	return &CIT{lambdaX: citLambdaStart, lambdaY: citLambdaStart}
}

// Reset returns the task to its initial, pre-run configuration.
func (c *CIT) Reset() {
	*c = CIT{lambdaX: citLambdaStart, lambdaY: citLambdaStart}
}

// Target is always the origin for CIT.
func (c *CIT) Target(_ float64) (tx, ty float64) {
	return 0, 0
}

// StepShadow advances the shadow plant by dt given force f, using forward
// Euler: c <- c + (lambda*c + Ku*u)*dt per axis.
func (c *CIT) StepShadow(f plant.Force, dt float64) {
	c.Shadow.X += (c.lambdaX*c.Shadow.X + citKu*f.UX) * dt
	c.Shadow.Y += (c.lambdaY*c.Shadow.Y + citKu*f.UY) * dt
}

// Update advances elapsed time, the instability ramp, and checks divergence
// against the shadow plant's current position. Per spec.md 9, this checks
// divergence against the pre-advance position within the same tick as the
// loop's CIT composition (check-then-advance), so callers must invoke
// Update with dt *before* calling StepShadow for that tick's force, not
// after — see loop.Loop's CIT branch for the exact ordering.
func (c *CIT) Update(dt float64) experiment.TaskState {
	if c.state == experiment.Idle {
		c.state = experiment.Running
	}
	if c.state != experiment.Running {
		return c.state
	}

	c.elapsed += dt
	c.sinceIncrement += dt

	dist := math.Hypot(c.Shadow.X, c.Shadow.Y)
	if dist > citCmax {
		c.state = experiment.Failed
		c.divergenceTime = c.elapsed
		c.lambdaAtEnd = c.lambdaX
		return c.state
	}

	if c.sinceIncrement >= citStepInterval {
		c.sinceIncrement -= citStepInterval
		c.lambdaX += citLambdaStep
		c.lambdaY += citLambdaStep
		c.incrementCount++

		if c.lambdaX >= citLambdaMax {
			c.state = experiment.Completed
			c.divergenceTime = c.elapsed
			c.lambdaAtEnd = c.lambdaX
		}
	}

	return c.state
}

// IsComplete reports whether the task has reached a terminal state.
func (c *CIT) IsComplete() bool {
	return c.state == experiment.Completed || c.state == experiment.Failed
}

// Lambda returns the current (equal) per-axis instability gain.
func (c *CIT) Lambda() float64 {
	return c.lambdaX
}

// Metrics reports the divergence outcome; zero-valued until terminal.
func (c *CIT) Metrics() CITMetrics {
	return CITMetrics{DivergenceTime: c.divergenceTime, LambdaCritical: c.lambdaAtEnd}
}
