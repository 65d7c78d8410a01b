package task

import (
	"math"

	"github.com/niceyeti/hmitrack/experiment"
)

// Fitts configuration constants, per spec.md 4.4.
const (
	fittsN      = 13
	fittsRadius = 0.08
	fittsWidth  = 0.008
	fittsDwell  = 0.1
	fittsMoves  = 26
)

// fittsSkip is floor(N/2)+1, the 1-based modular step between successive
// targets that produces the standard alternating ISO 9241-9 pattern.
const fittsSkip = fittsN/2 + 1

// FittsMetrics is the throughput report named in spec.md 4.4.
type FittsMetrics struct {
	Amplitude          float64
	IndexOfDifficulty  float64
	MeanMovementTime   float64
	ThroughputBitsPerS float64
	ErrorRate          float64
	MovementsCompleted int
	MovementsTotal     int
}

// Fitts runs the ring-of-targets dwell-acquisition sequence (spec.md 4.4).
type Fitts struct {
	state experiment.TaskState

	currentIndex     int // 1-based index into the N-target ring, per spec.md
	inside           bool
	dwell            float64
	elapsed          float64
	movementStart    float64
	movementsDone    int
	movementTimes    []float64
	movementErrors   []bool // reserved; never set true by the core, see spec.md 9
}

// NewFitts constructs a fresh Fitts task, starting sequence index 1.
func NewFitts() *Fitts {
	return &Fitts{
		currentIndex:  1,
		movementTimes: make([]float64, 0, fittsMoves),
	}
}

// Reset returns the task to its initial configuration.
func (f *Fitts) Reset() {
	*f = Fitts{currentIndex: 1, movementTimes: make([]float64, 0, fittsMoves)}
}

// targetCenter returns the (x, y) center of 1-based target index k on the
// ring of radius fittsRadius, per spec.md 4.4's angle formula.
func targetCenter(k int) (x, y float64) {
	angle := 2*math.Pi*float64(k-1)/fittsN - math.Pi/2
	return fittsRadius * math.Cos(angle), fittsRadius * math.Sin(angle)
}

// nextIndex steps the 1-based ring index by fittsSkip modulo fittsN,
// keeping the result in [1, N].
func nextIndex(cur int) int {
	return ((cur-1+fittsSkip)%fittsN)+1
}

// Target returns the center of the currently-active target.
func (f *Fitts) Target(_ float64) (tx, ty float64) {
	return targetCenter(f.currentIndex)
}

// Update advances the dwell/acquisition state machine given the cursor
// position and tick width dt.
func (f *Fitts) Update(cx, cy, dt float64) experiment.TaskState {
	if f.state == experiment.Idle {
		f.state = experiment.Running
	}
	if f.state != experiment.Running {
		return f.state
	}

	f.elapsed += dt

	tx, ty := targetCenter(f.currentIndex)
	dx, dy := cx-tx, cy-ty
	nowInside := math.Hypot(dx, dy) <= fittsWidth/2

	switch {
	case nowInside && !f.inside:
		f.inside = true
		f.dwell = 0
	case nowInside:
		f.dwell += dt
	default:
		f.inside = false
		f.dwell = 0
	}

	// The small tolerance lets a dwell that reaches D exactly at a tick
	// boundary acquire despite float rounding in the accumulated sum.
	if f.inside && f.dwell >= fittsDwell-1e-9 {
		mt := f.elapsed - f.movementStart
		f.movementTimes = append(f.movementTimes, mt)
		f.movementErrors = append(f.movementErrors, false)
		f.movementsDone++
		f.movementStart = f.elapsed
		f.dwell = 0
		f.inside = false
		f.currentIndex = nextIndex(f.currentIndex)

		if f.movementsDone >= fittsMoves {
			f.state = experiment.Completed
		}
	}

	return f.state
}

// IsComplete reports whether the task has reached a terminal state.
func (f *Fitts) IsComplete() bool {
	return f.state == experiment.Completed || f.state == experiment.Failed
}

// Metrics computes amplitude, index of difficulty, throughput, and
// completion counts from the recorded movement times.
func (f *Fitts) Metrics() FittsMetrics {
	amplitude := 2 * fittsRadius * math.Sin(math.Pi*fittsSkip/fittsN)
	id := math.Log2(amplitude/fittsWidth + 1)

	var meanMT, throughput float64
	if len(f.movementTimes) > 0 {
		sum := 0.0
		for _, mt := range f.movementTimes {
			sum += mt
		}
		meanMT = sum / float64(len(f.movementTimes))
		if meanMT > 0 {
			throughput = id / meanMT
		}
	}

	errCount := 0
	for _, e := range f.movementErrors {
		if e {
			errCount++
		}
	}
	var errRate float64
	if len(f.movementErrors) > 0 {
		errRate = float64(errCount) / float64(len(f.movementErrors))
	}

	return FittsMetrics{
		Amplitude:          amplitude,
		IndexOfDifficulty:  id,
		MeanMovementTime:   meanMT,
		ThroughputBitsPerS: throughput,
		ErrorRate:          errRate,
		MovementsCompleted: f.movementsDone,
		MovementsTotal:     fittsMoves,
	}
}
