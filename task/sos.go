package task

import (
	"math"
	"math/rand"

	"github.com/niceyeti/hmitrack/experiment"
)

// SoS frequencies and base amplitude, per spec.md 4.3. Two independent
// prime-multiple sets decorrelate the axes.
var (
	sosFreqX = [...]float64{0.10, 0.23, 0.37, 0.61, 1.03, 1.61}
	sosFreqY = [...]float64{0.13, 0.29, 0.43, 0.71, 1.13, 1.73}
)

const (
	sosBaseAmplitude = 0.05
	sosDuration      = 60.0
)

// SoSMetrics is the per-axis/total RMSE report queried at any point during
// or after a run.
type SoSMetrics struct {
	RMSEx, RMSEy, RMSETotal float64
	Samples                 uint64
}

// SoS drives a broadband multi-sine reference trajectory for frequency
// response identification (spec.md 4.3).
type SoS struct {
	phaseX, phaseY [len(sosFreqX)]float64
	state          experiment.TaskState
	tauStart       float64
	started        bool

	sqErrX, sqErrY float64
	samples        uint64
}

// NewSoS constructs a fresh SoS task with phases drawn uniformly from
// [0, 2*pi) using the given PRNG seed.
func NewSoS(seed int64) *SoS {
	s := &SoS{}
	s.seedPhases(seed)
	return s
}

func (s *SoS) seedPhases(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range s.phaseX {
		s.phaseX[i] = rng.Float64() * 2 * math.Pi
	}
	for i := range s.phaseY {
		s.phaseY[i] = rng.Float64() * 2 * math.Pi
	}
}

// Reset reseeds phases from a fresh nondeterministic generator and clears
// accumulators. Per spec.md 9, reproducibility across resets requires
// reconstructing with NewSoS and an explicit seed instead.
func (s *SoS) Reset() {
	*s = SoS{}
	s.seedPhases(rand.Int63())
}

// Target returns the reference position at task-local elapsed time tau
// (seconds), establishing tau=0 at the first call after construction/reset.
func (s *SoS) Target(tau float64) (tx, ty float64) {
	if !s.started {
		s.tauStart = tau
		s.started = true
	}
	local := tau - s.tauStart

	for i, f := range sosFreqX {
		amp := sosBaseAmplitude / f
		tx += amp * math.Sin(2*math.Pi*f*local+s.phaseX[i])
	}
	for i, f := range sosFreqY {
		amp := sosBaseAmplitude / f
		ty += amp * math.Sin(2*math.Pi*f*local+s.phaseY[i])
	}
	return
}

// Update advances the state machine and accumulates squared error. ex, ey
// is the error (target - cursor) computed by the caller; tau is the
// elapsed time used for the duration check.
func (s *SoS) Update(tau float64, ex, ey float64) experiment.TaskState {
	if s.state == experiment.Idle {
		s.state = experiment.Running
	}
	if s.state != experiment.Running {
		return s.state
	}

	s.sqErrX += ex * ex
	s.sqErrY += ey * ey
	s.samples++

	local := tau - s.tauStart
	if local >= sosDuration {
		s.state = experiment.Completed
	}
	return s.state
}

// IsComplete reports whether the task has reached a terminal state.
func (s *SoS) IsComplete() bool {
	return s.state == experiment.Completed || s.state == experiment.Failed
}

// Metrics reports cumulative RMSE and sample count.
func (s *SoS) Metrics() SoSMetrics {
	n := float64(s.samples)
	if n == 0 {
		return SoSMetrics{}
	}
	rmseX := math.Sqrt(s.sqErrX / n)
	rmseY := math.Sqrt(s.sqErrY / n)
	total := math.Sqrt((s.sqErrX + s.sqErrY) / n)
	return SoSMetrics{RMSEx: rmseX, RMSEy: rmseY, RMSETotal: total, Samples: s.samples}
}
