// Package experiment holds the mutable per-run tick state shared by the
// control loop, tasks, and the wire encoder (spec.md 3).
package experiment

import (
	"time"

	"github.com/niceyeti/hmitrack/plant"
)

// TaskState is the task's lifecycle stage, serialized as an unsigned
// 32-bit integer on the wire.
type TaskState uint32

const (
	Idle TaskState = iota
	Running
	Paused
	Completed
	Failed
)

func (s TaskState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// TaskType selects which task state machine a run exercises.
type TaskType int

const (
	SoS TaskType = iota
	CIT
	Fitts
)

func (t TaskType) String() string {
	switch t {
	case SoS:
		return "sos"
	case CIT:
		return "cit"
	case Fitts:
		return "fitts"
	default:
		return "unknown"
	}
}

// ParseTaskType maps a CLI/config string to a TaskType. Unknown strings are
// a non-fatal configuration error (spec.md 7 item 4): the caller logs and
// falls back to SoS.
func ParseTaskType(s string) (t TaskType, ok bool) {
	switch s {
	case "sos":
		return SoS, true
	case "cit":
		return CIT, true
	case "fitts":
		return Fitts, true
	default:
		return SoS, false
	}
}

// State is the mutable per-run tick state: clock, loop counter, current
// plant state, target, task lifecycle, trial number, last force, and the
// running flag. A fresh zero value is equivalent to Reset.
type State struct {
	startedAt     time.Time
	started       bool
	ElapsedUS     float64
	LoopCount     uint64
	Cursor        plant.State
	TargetX       float64
	TargetY       float64
	Task          TaskState
	TrialNumber   uint32
	LastForce     plant.Force
	Running       bool
}

// Reset clears all counters and zeros state, as if newly constructed.
func (s *State) Reset() {
	*s = State{}
}

// Tick advances the clock and loop counter for one tick, establishing the
// monotonic reference on the first call. Returns the new elapsed-seconds
// value (tau in spec.md terms).
func (s *State) Tick(now time.Time) (tauSeconds float64) {
	if !s.started {
		s.startedAt = now
		s.started = true
	}
	s.ElapsedUS = float64(now.Sub(s.startedAt).Microseconds())
	s.LoopCount++
	return s.ElapsedUS / 1e6
}
