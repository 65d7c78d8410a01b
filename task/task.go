// Package task implements the three experiment task state machines named
// in spec.md 4.3-4.5, and Variant, the tagged-variant sum type spec.md 9
// recommends in place of virtual dispatch on the per-tick hot path.
package task

import "github.com/niceyeti/hmitrack/experiment"

// Kind tags which concrete task a Variant holds.
type Kind int

const (
	KindSoS Kind = iota
	KindCIT
	KindFitts
)

// Metrics is the heterogeneous sum type of per-task metric records named
// in spec.md 9. Exactly one field is non-nil, selected by the owning
// Variant's Kind.
type Metrics struct {
	SoS   *SoSMetrics
	CIT   *CITMetrics
	Fitts *FittsMetrics
}

// Variant owns exactly one concrete task, selected by Kind, and adapts it
// to a uniform {target, reset, is-complete, metrics} surface for the loop.
// It has no Update: the tasks' Update signatures differ, so the loop calls
// the concrete task's Update itself.
type Variant struct {
	Kind  Kind
	SoS   *SoS
	CIT   *CIT
	Fitts *Fitts
}

// NewVariant constructs a Variant for the given task type. seed is used
// only by SoS (phase generation); CIT and Fitts ignore it.
func NewVariant(t experiment.TaskType, seed int64) Variant {
	switch t {
	case experiment.CIT:
		return Variant{Kind: KindCIT, CIT: NewCIT()}
	case experiment.Fitts:
		return Variant{Kind: KindFitts, Fitts: NewFitts()}
	default:
		return Variant{Kind: KindSoS, SoS: NewSoS(seed)}
	}
}

// Target returns the current task's reference position at elapsed time tau.
func (v Variant) Target(tau float64) (tx, ty float64) {
	switch v.Kind {
	case KindCIT:
		return v.CIT.Target(tau)
	case KindFitts:
		return v.Fitts.Target(tau)
	default:
		return v.SoS.Target(tau)
	}
}

// Reset returns the active task to its initial configuration.
func (v Variant) Reset() {
	switch v.Kind {
	case KindCIT:
		v.CIT.Reset()
	case KindFitts:
		v.Fitts.Reset()
	default:
		v.SoS.Reset()
	}
}

// IsComplete reports whether the active task has reached a terminal state.
func (v Variant) IsComplete() bool {
	switch v.Kind {
	case KindCIT:
		return v.CIT.IsComplete()
	case KindFitts:
		return v.Fitts.IsComplete()
	default:
		return v.SoS.IsComplete()
	}
}

// Metrics reports the active task's metric record, wrapped in the sum type.
func (v Variant) Metrics() Metrics {
	switch v.Kind {
	case KindCIT:
		m := v.CIT.Metrics()
		return Metrics{CIT: &m}
	case KindFitts:
		m := v.Fitts.Metrics()
		return Metrics{Fitts: &m}
	default:
		m := v.SoS.Metrics()
		return Metrics{SoS: &m}
	}
}

// HasOwnPlant reports whether the active task owns its own plant and
// therefore wants to bypass the loop's default RK4 integrator (spec.md 9's
// own_plant capability). Only CIT currently does.
func (v Variant) HasOwnPlant() bool {
	return v.Kind == KindCIT
}
