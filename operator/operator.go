// Package operator implements the force-producing "operator" side of a
// tick: either the synthetic AutoPD controller or the external Keyboard
// device. Both satisfy Device; the control loop holds a tagged variant
// rather than dispatching through the interface in the hot path, since the
// operator identity is fixed for the life of a run (spec.md 9).
package operator

import "github.com/niceyeti/hmitrack/plant"

// Device is the shared contract: produce a force given the current plant
// state. Keyboard's socket drain runs in its own background goroutine
// (started by NewKeyboard), so the loop schedules nothing extra: each
// ComputeInput call reads the latest published key snapshot.
type Device interface {
	ComputeInput(s plant.State) plant.Force
	SetTarget(tx, ty float64)
}

// Kind tags which concrete Device a Variant holds.
type Kind int

const (
	KindAutoPD Kind = iota
	KindKeyboard
)

// Variant is the sum type named in spec.md 9: exactly one of AutoPD or
// Keyboard is populated, selected by Kind.
type Variant struct {
	Kind     Kind
	AutoPD   *AutoPD
	Keyboard *Keyboard
}

// ComputeInput dispatches to whichever concrete device is active.
func (v Variant) ComputeInput(s plant.State) plant.Force {
	switch v.Kind {
	case KindKeyboard:
		return v.Keyboard.ComputeInput(s)
	default:
		return v.AutoPD.ComputeInput(s)
	}
}

// SetTarget dispatches to whichever concrete device is active.
func (v Variant) SetTarget(tx, ty float64) {
	switch v.Kind {
	case KindKeyboard:
		v.Keyboard.SetTarget(tx, ty)
	default:
		v.AutoPD.SetTarget(tx, ty)
	}
}

// NewAutoPDVariant wraps an AutoPD device as a Variant.
func NewAutoPDVariant(a *AutoPD) Variant {
	return Variant{Kind: KindAutoPD, AutoPD: a}
}

// NewKeyboardVariant wraps a Keyboard device as a Variant.
func NewKeyboardVariant(k *Keyboard) Variant {
	return Variant{Kind: KindKeyboard, Keyboard: k}
}
