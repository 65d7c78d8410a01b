// Package protocol implements the fixed-size, little-endian wire format for
// one control-loop tick (spec.md 4.7).
package protocol

import (
	"encoding/binary"
	"math"
)

// MessageSize is the fixed encoded length in bytes.
const MessageSize = 64

// Message is one tick's emitted state, laid out per spec.md 4.7.
type Message struct {
	TimestampUS float64
	CursorX     float64
	CursorY     float64
	CursorVX    float64
	CursorVY    float64
	TargetX     float64
	TargetY     float64
	TaskState   uint32
	TrialNumber uint32
}

// Encode writes m into buf, which must be at least MessageSize bytes.
// Allocation-free; the caller owns and reuses buf across ticks.
func Encode(buf []byte, m Message) {
	_ = buf[MessageSize-1] // bounds check hint, single panic site
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(m.TimestampUS))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(m.CursorX))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(m.CursorY))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(m.CursorVX))
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(m.CursorVY))
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(m.TargetX))
	binary.LittleEndian.PutUint64(buf[48:56], math.Float64bits(m.TargetY))
	binary.LittleEndian.PutUint32(buf[56:60], m.TaskState)
	binary.LittleEndian.PutUint32(buf[60:64], m.TrialNumber)
}

// Decode reads a Message out of buf, which must be at least MessageSize
// bytes.
func Decode(buf []byte) Message {
	_ = buf[MessageSize-1]
	return Message{
		TimestampUS: math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8])),
		CursorX:     math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		CursorY:     math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		CursorVX:    math.Float64frombits(binary.LittleEndian.Uint64(buf[24:32])),
		CursorVY:    math.Float64frombits(binary.LittleEndian.Uint64(buf[32:40])),
		TargetX:     math.Float64frombits(binary.LittleEndian.Uint64(buf[40:48])),
		TargetY:     math.Float64frombits(binary.LittleEndian.Uint64(buf[48:56])),
		TaskState:   binary.LittleEndian.Uint32(buf[56:60]),
		TrialNumber: binary.LittleEndian.Uint32(buf[60:64]),
	}
}
