package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Message{
		TimestampUS: 1.5,
		CursorX:     0.1,
		CursorY:     -0.2,
		CursorVX:    0.3,
		CursorVY:    -0.4,
		TargetX:     0.05,
		TargetY:     -0.05,
		TaskState:   1,
		TrialNumber: 7,
	}

	var buf [MessageSize]byte
	Encode(buf[:], m)
	got := Decode(buf[:])

	if got != m {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, m)
	}
}

func TestEncode_LiteralBytes(t *testing.T) {
	// Scenario 6 of spec.md 8.
	m := Message{
		TimestampUS: 1.5,
		CursorX:     0.1,
		CursorY:     -0.2,
		CursorVX:    0,
		CursorVY:    0,
		TargetX:     0,
		TargetY:     0,
		TaskState:   1,
		TrialNumber: 7,
	}

	var buf [MessageSize]byte
	Encode(buf[:], m)

	wantTimestamp := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF8, 0x3F} // 1.5 LE f64
	if !bytes.Equal(buf[0:8], wantTimestamp) {
		t.Fatalf("timestamp bytes = % x, want % x", buf[0:8], wantTimestamp)
	}

	wantState := []byte{0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf[56:60], wantState) {
		t.Fatalf("task_state bytes = % x, want % x", buf[56:60], wantState)
	}

	wantTrial := []byte{0x07, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf[60:64], wantTrial) {
		t.Fatalf("trial_number bytes = % x, want % x", buf[60:64], wantTrial)
	}
}
