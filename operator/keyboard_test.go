package operator

import (
	"net"
	"testing"
	"time"

	"github.com/niceyeti/hmitrack/plant"
)

func TestKeyState_PublishSnapshotRoundTrip(t *testing.T) {
	var ks keyState
	ks.publish(true, false, true, false)
	up, down, left, right := ks.snapshot()
	if !up || down || !left || right {
		t.Fatalf("snapshot mismatch: up=%v down=%v left=%v right=%v", up, down, left, right)
	}
}

func TestKeyboard_DiagonalNormalization(t *testing.T) {
	kb := &Keyboard{state: &keyState{}, gain: DefaultKeyboardGain}
	kb.state.publish(true, false, false, true) // up + right

	f := kb.ComputeInput(plant.State{})
	mag := f.UX*f.UX + f.UY*f.UY
	want := DefaultKeyboardGain * DefaultKeyboardGain
	if diff := mag - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected diagonal magnitude %v, got %v (ux=%v uy=%v)", want, mag, f.UX, f.UY)
	}
}

func TestKeyboard_WireInDrainUpdatesSnapshot(t *testing.T) {
	kb, err := NewKeyboard(0, DefaultKeyboardGain)
	if err != nil {
		t.Fatalf("NewKeyboard: %v", err)
	}
	defer kb.Close()

	localAddr := kb.conn.LocalAddr().(*net.UDPAddr)
	sender, err := net.DialUDP("udp", nil, localAddr)
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer sender.Close()

	// up=1, down=0, left=0, right=1
	if _, err := sender.Write([]byte{1, 0, 0, 1}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		up, down, left, right := kb.state.snapshot()
		if up && !down && !left && right {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for keyboard snapshot to reflect wire-in datagram")
}

func TestKeyboard_MalformedDatagramDropped(t *testing.T) {
	kb, err := NewKeyboard(0, DefaultKeyboardGain)
	if err != nil {
		t.Fatalf("NewKeyboard: %v", err)
	}
	defer kb.Close()

	kb.state.publish(true, false, false, false)

	localAddr := kb.conn.LocalAddr().(*net.UDPAddr)
	sender, err := net.DialUDP("udp", nil, localAddr)
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer sender.Close()

	if _, err := sender.Write([]byte{1, 2}); err != nil { // too short
		t.Fatalf("write: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	up, down, left, right := kb.state.snapshot()
	if !up || down || left || right {
		t.Fatalf("expected prior snapshot preserved after short datagram, got up=%v down=%v left=%v right=%v", up, down, left, right)
	}
}
