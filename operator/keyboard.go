package operator

import (
	"net"
	"sync/atomic"

	"github.com/niceyeti/hmitrack/plant"
)

// Key bits packed into the atomic snapshot, matching the byte order of the
// wire-in datagram: [0]=up [1]=down [2]=left [3]=right.
const (
	keyUp = 1 << iota
	keyDown
	keyLeft
	keyRight
)

// keyState is a lock-free single-writer/single-reader snapshot of the four
// boolean key states, packed into a uint32 and exchanged with
// atomic.Store/LoadUint32. This is the one boundary in the core where two
// goroutines touch shared state (spec.md 5): a background reader drains the
// keyboard UDP socket and publishes a new snapshot; ComputeInput loads the
// latest snapshot at the top of each call. Modeled on the CAS-protected
// atomic float the teacher repo uses for its own cross-goroutine value
// handover, simplified here because a single writer never needs to retry.
type keyState struct {
	bits uint32
}

func (k *keyState) publish(up, down, left, right bool) {
	var b uint32
	if up {
		b |= keyUp
	}
	if down {
		b |= keyDown
	}
	if left {
		b |= keyLeft
	}
	if right {
		b |= keyRight
	}
	atomic.StoreUint32(&k.bits, b)
}

func (k *keyState) snapshot() (up, down, left, right bool) {
	b := atomic.LoadUint32(&k.bits)
	return b&keyUp != 0, b&keyDown != 0, b&keyLeft != 0, b&keyRight != 0
}

// Keyboard is the external-human operator device. It satisfies the same
// ComputeInput contract as AutoPD but derives force from the most recent
// key-state snapshot published by a non-blocking UDP drain of the keyboard
// bridge's datagrams (spec.md 6 wire-in), rather than from a PD law.
type Keyboard struct {
	state *keyState
	conn  *net.UDPConn
	gain  float64
	done  chan struct{}
}

// DefaultKeyboardGain is the per-axis force (N) applied for a held key.
const DefaultKeyboardGain = 5.0

// NewKeyboard binds a UDP listener on the given port and starts the
// background drain goroutine. The caller must call Close to release the
// socket and stop the goroutine.
func NewKeyboard(port int, gain float64) (*Keyboard, error) {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	kb := &Keyboard{
		state: &keyState{},
		conn:  conn,
		gain:  gain,
		done:  make(chan struct{}),
	}
	go kb.drain()
	return kb, nil
}

// drain reads keyboard datagrams as they arrive and republishes the packed
// snapshot. Malformed (too-short) datagrams are dropped; extra bytes are
// ignored per spec.md 6.
func (kb *Keyboard) drain() {
	buf := make([]byte, 64)
	for {
		n, err := kb.conn.Read(buf)
		select {
		case <-kb.done:
			return
		default:
		}
		if err != nil {
			return
		}
		if n < 4 {
			continue
		}
		kb.state.publish(buf[0] != 0, buf[1] != 0, buf[2] != 0, buf[3] != 0)
	}
}

// ComputeInput derives a unit-magnitude (scaled by gain) force from the
// latest key-state snapshot, normalizing diagonal input so that holding two
// keys does not exceed the single-key magnitude.
func (kb *Keyboard) ComputeInput(_ plant.State) plant.Force {
	up, down, left, right := kb.state.snapshot()

	var dx, dy float64
	if left {
		dx -= 1
	}
	if right {
		dx += 1
	}
	if up {
		dy += 1
	}
	if down {
		dy -= 1
	}

	if dx != 0 && dy != 0 {
		const invSqrt2 = 0.7071067811865476
		dx *= invSqrt2
		dy *= invSqrt2
	}

	return plant.Force{UX: dx * kb.gain, UY: dy * kb.gain}
}

// SetTarget is a no-op for Keyboard: the human operator has no notion of a
// setpoint pinned by the task. Present to satisfy the Device contract.
func (kb *Keyboard) SetTarget(_, _ float64) {}

// Close releases the keyboard socket and stops the drain goroutine.
func (kb *Keyboard) Close() error {
	close(kb.done)
	return kb.conn.Close()
}
