// Package transport owns the outbound datagram link: a bound UDP socket and
// a reusable encode buffer (spec.md 4.8).
package transport

import (
	"fmt"
	"net"

	"github.com/niceyeti/hmitrack/protocol"
)

// Emitter sends one protocol.Message per call, best-effort and
// non-blocking. It never returns an error to the caller; failures are
// counted in ErrorCount and surfaced only through Stats.
type Emitter struct {
	conn       *net.UDPConn
	buf        [protocol.MessageSize]byte
	sendCount  uint64
	errorCount uint64
}

// NewEmitter dials a UDP "connection" (no handshake, just destination
// binding) to host:port. This is the one fatal construction error class in
// spec.md 7: an invalid destination or exhausted ephemeral ports surfaces
// here, before the loop begins.
func NewEmitter(host string, port int) (*Emitter, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("emitter: resolve destination: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("emitter: dial: %w", err)
	}
	return &Emitter{conn: conn}, nil
}

// Send encodes msg into the reusable buffer and transmits it. Any transport
// error increments ErrorCount; success increments SendCount. Never panics
// or returns an error on the steady path.
func (e *Emitter) Send(msg protocol.Message) {
	protocol.Encode(e.buf[:], msg)
	if _, err := e.conn.Write(e.buf[:]); err != nil {
		e.errorCount++
		return
	}
	e.sendCount++
}

// Stats is the send/error tally reported at run end.
type Stats struct {
	SendCount  uint64
	ErrorCount uint64
	ErrorRate  float64
}

// Stats returns the current send/error counters and derived error rate.
func (e *Emitter) Stats() Stats {
	total := e.sendCount + e.errorCount
	if total == 0 {
		total = 1
	}
	return Stats{
		SendCount:  e.sendCount,
		ErrorCount: e.errorCount,
		ErrorRate:  float64(e.errorCount) / float64(total),
	}
}

// Close releases the underlying socket.
func (e *Emitter) Close() error {
	return e.conn.Close()
}
