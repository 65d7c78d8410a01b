// Package loop implements the period-accurate scheduler that composes the
// plant, operator, task, protocol, and transport packages into one running
// experiment (spec.md 4.6).
package loop

import (
	"fmt"
	"time"

	"github.com/niceyeti/hmitrack/config"
	"github.com/niceyeti/hmitrack/experiment"
	"github.com/niceyeti/hmitrack/operator"
	"github.com/niceyeti/hmitrack/plant"
	"github.com/niceyeti/hmitrack/protocol"
	"github.com/niceyeti/hmitrack/task"
	"github.com/niceyeti/hmitrack/transport"
)

// overrunThresholdUS is the per-tick budget above which a tick counts as an
// overrun (spec.md 4.6, "~0.9*dt" for the default 1kHz rate).
const overrunThresholdUS = 900.0

// timingBufferCap bounds the rolling per-tick timing buffer; ticks beyond
// this count still advance Max/overrun counters (spec.md 9).
const timingBufferCap = 10000

// Stats are the performance counters reported at run end (spec.md 4.6).
type Stats struct {
	MaxTickUS     float64
	TickUS        []float64 // first timingBufferCap samples only
	OverrunCount  uint64
	TotalTicks    uint64
	EmitterStats  transport.Stats
}

// Loop is the control loop: one Loop instance drives one experiment run.
type Loop struct {
	cfg   config.ExperimentConfig
	dt    float64
	px    plant.AxisParams
	py    plant.AxisParams
	emit  *transport.Emitter
	dev   operator.Variant
	t     task.Variant
	state experiment.State

	maxTickUS    float64
	tickUS       []float64
	overrunCount uint64
	trialNumber  uint32

	lg             logger
	terminalLogged bool

	running bool

	// Published counters, read by the background reporter goroutine via
	// atomic load/store only; never touched directly by the hot path.
	loopCountPublished    uint64
	overrunCountPublished uint64
	maxTickUSBits         uint64
}

// New constructs a Loop for the given configuration and task type. This is
// the one place a fatal construction error (spec.md 7 item 2) can
// originate: the emitter's UDP dial, or an optional keyboard bind.
func New(cfg config.ExperimentConfig) (*Loop, error) {
	emit, err := transport.NewEmitter(cfg.Destination.Host, cfg.Destination.Port)
	if err != nil {
		return nil, err
	}

	dev, err := newDevice(cfg)
	if err != nil {
		_ = emit.Close()
		return nil, err
	}

	l := &Loop{
		cfg:  cfg,
		dt:   cfg.Dt(),
		px:   cfg.AxisX,
		py:   cfg.AxisY,
		emit: emit,
		dev:  dev,
		t:    task.NewVariant(cfg.Task, cfg.Operator.Seed),
	}
	return l, nil
}

func newDevice(cfg config.ExperimentConfig) (operator.Variant, error) {
	if cfg.Keyboard.Enabled {
		kb, err := operator.NewKeyboard(cfg.Keyboard.Port, operator.DefaultKeyboardGain)
		if err != nil {
			return operator.Variant{}, fmt.Errorf("loop: keyboard device: %w", err)
		}
		return operator.NewKeyboardVariant(kb), nil
	}
	pd := operator.NewAutoPD(cfg.Operator.Kp, cfg.Operator.Kd, cfg.Operator.Sigma, cfg.Operator.Seed)
	return operator.NewAutoPDVariant(pd), nil
}

// SetTask re-creates the active task. Calling it twice with the same type
// is equivalent to calling it once (spec.md 8).
func (l *Loop) SetTask(t experiment.TaskType) {
	l.t = task.NewVariant(t, l.cfg.Operator.Seed)
	l.terminalLogged = false
}

// Stop requests the loop exit at the head of its next iteration.
func (l *Loop) Stop() {
	l.running = false
}

// Close releases the emitter (and keyboard device, if any) socket.
func (l *Loop) Close() error {
	if kb := l.dev.Keyboard; kb != nil {
		_ = kb.Close()
	}
	return l.emit.Close()
}

// Run blocks, ticking at the configured rate, until durationS seconds have
// elapsed, Stop is called, or the task signals completion. Returns the
// final Stats.
func (l *Loop) Run(durationS float64) Stats {
	l.running = true
	deadline := time.Duration(durationS * float64(time.Second))
	var wallStart time.Time

	l.lg.runStart(l.cfg.Task, l.cfg)

	done := make(chan struct{})
	l.startReporter(done)
	defer close(done)

	for l.running {
		tickStart := time.Now()
		if wallStart.IsZero() {
			wallStart = tickStart
		}

		l.step(tickStart)
		l.publishCounters()

		if l.t.IsComplete() {
			l.running = false
		}
		if deadline > 0 && time.Since(wallStart) >= deadline {
			l.running = false
		}

		l.busyWaitRemainder(tickStart)
	}

	if l.state.Task == experiment.Running {
		l.state.Task = experiment.Completed
	}
	l.logTerminalIfNeeded()

	stats := l.statsSnapshot()
	l.lg.runEnd(stats)
	return stats
}

// Step runs exactly one tick, per spec.md 4.6 steps 1-8. Exported so a
// caller (or test) can single-step the loop deterministically.
func (l *Loop) Step() {
	l.step(time.Now())
}

// TaskMetrics reports the active task's metrics, per spec.md 6: "all task
// metrics are emitted to stdout at run end" (the loop exposes them; the
// CLI is what actually writes them to stdout).
func (l *Loop) TaskMetrics() task.Metrics {
	return l.t.Metrics()
}

// CurrentState exposes a read-only snapshot of the experiment state, for
// callers inspecting a run (e.g. single-stepped tests).
func (l *Loop) CurrentState() experiment.State {
	return l.state
}

func (l *Loop) step(now time.Time) {
	tickWallStart := time.Now()

	// (1) update clock, (2) bump loop counter, (3) tau
	tau := l.state.Tick(now)

	// (4) target
	tx, ty := l.t.Target(tau)
	l.state.TargetX, l.state.TargetY = tx, ty

	// (5) integrate: CIT bypasses the default plant via its own shadow plant.
	if l.t.Kind == task.KindCIT {
		l.stepCIT()
	} else {
		l.dev.SetTarget(tx, ty)
		force := l.dev.ComputeInput(l.state.Cursor)
		l.state.LastForce = force
		l.state.Cursor = plant.Step(l.state.Cursor, l.px, l.py, force, l.dt)
	}

	// (6) task update
	l.updateTask(tau)
	l.logTerminalIfNeeded()

	// (7) build and send the datagram
	msg := protocol.Message{
		TimestampUS: l.state.ElapsedUS,
		CursorX:     l.state.Cursor.X,
		CursorY:     l.state.Cursor.Y,
		CursorVX:    l.state.Cursor.VX,
		CursorVY:    l.state.Cursor.VY,
		TargetX:     l.state.TargetX,
		TargetY:     l.state.TargetY,
		TaskState:   uint32(l.state.Task),
		TrialNumber: l.state.TrialNumber,
	}
	l.emit.Send(msg)

	// (8) record per-tick wall time
	l.recordTick(time.Since(tickWallStart))
}

// stepCIT implements the CIT composition of spec.md 4.5/9: the operator is
// pinned to (0,0), sees the shadow plant's current (pre-advance) state, the
// task checks divergence against that same pre-advance state, and only
// then is the shadow advanced — the "check-then-advance" ordering adopted
// in spec.md 9 to avoid an off-by-one-tick divergence report.
func (l *Loop) stepCIT() {
	c := l.t.CIT
	l.dev.SetTarget(0, 0)
	shadowAsPlant := plant.State{X: c.Shadow.X, Y: c.Shadow.Y}
	force := l.dev.ComputeInput(shadowAsPlant)
	l.state.LastForce = force

	newState := c.Update(l.dt)
	if newState == experiment.Running {
		c.StepShadow(force, l.dt)
	}

	l.state.Cursor = plant.State{X: c.Shadow.X, Y: c.Shadow.Y, VX: 0, VY: 0}
	l.state.Task = newState
}

func (l *Loop) updateTask(tau float64) {
	switch l.t.Kind {
	case task.KindCIT:
		// CIT's state was already advanced inside stepCIT.
		return
	case task.KindFitts:
		l.state.Task = l.t.Fitts.Update(l.state.Cursor.X, l.state.Cursor.Y, l.dt)
	default:
		ex := l.state.TargetX - l.state.Cursor.X
		ey := l.state.TargetY - l.state.Cursor.Y
		l.state.Task = l.t.SoS.Update(tau, ex, ey)
	}
}

func (l *Loop) recordTick(d time.Duration) {
	us := float64(d.Microseconds())
	if us > l.maxTickUS {
		l.maxTickUS = us
	}
	if us > overrunThresholdUS {
		l.overrunCount++
		l.lg.overrun(us, l.overrunCount)
	}
	if len(l.tickUS) < timingBufferCap {
		l.tickUS = append(l.tickUS, us)
	}
}

// logTerminalIfNeeded logs the task-terminal event exactly once per task
// lifetime, the moment the active task first reaches Completed or Failed.
func (l *Loop) logTerminalIfNeeded() {
	if l.terminalLogged {
		return
	}
	if l.state.Task != experiment.Completed && l.state.Task != experiment.Failed {
		return
	}
	l.terminalLogged = true
	l.lg.taskTerminal(l.state.Task, l.t.Metrics())
}

// busyWaitRemainder spins until dt has elapsed since tickStart. OS sleep is
// too coarse for a 1ms period (spec.md 4.6 timing discipline).
func (l *Loop) busyWaitRemainder(tickStart time.Time) {
	budget := time.Duration(l.dt * float64(time.Second))
	for time.Since(tickStart) < budget {
	}
}

func (l *Loop) statsSnapshot() Stats {
	return Stats{
		MaxTickUS:    l.maxTickUS,
		TickUS:       l.tickUS,
		OverrunCount: l.overrunCount,
		TotalTicks:   l.state.LoopCount,
		EmitterStats: l.emit.Stats(),
	}
}
