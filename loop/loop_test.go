package loop

import (
	"math"
	"net"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/niceyeti/hmitrack/config"
	"github.com/niceyeti/hmitrack/experiment"
	"github.com/niceyeti/hmitrack/task"
)

// newTestLoop builds a Loop whose emitter targets a freshly bound listener,
// returning the loop, the listener, and a running count of received
// datagrams (updated by a background reader goroutine).
func newTestLoop(t *testing.T, cfg config.ExperimentConfig) (*Loop, *net.UDPConn, *uint64) {
	t.Helper()

	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	cfg.Destination.Host = "127.0.0.1"
	cfg.Destination.Port = listener.LocalAddr().(*net.UDPAddr).Port

	var received uint64
	go func() {
		buf := make([]byte, 256)
		for {
			_, _, err := listener.ReadFromUDP(buf)
			if err != nil {
				return
			}
			atomic.AddUint64(&received, 1)
		}
	}()

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, listener, &received
}

// stepN drives the loop for up to n ticks using synthetic, evenly-spaced
// timestamps (rather than l.Step()'s real time.Now()), so tau-dependent
// tasks like SoS see the correct simulated elapsed time regardless of how
// fast the test host actually executes each tick. Stops early once the
// active task completes.
func stepN(l *Loop, n int) {
	start := time.Now()
	for i := 0; i < n && !l.t.IsComplete(); i++ {
		now := start.Add(time.Duration(float64(i+1) * l.dt * float64(time.Second)))
		l.step(now)
	}
}

func TestLoop_SoSFullRunScenario(t *testing.T) {
	Convey("Given a loop configured for the Sum-of-Sines task", t, func() {
		cfg := config.Default()
		cfg.Task = experiment.SoS
		l, listener, received := newTestLoop(t, cfg)
		defer listener.Close()
		defer l.Close()

		Convey("Single-stepping the full 60s duration at 1kHz emits one datagram per tick and completes", func() {
			stepN(l, 60100)

			So(l.CurrentState().Task, ShouldEqual, experiment.Completed)
			So(l.state.LoopCount, ShouldBeGreaterThanOrEqualTo, uint64(59900))
			So(l.state.LoopCount, ShouldBeLessThanOrEqualTo, uint64(60100))

			time.Sleep(50 * time.Millisecond) // let the reader goroutine drain
			n := atomic.LoadUint64(received)
			So(n, ShouldBeGreaterThanOrEqualTo, uint64(59900))
			So(n, ShouldBeLessThanOrEqualTo, uint64(60100))

			m := l.TaskMetrics()
			So(m.SoS, ShouldNotBeNil)
			So(m.SoS.RMSETotal, ShouldBeGreaterThan, 0)
		})
	})
}

func TestLoop_CITDivergenceScenario(t *testing.T) {
	Convey("Given a loop configured for the Critical Instability Task", t, func() {
		cfg := config.Default()
		cfg.Task = experiment.CIT
		// A weak AutoPD gain, below the starting instability lambda=0.5,
		// leaves the shadow plant's pole net-unstable from the first tick
		// (lambda - Kp > 0), guaranteeing divergence well before the ramp
		// could otherwise saturate at lambdaMax.
		cfg.Operator.Kp = 0.3
		cfg.Operator.Kd = 0
		cfg.Operator.Sigma = 0
		l, listener, _ := newTestLoop(t, cfg)
		defer listener.Close()
		defer l.Close()

		// The shadow plant starts exactly at the origin, where the AutoPD
		// force is zero and the unstable pole has nothing to amplify; seed
		// a tiny offset so the ramp has something to diverge from.
		l.t.CIT.Shadow.X = 1e-4

		Convey("The task eventually fails once the shadow plant diverges past threshold", func() {
			stepN(l, 200000)

			state := l.CurrentState()
			So(state.Task, ShouldEqual, experiment.Failed)

			lambda := l.t.CIT.Lambda()
			So(lambda, ShouldBeGreaterThanOrEqualTo, 0.5)
			So(lambda, ShouldBeLessThanOrEqualTo, 10.0)

			dist := math.Hypot(state.Cursor.X, state.Cursor.Y)
			So(dist, ShouldBeGreaterThan, 0.08)
		})
	})
}

func TestLoop_FittsSequenceIntegrity(t *testing.T) {
	Convey("Given a loop configured for the Fitts ring task", t, func() {
		cfg := config.Default()
		cfg.Task = experiment.Fitts
		// A strong gain drives the cursor to each target quickly so the
		// sequence completes within a bounded number of ticks.
		cfg.Operator.Kp = 200
		cfg.Operator.Kd = 30
		cfg.Operator.Sigma = 0
		l, listener, _ := newTestLoop(t, cfg)
		defer listener.Close()
		defer l.Close()

		Convey("Single-stepping until completion reaches all 26 movements", func() {
			stepN(l, 2_000_000)

			So(l.CurrentState().Task, ShouldEqual, experiment.Completed)
			m := l.TaskMetrics()
			So(m.Fitts, ShouldNotBeNil)
			So(m.Fitts.MovementsCompleted, ShouldEqual, 26)
		})
	})
}

func TestLoop_ResetAndSetTaskAreIdempotent(t *testing.T) {
	Convey("Given a running loop", t, func() {
		cfg := config.Default()
		l, listener, _ := newTestLoop(t, cfg)
		defer listener.Close()
		defer l.Close()

		stepN(l, 10)

		Convey("SetTask with the same type twice matches calling it once", func() {
			l.SetTask(experiment.CIT)
			once := l.t

			l.SetTask(experiment.CIT)
			twice := l.t

			So(once.Kind, ShouldEqual, twice.Kind)
			So(once.Kind, ShouldEqual, task.KindCIT)
		})

		Convey("Resetting the experiment state twice matches resetting once", func() {
			l.state.Reset()
			first := l.CurrentState()
			l.state.Reset()
			second := l.CurrentState()

			So(first, ShouldResemble, second)
		})
	})
}

func TestLoop_BitIdenticalRunsWithZeroSigma(t *testing.T) {
	Convey("Given two identically configured loops with sigma=0", t, func() {
		run := func() experiment.State {
			cfg := config.Default()
			cfg.Task = experiment.SoS
			cfg.Operator.Sigma = 0
			cfg.Operator.Seed = 1
			l, listener, _ := newTestLoop(t, cfg)
			defer listener.Close()
			defer l.Close()

			stepN(l, 500)
			return l.CurrentState()
		}

		Convey("Their final cursor states are bit-identical", func() {
			s1 := run()
			s2 := run()
			So(s1.Cursor, ShouldResemble, s2.Cursor)
			So(s1.LoopCount, ShouldEqual, s2.LoopCount)
		})
	})
}
