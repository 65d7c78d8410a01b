package loop

import (
	"log"
	"time"

	"github.com/niceyeti/hmitrack/config"
	"github.com/niceyeti/hmitrack/experiment"
	"github.com/niceyeti/hmitrack/task"
)

// overrunLogPeriod rate-limits the overrun-crossing log line to at most one
// per second, per SPEC_FULL.md 4.6, so a sustained run of overrunning ticks
// cannot storm the log.
const overrunLogPeriod = time.Second

// logger emits the four structured events named in SPEC_FULL.md 4.6: run
// start, rate-limited overrun crossings, task terminal-state transitions,
// and a run-end summary. It is distinct from reporter.go's periodic stats
// line, which is a steady-state progress print rather than an event log.
// Grounded on the teacher's own plain stdlib `log` usage; the corpus never
// reaches for a structured-logging library, so neither does this.
type logger struct {
	lastOverrunLog time.Time
}

func (lg *logger) runStart(t experiment.TaskType, cfg config.ExperimentConfig) {
	log.Printf("hmitrack: run start task=%s rateHz=%.1f dest=%s:%d",
		t, cfg.ControlRateHz, cfg.Destination.Host, cfg.Destination.Port)
}

// overrun logs at most once per overrunLogPeriod, regardless of how many
// individual ticks crossed the overrun threshold in that window.
func (lg *logger) overrun(tickUS float64, totalOverruns uint64) {
	now := time.Now()
	if !lg.lastOverrunLog.IsZero() && now.Sub(lg.lastOverrunLog) < overrunLogPeriod {
		return
	}
	lg.lastOverrunLog = now
	log.Printf("hmitrack: tick overrun tickUS=%.1f totalOverruns=%d", tickUS, totalOverruns)
}

func (lg *logger) taskTerminal(state experiment.TaskState, m task.Metrics) {
	switch {
	case m.SoS != nil:
		log.Printf("hmitrack: task terminal state=%s rmseTotal=%.5f samples=%d",
			state, m.SoS.RMSETotal, m.SoS.Samples)
	case m.CIT != nil:
		log.Printf("hmitrack: task terminal state=%s divergenceTime=%.2fs lambdaCritical=%.2f",
			state, m.CIT.DivergenceTime, m.CIT.LambdaCritical)
	case m.Fitts != nil:
		log.Printf("hmitrack: task terminal state=%s movements=%d/%d throughput=%.3fbits/s",
			state, m.Fitts.MovementsCompleted, m.Fitts.MovementsTotal, m.Fitts.ThroughputBitsPerS)
	default:
		log.Printf("hmitrack: task terminal state=%s", state)
	}
}

func (lg *logger) runEnd(stats Stats) {
	log.Printf("hmitrack: run end ticks=%d overruns=%d maxTickUS=%.1f emitterErrorRate=%.4f",
		stats.TotalTicks, stats.OverrunCount, stats.MaxTickUS, stats.EmitterStats.ErrorRate)
}
