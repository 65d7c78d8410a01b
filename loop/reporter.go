package loop

import (
	"log"
	"math"
	"sync/atomic"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
)

// reporterPeriod is how often the background stats line prints. This is
// well off the 1kHz hot path, so the teacher's channel-ticker idiom (used
// there for its own periodic progress prints) fits better than anything
// bespoke on the tick loop itself.
const reporterPeriod = 2 * time.Second

// startReporter launches a goroutine that prints a condensed performance
// line every reporterPeriod until done is closed. It only ever reads the
// atomically-published counters below — never the live ExperimentState -
// so it introduces no new shared-mutable-state boundary beyond the one
// spec.md 5 already calls out for the keyboard device.
func (l *Loop) startReporter(done <-chan struct{}) {
	ticker := channerics.NewTicker(done, reporterPeriod)
	go func() {
		for range ticker {
			ticks := atomic.LoadUint64(&l.loopCountPublished)
			overruns := atomic.LoadUint64(&l.overrunCountPublished)
			log.Printf("hmitrack: ticks=%d overruns=%d maxTickUS=%.1f", ticks, overruns, l.maxTickUSPublished())
		}
	}()
}

func (l *Loop) publishCounters() {
	atomic.StoreUint64(&l.loopCountPublished, l.state.LoopCount)
	atomic.StoreUint64(&l.overrunCountPublished, l.overrunCount)
	atomic.StoreUint64(&l.maxTickUSBits, math.Float64bits(l.maxTickUS))
}

func (l *Loop) maxTickUSPublished() float64 {
	return math.Float64frombits(atomic.LoadUint64(&l.maxTickUSBits))
}
