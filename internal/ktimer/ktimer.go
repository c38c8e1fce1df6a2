// Package ktimer drives the periodic timer tick of spec.md §4.H: account
// the tick on the current task, advance wake-up timers, and flag a
// reschedule when appropriate.
//
// Grounded on gcsfuse's clock package, which exists so that time-driven
// behavior (cache TTLs, retry backoff) can be driven by an injectable
// clock in tests instead of wall time; here the same shape lets tests
// fire ticks deterministically instead of racing a real timer.
package ktimer

import (
	"time"

	"github.com/iurie5100/tilck/internal/kernel/sched"
)

// Ticker abstracts the hardware timer interrupt source (§6 "Timer: drives
// periodic tick at TIMER_HZ"). The real implementation below wraps
// time.Ticker; tests supply their own by calling Tick directly.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// NewWallTicker returns a Ticker driven by hz ticks per second.
func NewWallTicker(hz int) Ticker {
	if hz <= 0 {
		hz = 250
	}
	return wallTicker{time.NewTicker(time.Second / time.Duration(hz))}
}

// Tick performs one timer-interrupt's worth of work on core: account the
// tick on the current task and advance the wake-up timer list. Safe to
// call repeatedly and concurrently with task execution, matching the
// real timer IRQ always running with interrupts already disabled.
func Tick(core *sched.Core) {
	core.AccountTick()
	core.AdvanceWakeupTimers()
}

// Run drives Tick off ticker until stop is closed.
func Run(core *sched.Core, ticker Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-ticker.C():
			Tick(core)
		case <-stop:
			ticker.Stop()
			return
		}
	}
}
