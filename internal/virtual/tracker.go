package virtual

import (
	"time"
)

// DefaultSettleDelay is the quiet period after the last scroll event before
// the viewport is considered settled.
const DefaultSettleDelay = 150 * time.Millisecond

// Tracker holds the observed viewport and the debounced scrolling state.
// Resize and scroll observations are tracked separately: a resize never
// touches the scrolling state.
type Tracker struct {
	viewport    Viewport
	scrolling   bool
	seq         uint64
	timer       Timer
	settleDelay time.Duration
	scheduler   Scheduler
}

// NewTracker returns a tracker that settles after delay using scheduler.
func NewTracker(delay time.Duration, scheduler Scheduler) *Tracker {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	if scheduler == nil {
		scheduler = SystemScheduler{}
	}
	return &Tracker{settleDelay: delay, scheduler: scheduler}
}

// Viewport returns the last observed viewport.
func (t *Tracker) Viewport() Viewport {
	return t.viewport
}

// IsScrolling reports whether a scroll burst is in progress.
func (t *Tracker) IsScrolling() bool {
	return t.scrolling
}

// SettleDelay returns the debounce delay.
func (t *Tracker) SettleDelay() time.Duration {
	return t.settleDelay
}

// SetSettleDelay changes the debounce delay for subsequent scroll events.
func (t *Tracker) SetSettleDelay(d time.Duration) {
	if d > 0 {
		t.settleDelay = d
	}
}

// Resize records a new container size and reports whether it changed.
func (t *Tracker) Resize(size float64) bool {
	if t.viewport.ContainerSize == size {
		return false
	}
	t.viewport.ContainerSize = size
	return true
}

// Scroll records a scroll event and restarts the settle timer. settle is
// invoked with the burst sequence once the delay passes without another
// scroll; it must call [Tracker.Settle]. Scroll reports whether this event
// started a new burst.
func (t *Tracker) Scroll(offset float64, settle func(seq uint64)) bool {
	t.viewport.ScrollOffset = offset
	started := !t.scrolling
	t.scrolling = true
	t.seq++
	if t.timer != nil {
		t.timer.Stop()
	}
	seq := t.seq
	t.timer = t.scheduler.AfterFunc(t.settleDelay, func() { settle(seq) })
	return started
}

// Settle ends the scroll burst identified by seq. Stale sequences from
// superseded timers are ignored. It reports whether the state changed.
func (t *Tracker) Settle(seq uint64) bool {
	if seq != t.seq || !t.scrolling {
		return false
	}
	t.scrolling = false
	t.timer = nil
	return true
}

// Stop cancels any pending settle timer.
func (t *Tracker) Stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
