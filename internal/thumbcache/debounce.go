package thumbcache

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period after the last viewport event
// before the visible range is recomputed.
const DefaultDebounce = 150 * time.Millisecond

// Debouncer coalesces bursts of events into one tick on C after a quiet
// period. At most one timer is pending; every Trigger cancels and restarts
// it. The tick is delivered on a channel so that the recompute runs on
// the goroutine that owns the cache, not on the timer goroutine.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64 // identifies the live timer; older timers fire into the void
	stopped bool
	c       chan struct{}
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay < 0 {
		panic("thumbcache: negative debounce delay")
	}
	return &Debouncer{
		delay: delay,
		c:     make(chan struct{}, 1),
	}
}

// C delivers one value per elapsed quiet period.
func (d *Debouncer) C() <-chan struct{} {
	return d.c
}

// Trigger records an event and restarts the quiet period. A tick from an
// earlier quiet period that has not been received yet is withdrawn.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.drainLocked()
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Stop cancels any pending tick. Nothing is delivered on C afterwards and
// further Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.drainLocked()
}

// Pending reports whether a quiet period is running or a tick is waiting.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil || len(d.c) > 0
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || gen != d.gen {
		return
	}
	d.timer = nil
	select {
	case d.c <- struct{}{}:
	default:
	}
}

func (d *Debouncer) drainLocked() {
	select {
	case <-d.c:
	default:
	}
}
