package syncer

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers into a single execution: an explicit
// pending timer handle that is replaced on each trigger, never stacked. The
// function runs once, one window after the last trigger.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
}

// NewDebouncer creates a debouncer with the given coalescing window.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	return &Debouncer{window: window}
}

// Trigger schedules fn after the window, canceling any pending schedule.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Cancel drops any pending execution.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
