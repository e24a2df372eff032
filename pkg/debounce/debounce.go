// Package debounce coalesces bursts of triggers into a single delayed call.
// It exists so draft persistence can batch keystroke-level updates without
// losing the final edit: Stop flushes any pending call before returning.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once the configured delay has elapsed with no further
// Trigger calls. All methods are safe for concurrent use.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	stopped bool
}

func New(delay time.Duration, fn func()) *Debouncer {
	if fn == nil {
		fn = func() {}
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn after the delay, resetting the countdown if one is
// already pending. Triggers after Stop are ignored.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()
	d.fn()
}

// Flush runs a pending call immediately instead of waiting out the delay.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fn()
}

// Stop flushes any pending call and rejects further triggers. It is the
// teardown hook: no edit that reached Trigger is ever dropped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	pending := d.pending
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	if pending {
		d.fn()
	}
}
