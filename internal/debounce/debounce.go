// Package debounce delays actions until a quiet period has passed.
//
// Each Handle owns one pending slot. Triggering a handle replaces whatever
// action is pending on it and restarts the delay, so only the most recent
// action (with the most recent arguments captured in its closure) runs.
// Handles are independent of each other.
package debounce

import (
	"sync"
	"time"
)

// Handle is a single debounce slot.
//
// Thread-safety: all methods are safe for concurrent use. An action never
// runs concurrently with another action from the same handle.
type Handle struct {
	mu      sync.Mutex
	run     sync.Mutex // serializes actions
	delay   time.Duration
	timer   *time.Timer
	pending func()
	seq     uint64 // sequence number to detect stale timers
}

// Acquire returns a new handle with the given quiet period.
func Acquire(delay time.Duration) *Handle {
	return &Handle{delay: delay}
}

// Delay returns the handle's quiet period.
func (h *Handle) Delay() time.Duration {
	return h.delay
}

// Trigger schedules action to run once the delay elapses without another
// Trigger. A previously pending action is discarded.
func (h *Handle) Trigger(action func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	current := h.seq
	h.pending = action

	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.delay, func() {
		h.fire(current)
	})
}

func (h *Handle) fire(seq uint64) {
	h.mu.Lock()
	if h.seq != seq || h.pending == nil {
		h.mu.Unlock()
		return
	}
	action := h.pending
	h.pending = nil
	h.timer = nil
	h.mu.Unlock()

	h.run.Lock()
	defer h.run.Unlock()
	action()
}

// Cancel discards the pending action, if any.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.seq++
	h.pending = nil
}

// Flush runs the pending action now on the calling goroutine.
// Reports whether an action ran.
func (h *Handle) Flush() bool {
	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.seq++
	action := h.pending
	h.pending = nil
	h.mu.Unlock()

	if action == nil {
		return false
	}
	h.run.Lock()
	defer h.run.Unlock()
	action()
	return true
}
