// Package debounce coalesces bursts of calls into a single call after a
// quiet period.
package debounce

import (
	"sync"
	"time"
)

// Scheduler runs at most one callback per key once that key has been quiet
// for its delay. Scheduling a key again before its timer fires replaces the
// pending callback and restarts the timer.
//
// Thread-safety: all methods are safe for concurrent use. Callbacks run on
// timer goroutines without the scheduler's lock held.
type Scheduler struct {
	mu      sync.Mutex
	slots   map[string]*slot
	stopped bool
}

type slot struct {
	timer *time.Timer
	fn    func()
	seq   uint64 // sequence number to detect stale callbacks
}

// New creates an empty scheduler
func New() *Scheduler {
	return &Scheduler{slots: make(map[string]*slot)}
}

// Schedule arranges for fn to run after delay unless key is scheduled again
// or cancelled first. It reports false once the scheduler has been stopped.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{}
		s.slots[key] = sl
	}
	if sl.timer != nil {
		sl.timer.Stop()
	}

	sl.seq++
	currentSeq := sl.seq
	sl.fn = fn
	sl.timer = time.AfterFunc(delay, func() {
		s.fire(key, currentSeq)
	})
	return true
}

func (s *Scheduler) fire(key string, seq uint64) {
	s.mu.Lock()
	sl, ok := s.slots[key]
	// Only run if this is still the current callback for the key
	if !ok || sl.seq != seq || sl.fn == nil || s.stopped {
		s.mu.Unlock()
		return
	}
	fn := sl.fn
	sl.fn = nil
	sl.timer = nil
	s.mu.Unlock()

	fn()
}

// Flush runs the pending callback for key right away, cancelling its timer.
// It reports whether there was anything to run.
func (s *Scheduler) Flush(key string) bool {
	s.mu.Lock()
	sl, ok := s.slots[key]
	if !ok || sl.fn == nil || s.stopped {
		s.mu.Unlock()
		return false
	}
	if sl.timer != nil {
		sl.timer.Stop()
		sl.timer = nil
	}
	// Increment seq to invalidate a timer callback that is already running
	sl.seq++
	fn := sl.fn
	sl.fn = nil
	s.mu.Unlock()

	fn()
	return true
}

// Cancel drops the pending callback for key. Cancelling a key with nothing
// pending is a no-op.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(key)
}

// CancelAll drops every pending callback
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.slots {
		s.cancelLocked(key)
	}
}

func (s *Scheduler) cancelLocked(key string) {
	sl, ok := s.slots[key]
	if !ok {
		return
	}
	if sl.timer != nil {
		sl.timer.Stop()
		sl.timer = nil
	}
	sl.seq++
	sl.fn = nil
}

// Pending reports whether key has a callback waiting to fire
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	return ok && sl.fn != nil
}

// Stop cancels everything and makes later calls to Schedule fail. A callback
// that has already started is not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.slots {
		s.cancelLocked(key)
	}
	s.stopped = true
}

// Stopped reports whether Stop has been called
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
