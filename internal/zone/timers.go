package zone

import "time"

// Timer is a handle to a pending callback registered on Timers.
type Timer struct {
	id       uint64
	due      time.Duration
	interval time.Duration
	fn       func()
	canceled bool
}

// Stop cancels the timer. Safe to call on a nil or already fired timer.
func (t *Timer) Stop() {
	if t != nil {
		t.canceled = true
	}
}

// Active reports whether the timer will still fire.
func (t *Timer) Active() bool {
	return t != nil && !t.canceled
}

// Timers is a cooperative timer queue driven by Advance. It is not safe for
// concurrent use; the owner advances it from a single control thread.
type Timers struct {
	now     time.Duration
	nextID  uint64
	pending []*Timer
}

// NewTimers creates an empty timer queue at time zero.
func NewTimers() *Timers {
	return &Timers{}
}

// Now returns the elapsed time since the queue was created.
func (ts *Timers) Now() time.Duration {
	return ts.now
}

// After runs fn once, d from now.
func (ts *Timers) After(d time.Duration, fn func()) *Timer {
	return ts.add(d, 0, fn)
}

// Every runs fn every interval, first firing one interval from now.
func (ts *Timers) Every(interval time.Duration, fn func()) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	return ts.add(interval, interval, fn)
}

// Pending returns the number of timers that will still fire.
func (ts *Timers) Pending() int {
	n := 0
	for _, t := range ts.pending {
		if !t.canceled {
			n++
		}
	}
	return n
}

func (ts *Timers) add(d, interval time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	ts.nextID++
	t := &Timer{id: ts.nextID, due: ts.now + d, interval: interval, fn: fn}
	ts.pending = append(ts.pending, t)
	return t
}

// Advance moves time forward by d, firing due callbacks in deadline order.
// Ties fire in registration order. Timers registered by a callback fire in the
// same call if they fall due within the window.
func (ts *Timers) Advance(d time.Duration) {
	end := ts.now + d
	for {
		t := ts.next(end)
		if t == nil {
			break
		}
		ts.now = t.due
		if t.interval > 0 {
			t.due += t.interval
		} else {
			t.canceled = true
		}
		t.fn()
	}
	ts.now = end
	ts.compact()
}

// next returns the earliest live timer due at or before end.
func (ts *Timers) next(end time.Duration) *Timer {
	var best *Timer
	for _, t := range ts.pending {
		if t.canceled || t.due > end {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.id < best.id) {
			best = t
		}
	}
	return best
}

func (ts *Timers) compact() {
	live := ts.pending[:0]
	for _, t := range ts.pending {
		if !t.canceled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(ts.pending); i++ {
		ts.pending[i] = nil
	}
	ts.pending = live
}
