package clock

import (
	"sync"
	"time"
)

// Fake is a Clock whose time only moves when Advance is called. Due callbacks
// run synchronously inside Advance, in firing order, with the fake's lock
// released so callbacks may schedule or stop timers themselves.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clk      *Fake
	id       int
	when     time.Time
	interval time.Duration // 0 for one-shot
	fn       func()
	stopped  bool
}

// NewFake returns a Fake clock frozen at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	return f.schedule(d, 0, fn)
}

func (f *Fake) Every(interval time.Duration, fn func()) Timer {
	return f.schedule(interval, interval, fn)
}

func (f *Fake) schedule(d, interval time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{
		clk:      f,
		id:       f.seq,
		when:     f.now.Add(d),
		interval: interval,
		fn:       fn,
	}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the fake time forward by d, firing every timer that comes due
// along the way. Time lands exactly on each firing instant before the
// callback runs, so callbacks observe consistent Now() values.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		t := f.nextDueLocked(target)
		if t == nil {
			break
		}
		f.now = t.when
		if t.interval > 0 {
			t.when = t.when.Add(t.interval)
		} else {
			t.stopped = true
		}
		fn := t.fn
		f.mu.Unlock()
		fn()
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

// nextDueLocked returns the earliest live timer due at or before target,
// breaking ties by scheduling order.
func (f *Fake) nextDueLocked(target time.Time) *fakeTimer {
	var due *fakeTimer
	for _, t := range f.timers {
		if t.stopped || t.when.After(target) {
			continue
		}
		if due == nil || t.when.Before(due.when) || (t.when.Equal(due.when) && t.id < due.id) {
			due = t
		}
	}
	return due
}

// Pending reports how many timers are armed and not yet stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	t.stopped = true
}
