package clock

import (
	"sync"
	"time"
)

// Timer is a cancelable handle to a scheduled callback. Stop is idempotent:
// stopping an already-stopped or already-fired timer is a no-op.
type Timer interface {
	Stop()
}

// Clock schedules callbacks. The real implementation delegates to the time
// package; tests drive a Fake instead so every firing is deterministic.
type Clock interface {
	Now() time.Time
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// Every runs fn repeatedly, first after interval, then every interval,
	// until the returned Timer is stopped.
	Every(interval time.Duration, fn func()) Timer
}

// New returns a Clock backed by real wall-clock time.
func New() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return &oneShot{t: time.AfterFunc(d, fn)}
}

func (systemClock) Every(interval time.Duration, fn func()) Timer {
	r := &repeating{done: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return r
}

type oneShot struct{ t *time.Timer }

func (o *oneShot) Stop() { o.t.Stop() }

type repeating struct {
	once sync.Once
	done chan struct{}
}

func (r *repeating) Stop() { r.once.Do(func() { close(r.done) }) }
