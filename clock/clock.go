// Package clock provides the timer facility the engine schedules against.
//
// Everything time-driven (metronome ticks, recorded-event replay, debounce
// timestamps) goes through a Scheduler so tests can swap in a Fake and step
// time deterministically instead of sleeping.
package clock

import (
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. Returns false if it already fired or was stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay and reports monotonic time.
type Scheduler interface {
	// Now returns the time elapsed since the scheduler was created.
	Now() time.Duration
	// AfterFunc calls f once, d from now, on a goroutine of the scheduler's choosing.
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is a Scheduler backed by the runtime timers and the monotonic clock.
type Real struct {
	start time.Time
}

// New creates a real scheduler whose zero is the moment of creation.
func New() *Real {
	return &Real{start: time.Now()}
}

// Now returns the monotonic time since New.
func (r *Real) Now() time.Duration {
	return time.Since(r.start)
}

// AfterFunc wraps time.AfterFunc.
func (r *Real) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, f)
}
