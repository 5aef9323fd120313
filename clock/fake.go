package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a Scheduler driven by hand. Callbacks fire synchronously from
// Advance, in deadline order (ties in scheduling order), with no lock held.
type Fake struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*fakeTimer
}

type fakeTimer struct {
	f     *Fake
	at    time.Duration
	seq   uint64
	fn    func()
	fired bool
}

// NewFake returns a Fake at time zero.
func NewFake() *Fake {
	return &Fake{}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc registers fn to run once Advance reaches now+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{f: f, at: f.now + d, seq: f.seq, fn: fn}
	f.pending = append(f.pending, t)
	return t
}

// Advance moves time forward by d, firing every timer that comes due,
// including timers scheduled by callbacks within the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now + d
	f.mu.Unlock()

	for {
		f.mu.Lock()
		t := f.nextDue(target)
		if t == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = t.at
		t.fired = true
		f.remove(t)
		f.mu.Unlock()

		t.fn()
	}
}

// Pending returns the number of timers waiting to fire.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// nextDue returns the earliest timer at or before target. Caller holds mu.
func (f *Fake) nextDue(target time.Duration) *fakeTimer {
	if len(f.pending) == 0 {
		return nil
	}
	sort.Slice(f.pending, func(i, j int) bool {
		if f.pending[i].at == f.pending[j].at {
			return f.pending[i].seq < f.pending[j].seq
		}
		return f.pending[i].at < f.pending[j].at
	})
	if f.pending[0].at > target {
		return nil
	}
	return f.pending[0]
}

func (f *Fake) remove(t *fakeTimer) {
	for i, p := range f.pending {
		if p == t {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return
		}
	}
}

func (t *fakeTimer) Stop() bool {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.fired {
		return false
	}
	for _, p := range t.f.pending {
		if p == t {
			t.f.remove(t)
			t.fired = true
			return true
		}
	}
	return false
}
