package sequencer

import (
	"sync"
	"time"
)

// DefaultDebounce is the minimum spacing between accepted hits on one pad
const DefaultDebounce = 100 * time.Millisecond

// Debouncer drops repeat triggers of the same pad that arrive too close
// together. Pads are independent.
type Debouncer struct {
	interval time.Duration

	mu   sync.Mutex
	last map[int]time.Duration
}

// NewDebouncer creates a debouncer; interval <= 0 uses DefaultDebounce.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Debouncer{interval: interval, last: make(map[int]time.Duration)}
}

// Accept reports whether a trigger of pad at now should go through.
// The first trigger of a pad is always accepted.
func (d *Debouncer) Accept(pad int, now time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.last[pad]; ok && now-last < d.interval {
		return false
	}
	d.last[pad] = now
	return true
}

// Reset forgets every pad's last accepted time.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.last)
}
