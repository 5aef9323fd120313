package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// MockDevice is a pull-driven Device for tests and headless runs. Sounds go
// into a beep.Mixer, the same one the speaker uses, and nothing plays until
// Mix pulls samples the way a real audio callback would.
type MockDevice struct {
	mu      sync.Mutex
	format  beep.Format
	opened  bool
	openErr error
	playErr error
	mixer   beep.Mixer
	plays   int
}

// NewMockDevice creates an unopened mock device.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// FailOpen makes the next Open calls return err.
func (m *MockDevice) FailOpen(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// FailPlay makes Play calls return err until cleared with nil.
func (m *MockDevice) FailPlay(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *MockDevice) Open(format beep.Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.format = format
	m.opened = true
	return nil
}

// Play attaches the streamer and primes it with a single frame, like the
// first audio callback after a real device starts a sound.
func (m *MockDevice) Play(s beep.Streamer) error {
	m.mu.Lock()
	if !m.opened {
		m.mu.Unlock()
		return ErrNotOpen
	}
	if m.playErr != nil {
		err := m.playErr
		m.mu.Unlock()
		return err
	}
	m.plays++
	m.mu.Unlock()

	frame := make([][2]float64, 1)
	if n, ok := s.Stream(frame); !ok || n < 1 {
		return nil
	}

	m.mu.Lock()
	m.mixer.Add(s)
	m.mu.Unlock()
	return nil
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
	m.mixer.Clear()
	return nil
}

// Mix pulls n frames through the mixer and returns them. Streamers that
// run short are dropped, as on the speaker.
func (m *MockDevice) Mix(n int) [][2]float64 {
	buf := make([][2]float64, n)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mixer.Stream(buf)
	return buf
}

// Drain mixes until every attached streamer has finished.
func (m *MockDevice) Drain() {
	for i := 0; i < 10000 && m.Attached() > 0; i++ {
		m.Mix(4096)
	}
}

// Attached returns how many streamers are in the mix.
func (m *MockDevice) Attached() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mixer.Len()
}

// Plays returns how many successful Play calls were made.
func (m *MockDevice) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

// Opened reports whether Open succeeded.
func (m *MockDevice) Opened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}
