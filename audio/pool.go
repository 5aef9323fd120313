package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"

	"go-mpc/debug"
	"go-mpc/sample"
)

const (
	// DefaultVoices is the polyphony per sample
	DefaultVoices = 3
	// MaxVoices bounds the linear scan on the trigger path
	MaxVoices = 10
	// DefaultGain matches the pads' nominal playback volume
	DefaultGain = 0.8

	unlockGain    = 0.01
	unlockLength  = 50 * time.Millisecond
	unlockTimeout = time.Second
)

var errUnlockTimeout = errors.New("unlock playback did not start")

// Source provides decoded sample buffers.
type Source interface {
	Names() []sample.Name
	Buffer(name sample.Name) (*beep.Buffer, bool)
}

// Stats counts hot-path outcomes. Playback never returns errors to the
// caller, so this is where misses become visible.
type Stats struct {
	Played    int64 // hits handed to a voice
	Stolen    int64 // hits that cut off a sounding voice
	Missed    int64 // device refused the voice
	NotReady  int64 // triggers before Prepare
	Unknown   int64 // triggers for a sample that is not loaded
	LastError error
}

// Pool owns a fixed arena of voices per sample and dispatches hits to them.
type Pool struct {
	dev  Device
	size int
	gain float64

	mu       sync.RWMutex
	format   beep.Format
	voices   map[sample.Name][]*voice
	prepared bool

	played, stolen, missed, notReady, unknown atomic.Int64

	errMu   sync.Mutex
	lastErr error
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithVoices sets the number of voices per sample, clamped to 1..MaxVoices.
func WithVoices(n int) PoolOption {
	return func(p *Pool) {
		p.size = max(1, min(n, MaxVoices))
	}
}

// WithGain sets the default playback gain.
func WithGain(g float64) PoolOption {
	return func(p *Pool) {
		if g > 0 {
			p.gain = g
		}
	}
}

// NewPool creates an empty pool playing through dev.
func NewPool(dev Device, opts ...PoolOption) *Pool {
	p := &Pool{
		dev:    dev,
		size:   DefaultVoices,
		gain:   DefaultGain,
		voices: make(map[sample.Name][]*voice),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open opens the underlying device.
func (p *Pool) Open(format beep.Format) error {
	p.mu.Lock()
	p.format = format
	p.mu.Unlock()
	return p.dev.Open(format)
}

// Unlock plays a short, near-silent slice of buf and waits until the device
// starts pulling it.
func (p *Pool) Unlock(ctx context.Context, buf *beep.Buffer) error {
	p.mu.RLock()
	sr := p.format.SampleRate
	p.mu.RUnlock()
	if sr == 0 {
		sr = buf.Format().SampleRate
	}

	src := beep.Take(sr.N(unlockLength), buf.Streamer(0, buf.Len()))
	g := newGainStreamer(src, unlockGain)
	if err := p.dev.Play(g); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	timer := time.NewTimer(unlockTimeout)
	defer timer.Stop()
	select {
	case <-g.started:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errUnlockTimeout
	}
}

// Prepare allocates voices for every loaded sample. Samples that already
// have voices keep them, so calling it again never re-registers anything.
func (p *Pool) Prepare(src Source) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, name := range src.Names() {
		if _, ok := p.voices[name]; ok {
			continue
		}
		buf, ok := src.Buffer(name)
		if !ok {
			continue
		}
		slots := make([]*voice, p.size)
		for i := range slots {
			slots[i] = newVoice(name, buf)
		}
		p.voices[name] = slots
	}
	p.prepared = true
	debug.Log("audio", "prepared %d samples x %d voices", len(p.voices), p.size)
}

// Prepared reports whether Prepare has run.
func (p *Pool) Prepared() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prepared
}

// PlaySound plays a sample at the default gain.
func (p *Pool) PlaySound(name sample.Name) bool {
	return p.Play(name, p.gain)
}

// Play starts name on the first idle voice, stealing voice 0 when all are
// busy. It never blocks; every failure is counted and absorbed. Returns
// whether a voice was started.
func (p *Pool) Play(name sample.Name, gain float64) bool {
	p.mu.RLock()
	prepared := p.prepared
	slots := p.voices[name]
	p.mu.RUnlock()

	if !prepared {
		p.notReady.Add(1)
		return false
	}
	if len(slots) == 0 {
		p.unknown.Add(1)
		debug.Log("audio", "sample not found: %s", name)
		return false
	}

	v := slots[0]
	for _, s := range slots {
		if !s.isPlaying() {
			v = s
			break
		}
	}

	attach, stolen, err := v.start(gain)
	if err != nil {
		p.miss(fmt.Errorf("rewind %s: %w", name, err))
		return false
	}
	if stolen {
		p.stolen.Add(1)
		debug.LogEvery(10, "audio", "voice steal on %s", name)
	}
	if attach {
		if err := p.dev.Play(v); err != nil {
			v.detach()
			p.miss(fmt.Errorf("play %s: %w", name, err))
			return false
		}
	}
	p.played.Add(1)
	return true
}

func (p *Pool) miss(err error) {
	p.missed.Add(1)
	p.errMu.Lock()
	p.lastErr = err
	p.errMu.Unlock()
	debug.Log("audio", "play failed: %v", err)
}

// Active returns how many voices of name are currently sounding.
func (p *Pool) Active(name sample.Name) int {
	p.mu.RLock()
	slots := p.voices[name]
	p.mu.RUnlock()

	n := 0
	for _, v := range slots {
		if v.isPlaying() {
			n++
		}
	}
	return n
}

// Voices returns how many voice slots name owns.
func (p *Pool) Voices(name sample.Name) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.voices[name])
}

// Stats returns a snapshot of the hot-path counters.
func (p *Pool) Stats() Stats {
	p.errMu.Lock()
	lastErr := p.lastErr
	p.errMu.Unlock()
	return Stats{
		Played:    p.played.Load(),
		Stolen:    p.stolen.Load(),
		Missed:    p.missed.Load(),
		NotReady:  p.notReady.Load(),
		Unknown:   p.unknown.Load(),
		LastError: lastErr,
	}
}

// Close closes the device.
func (p *Pool) Close() error {
	return p.dev.Close()
}
