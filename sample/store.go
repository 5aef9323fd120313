package sample

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"golang.org/x/sync/errgroup"

	"go-mpc/debug"
)

// State is the store lifecycle: Locked until the user-gesture Initialize,
// Loading while decoding and unlocking, Ready once both have settled.
type State int

const (
	StateLocked State = iota
	StateLoading
	StateReady
	StateFailed // output could not be opened; Initialize may be retried
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Output is the platform audio subsystem as the store needs it.
type Output interface {
	// Open constructs the audio output. Failure is fatal for the session.
	Open(format beep.Format) error
	// Unlock plays buf near-silently to satisfy gesture-gated platforms.
	Unlock(ctx context.Context, buf *beep.Buffer) error
}

// DefaultFormat is CD-quality stereo
var DefaultFormat = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// Store owns the decoded sample buffers.
type Store struct {
	loader   Loader
	out      Output
	format   beep.Format
	unlockBy Name
	parallel int

	mu       sync.RWMutex
	state    State
	buffers  map[Name]*beep.Buffer
	failures map[Name]error
}

// Option configures a Store.
type Option func(*Store)

// WithSampleRate sets the rate every sample is decoded or resampled to.
func WithSampleRate(sr int) Option {
	return func(s *Store) {
		if sr > 0 {
			s.format.SampleRate = beep.SampleRate(sr)
		}
	}
}

// WithUnlockSample picks the sample played near-silently during unlock.
func WithUnlockSample(n Name) Option {
	return func(s *Store) {
		s.unlockBy = n
	}
}

// WithParallel caps concurrent decodes.
func WithParallel(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// NewStore creates a locked store. Nothing is read or decoded until Initialize.
func NewStore(loader Loader, out Output, opts ...Option) *Store {
	s := &Store{
		loader:   loader,
		out:      out,
		format:   DefaultFormat,
		unlockBy: Kick,
		parallel: 4,
		buffers:  make(map[Name]*beep.Buffer),
		failures: make(map[Name]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize opens the output, decodes every canonical sample and unlocks
// audio. Calls made while loading or after completion are no-ops. Per-sample
// and unlock failures are logged and absorbed; only an output that cannot be
// opened is returned as an error.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateLoading || s.state == StateReady {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	s.mu.Unlock()

	start := time.Now()
	debug.Log("sample", "initializing %d samples at %dHz", len(canonical), s.format.SampleRate)

	if err := s.out.Open(s.format); err != nil {
		s.setState(StateFailed)
		debug.Log("sample", "audio output unavailable: %v", err)
		return fmt.Errorf("open audio output: %w", err)
	}

	buffers, failures := s.decodeAll(ctx)

	s.mu.Lock()
	s.buffers = buffers
	s.failures = failures
	s.mu.Unlock()

	s.unlock(ctx)

	s.setState(StateReady)
	debug.Log("sample", "ready: %d loaded, %d failed in %v", len(buffers), len(failures), time.Since(start))
	return nil
}

func (s *Store) decodeAll(ctx context.Context) (map[Name]*beep.Buffer, map[Name]error) {
	var (
		mu       sync.Mutex
		buffers  = make(map[Name]*beep.Buffer, len(canonical))
		failures = make(map[Name]error)
		g        errgroup.Group
	)
	g.SetLimit(s.parallel)

	for _, name := range canonical {
		g.Go(func() error {
			buf, err := s.loader.Load(ctx, name, s.format)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				debug.Log("sample", "load %s failed: %v", name, err)
				failures[name] = err
				return nil
			}
			buffers[name] = buf
			return nil
		})
	}
	g.Wait()
	return buffers, failures
}

func (s *Store) unlock(ctx context.Context) {
	buf, ok := s.Buffer(s.unlockBy)
	if !ok {
		names := s.Names()
		if len(names) == 0 {
			debug.Log("sample", "no samples loaded, skipping unlock")
			return
		}
		buf, _ = s.Buffer(names[0])
	}
	if err := s.out.Unlock(ctx, buf); err != nil {
		debug.Log("sample", "unlock attempt: %v", err)
		return
	}
	debug.Log("sample", "audio unlocked")
}

func (s *Store) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsReady is true once Initialize has settled, even with partial failures.
func (s *Store) IsReady() bool {
	return s.State() == StateReady
}

// Buffer returns the decoded sample, or false if it is absent.
func (s *Store) Buffer(name Name) (*beep.Buffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := s.buffers[name]
	return buf, ok
}

// Names returns the loaded identities in canonical order.
func (s *Store) Names() []Name {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []Name
	for _, n := range canonical {
		if _, ok := s.buffers[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Duration returns the nominal length of a loaded sample.
func (s *Store) Duration(name Name) time.Duration {
	buf, ok := s.Buffer(name)
	if !ok {
		return 0
	}
	return s.format.SampleRate.D(buf.Len())
}

// Failures returns a copy of the per-sample load errors.
func (s *Store) Failures() map[Name]error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Name]error, len(s.failures))
	for k, v := range s.failures {
		out[k] = v
	}
	return out
}

// Format returns the decode format.
func (s *Store) Format() beep.Format {
	return s.format
}
