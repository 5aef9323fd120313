// Package audio plays decoded samples through a bounded pool of voices.
//
// The pipeline per hit is:
//
//	[Buffer] -> [voice (seek 0, gain)] -> [Device mixer] -> [Speaker]
//
// A voice stays attached to the device mixer until it drains, so restarting
// a voice that is still sounding is a seek, not a second mixer entry.
package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// ErrNotOpen is returned when playing through a device that was never opened
var ErrNotOpen = errors.New("audio device not open")

// Device is the platform audio output.
type Device interface {
	// Open initializes the output at the given format. Safe to call again.
	Open(format beep.Format) error
	// Play adds a streamer to the output mix and returns immediately.
	Play(s beep.Streamer) error
	// Close releases the output.
	Close() error
}

// Speaker plays through the system audio device via beep's speaker.
type Speaker struct {
	buffer time.Duration

	mu   sync.Mutex
	open bool
}

// NewSpeaker creates a speaker with the given output buffer length.
// Smaller buffers lower latency at the cost of underrun risk.
func NewSpeaker(buffer time.Duration) *Speaker {
	if buffer <= 0 {
		buffer = 20 * time.Millisecond
	}
	return &Speaker{buffer: buffer}
}

// Open initializes the speaker once.
func (s *Speaker) Open(format beep.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(s.buffer)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	s.open = true
	return nil
}

// Play hands the streamer to the speaker mixer.
func (s *Speaker) Play(st beep.Streamer) error {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		return ErrNotOpen
	}
	speaker.Play(st)
	return nil
}

// Close stops the speaker.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		speaker.Clear()
		speaker.Close()
		s.open = false
	}
	return nil
}
