package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"

	"go-mpc/sample"
)

// voice is one playback slot bound to a sample. It is shared between the
// trigger side (start) and the audio callback (Stream), hence the mutex.
type voice struct {
	name sample.Name

	mu       sync.Mutex
	src      beep.StreamSeeker
	gain     float64
	playing  bool
	attached bool // still in the device mix
}

func newVoice(name sample.Name, buf *beep.Buffer) *voice {
	return &voice{name: name, src: buf.Streamer(0, buf.Len())}
}

// start rewinds the voice and marks it playing. attach reports whether the
// caller must hand it to the device; stolen reports whether a sound was cut
// off. A failed rewind leaves the voice untouched.
func (v *voice) start(gain float64) (attach, stolen bool, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.src.Seek(0); err != nil {
		return false, false, err
	}
	stolen = v.playing
	v.gain = gain
	v.playing = true
	attach = !v.attached
	v.attached = true
	return attach, stolen, nil
}

// detach resets a voice whose hand-off to the device failed.
func (v *voice) detach() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
	v.attached = false
}

func (v *voice) isPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

// Stream feeds the device. The mixer drops any streamer that returns fewer
// samples than asked for, so a short read also marks the voice detached and
// the next start re-attaches it.
func (v *voice) Stream(samples [][2]float64) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.playing {
		v.attached = false
		return 0, false
	}

	n, ok := v.src.Stream(samples)
	for i := range n {
		samples[i][0] *= v.gain
		samples[i][1] *= v.gain
	}
	if !ok || n < len(samples) {
		v.playing = false
		v.attached = false
		return n, n > 0
	}
	if v.src.Position() >= v.src.Len() {
		// ended on a full read; still in the mix until the next pull
		v.playing = false
	}
	return n, true
}

func (v *voice) Err() error {
	return nil
}

// gainStreamer scales a one-off streamer and signals when the device first
// pulls from it.
type gainStreamer struct {
	s       beep.Streamer
	gain    float64
	once    sync.Once
	started chan struct{}
}

func newGainStreamer(s beep.Streamer, gain float64) *gainStreamer {
	return &gainStreamer{s: s, gain: gain, started: make(chan struct{})}
}

func (g *gainStreamer) Stream(samples [][2]float64) (int, bool) {
	g.once.Do(func() { close(g.started) })
	n, ok := g.s.Stream(samples)
	for i := range n {
		samples[i][0] *= g.gain
		samples[i][1] *= g.gain
	}
	return n, ok
}

func (g *gainStreamer) Err() error {
	return g.s.Err()
}
