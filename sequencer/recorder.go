package sequencer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"go-mpc/clock"
	"go-mpc/debug"
)

// DefaultGrace is how long playback stays active after the last event
const DefaultGrace = 500 * time.Millisecond

// Event is one captured pad hit, offset from the start of recording.
type Event struct {
	OffsetMs int64 `json:"offsetMs"`
	Pad      int   `json:"pad"`
}

// Recording is a captured performance. Offsets are non-decreasing.
type Recording struct {
	ID         uuid.UUID `json:"id"`
	Events     []Event   `json:"events"`
	HasContent bool      `json:"hasContent"`
}

// RecordingState is the recorder as seen by the UI.
type RecordingState struct {
	IsRecording  bool
	IsPlaying    bool
	HasRecording bool
	Events       int
}

type recMode int

const (
	recIdle recMode = iota
	recRecording
	recPlaying
)

// Recorder captures pad hits with their timing and replays them. Recording
// and playing are mutually exclusive. There is no cancel for a replay in
// progress; it ends on its own after the last event plus the grace period.
type Recorder struct {
	sched  clock.Scheduler
	grace  time.Duration
	replay func(pad int)

	mu     sync.Mutex
	mode   recMode
	start  time.Duration
	rec    Recording
	gen    uint64
	timers []clock.Timer
}

// NewRecorder creates an idle recorder. replay is called for every event
// during playback, with no lock held. grace <= 0 uses DefaultGrace.
func NewRecorder(sched clock.Scheduler, grace time.Duration, replay func(pad int)) *Recorder {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Recorder{sched: sched, grace: grace, replay: replay}
}

// StartRecording discards the previous recording and starts a new one.
// Ignored while playing back. Calling it while recording restarts.
func (r *Recorder) StartRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == recPlaying {
		debug.Log("rec", "start ignored: playing back")
		return false
	}
	r.mode = recRecording
	r.start = r.sched.Now()
	r.rec = Recording{ID: uuid.New()}
	debug.Log("rec", "recording %s", r.rec.ID)
	return true
}

// Capture appends a hit on pad if recording.
func (r *Recorder) Capture(pad int) {
	now := r.sched.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != recRecording {
		return
	}
	r.rec.Events = append(r.rec.Events, Event{
		OffsetMs: (now - r.start).Milliseconds(),
		Pad:      pad,
	})
}

// StopRecording ends the recording. A recording with no events has no content.
func (r *Recorder) StopRecording() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != recRecording {
		return
	}
	r.mode = recIdle
	r.rec.HasContent = len(r.rec.Events) > 0
	debug.Log("rec", "stopped %s: %d events", r.rec.ID, len(r.rec.Events))
}

// PlayRecording schedules every event at its offset. No-op without content
// or when not idle. Returns whether playback started.
func (r *Recorder) PlayRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != recIdle || !r.rec.HasContent {
		return false
	}
	r.mode = recPlaying
	r.gen++
	gen := r.gen

	var last int64
	r.timers = r.timers[:0]
	for _, e := range r.rec.Events {
		pad := e.Pad
		at := time.Duration(e.OffsetMs) * time.Millisecond
		r.timers = append(r.timers, r.sched.AfterFunc(at, func() { r.fireEvent(gen, pad) }))
		last = max(last, e.OffsetMs)
	}
	done := time.Duration(last)*time.Millisecond + r.grace
	r.timers = append(r.timers, r.sched.AfterFunc(done, func() { r.finish(gen) }))
	debug.Log("rec", "playing %s: %d events over %v", r.rec.ID, len(r.rec.Events), done)
	return true
}

func (r *Recorder) fireEvent(gen uint64, pad int) {
	r.mu.Lock()
	live := r.mode == recPlaying && r.gen == gen
	replay := r.replay
	r.mu.Unlock()

	if live && replay != nil {
		replay(pad)
	}
}

func (r *Recorder) finish(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != recPlaying || r.gen != gen {
		return
	}
	r.mode = recIdle
	r.timers = nil
	debug.Log("rec", "playback done")
}

// Close stops any pending playback timers. Used on shutdown.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
	r.gen++
	if r.mode == recPlaying {
		r.mode = recIdle
	}
}

// State returns a snapshot for the UI.
func (r *Recorder) State() RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RecordingState{
		IsRecording:  r.mode == recRecording,
		IsPlaying:    r.mode == recPlaying,
		HasRecording: r.rec.HasContent,
		Events:       len(r.rec.Events),
	}
}

// Recording returns a copy of the current recording.
func (r *Recorder) Recording() Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.rec
	out.Events = append([]Event(nil), r.rec.Events...)
	return out
}
