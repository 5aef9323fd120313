package sequencer

import (
	"sync"
	"time"

	"go-mpc/clock"
	"go-mpc/debug"
)

// Tempo bounds and default
const (
	MinTempo     = 60
	MaxTempo     = 240
	DefaultTempo = 120

	// Steps is the length of the position cycle; every 4th step is accented
	Steps = 16

	accentPulse = 1.0
	beatPulse   = 0.6
	pulseDecay  = 0.75 // fraction of the period the pulse takes to reach 0
)

// Tick is one metronome firing.
type Tick struct {
	Position int
	Accent   bool
}

// ClockState is the metronome as seen by the UI.
type ClockState struct {
	Tempo    int
	Running  bool
	Position int
	Accent   bool
	Pulse    float64 // 0..1, peaks on each tick
}

// Metronome fires a recurring tick at the current tempo. Each tick is
// scheduled individually, so a tempo change lands on the next one.
type Metronome struct {
	sched  clock.Scheduler
	onTick func(Tick)

	mu       sync.Mutex
	tempo    int
	running  bool
	position int
	gen      uint64 // bumped on start/stop so stale timers do nothing
	timer    clock.Timer

	ticked     bool
	lastTick   time.Duration
	lastPeriod time.Duration
	lastAccent bool
}

// NewMetronome creates a stopped metronome. onTick runs on every tick with
// no lock held; it may be nil.
func NewMetronome(sched clock.Scheduler, tempo int, onTick func(Tick)) *Metronome {
	return &Metronome{
		sched:  sched,
		onTick: onTick,
		tempo:  ClampTempo(tempo),
	}
}

// ClampTempo bounds bpm to MinTempo..MaxTempo.
func ClampTempo(bpm int) int {
	return max(MinTempo, min(bpm, MaxTempo))
}

// Period returns the tick spacing at bpm.
func Period(bpm int) time.Duration {
	return time.Minute / time.Duration(ClampTempo(bpm))
}

// Start begins ticking. The first tick comes one period from now.
func (m *Metronome) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.position = 0
	m.ticked = false
	m.gen++
	m.schedule(m.gen)
	debug.Log("metro", "start at %d bpm", m.tempo)
}

// Stop cancels the pending tick and resets position and pulse.
func (m *Metronome) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.position = 0
	m.ticked = false
	debug.Log("metro", "stop")
}

// Toggle starts a stopped metronome or stops a running one. Returns the new
// running state.
func (m *Metronome) Toggle() bool {
	if m.Running() {
		m.Stop()
		return false
	}
	m.Start()
	return true
}

// SetTempo clamps and stores bpm. A running metronome picks it up when it
// schedules the following tick. Returns the tempo actually set.
func (m *Metronome) SetTempo(bpm int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tempo = ClampTempo(bpm)
	return m.tempo
}

// Tempo returns the current tempo.
func (m *Metronome) Tempo() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

// Running reports whether the metronome is ticking.
func (m *Metronome) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// State returns a snapshot including the pulse at the current time.
func (m *Metronome) State() ClockState {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return ClockState{
		Tempo:    m.tempo,
		Running:  m.running,
		Position: m.position,
		Accent:   m.position%4 == 0,
		Pulse:    m.pulseAt(now),
	}
}

// Pulse returns the visual pulse at the current time.
func (m *Metronome) Pulse() float64 {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulseAt(now)
}

func (m *Metronome) pulseAt(now time.Duration) float64 {
	if !m.running || !m.ticked {
		return 0
	}
	span := time.Duration(float64(m.lastPeriod) * pulseDecay)
	elapsed := now - m.lastTick
	if elapsed < 0 || elapsed >= span {
		return 0
	}
	peak := beatPulse
	if m.lastAccent {
		peak = accentPulse
	}
	return peak * (1 - float64(elapsed)/float64(span))
}

// schedule arms the next tick. Caller holds mu.
func (m *Metronome) schedule(gen uint64) {
	m.timer = m.sched.AfterFunc(Period(m.tempo), func() { m.fire(gen) })
}

func (m *Metronome) fire(gen uint64) {
	now := m.sched.Now()

	m.mu.Lock()
	if !m.running || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.position = (m.position + 1) % Steps
	tick := Tick{Position: m.position, Accent: m.position%4 == 0}
	m.ticked = true
	m.lastTick = now
	m.lastPeriod = Period(m.tempo)
	m.lastAccent = tick.Accent
	m.schedule(gen)
	onTick := m.onTick
	m.mu.Unlock()

	if onTick != nil {
		onTick(tick)
	}
}
