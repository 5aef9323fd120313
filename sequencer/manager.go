package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-mpc/audio"
	"go-mpc/clock"
	"go-mpc/debug"
	"go-mpc/midi"
	"go-mpc/sample"
	"go-mpc/theme"
)

// LED refresh rate
const ledFPS = 30

// DefaultFlash is how long a pad stays lit after a hit
const DefaultFlash = 150 * time.Millisecond

// Top row buttons on a Launchpad
const (
	buttonMetronome = iota
	buttonRecord
	buttonPlay
	buttonKit
	buttonTempoDown
	buttonTempoUp
)

const tempoStep = 5

// LEDState describes the state of a single LED
type LEDState struct {
	Row, Col int
	Color    [3]uint8 // RGB color - controller maps to its palette
	Channel  uint8    // midi.LEDStatic, LEDFlash or LEDPulse
}

// Options configures a Manager. Zero fields take defaults.
type Options struct {
	Kit      string
	Tempo    int
	Debounce time.Duration
	Grace    time.Duration
	Flash    time.Duration

	AccentSample sample.Name
	ClickSample  sample.Name
	AccentGain   float64
	ClickGain    float64

	Catalog *Catalog
	Theme   *theme.Theme
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		Kit:          DefaultKit,
		Tempo:        DefaultTempo,
		Debounce:     DefaultDebounce,
		Grace:        DefaultGrace,
		Flash:        DefaultFlash,
		AccentSample: sample.Rim,
		ClickSample:  sample.Rim,
		AccentGain:   1.0,
		ClickGain:    0.45,
	}
}

func (o *Options) fill() {
	d := DefaultOptions()
	if o.Kit == "" {
		o.Kit = d.Kit
	}
	if o.Tempo == 0 {
		o.Tempo = d.Tempo
	}
	if o.Flash <= 0 {
		o.Flash = d.Flash
	}
	if o.AccentSample == "" {
		o.AccentSample = d.AccentSample
	}
	if o.ClickSample == "" {
		o.ClickSample = d.ClickSample
	}
	if o.AccentGain <= 0 {
		o.AccentGain = d.AccentGain
	}
	if o.ClickGain <= 0 {
		o.ClickGain = d.ClickGain
	}
	if o.Catalog == nil {
		o.Catalog = BuiltinCatalog()
	}
	if o.Theme == nil {
		o.Theme = theme.Default()
	}
}

// Manager composes the sample store, voice pool, debouncer, metronome and
// recorder into the pad engine the UI and controllers drive.
type Manager struct {
	store *sample.Store
	pool  *audio.Pool
	sched clock.Scheduler
	opts  Options

	debounce  *Debouncer
	metronome *Metronome
	recorder  *Recorder

	mu         sync.Mutex
	kitKey     string
	kit        Kit
	flashUntil [NumPads]time.Duration
	controller midi.Controller
	prevLEDs   map[[2]int]LEDState // for diffing

	closeOnce sync.Once
	stopChan  chan struct{}

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager wires a manager around store and pool. Nothing touches the
// audio device until Initialize.
func NewManager(store *sample.Store, pool *audio.Pool, sched clock.Scheduler, opts Options) *Manager {
	opts.fill()
	m := &Manager{
		store:      store,
		pool:       pool,
		sched:      sched,
		opts:       opts,
		debounce:   NewDebouncer(opts.Debounce),
		prevLEDs:   make(map[[2]int]LEDState),
		stopChan:   make(chan struct{}),
		UpdateChan: make(chan struct{}, 1),
	}
	m.metronome = NewMetronome(sched, opts.Tempo, m.click)
	m.recorder = NewRecorder(sched, opts.Grace, func(pad int) { m.TriggerPad(pad) })

	if err := m.SelectKit(opts.Kit); err != nil {
		debug.Log("kit", "%v, using %s", err, DefaultKit)
		m.kitKey, m.kit = DefaultKit, GetKit(DefaultKit)
	}
	return m
}

// Initialize loads samples and unlocks audio, then allocates voices. Safe to
// call repeatedly; only an unusable audio device is an error.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.store.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if m.store.IsReady() {
		m.pool.Prepare(m.store)
	}
	m.notifyUpdate()
	return nil
}

// IsReady reports whether pads make sound: samples are settled and the
// pool has voices for them.
func (m *Manager) IsReady() bool {
	return m.store.IsReady() && m.pool.Prepared()
}

// LoadState returns the sample store lifecycle state.
func (m *Manager) LoadState() sample.State {
	st := m.store.State()
	if st == sample.StateReady && !m.pool.Prepared() {
		return sample.StateLoading
	}
	return st
}

// Stats returns playback counters.
func (m *Manager) Stats() audio.Stats {
	return m.pool.Stats()
}

// TriggerPad plays pad i of the current kit. Hits before audio is ready,
// outside the kit, or too soon after the previous hit on the same pad are
// dropped. Accepted hits are captured while recording. Returns whether the
// hit was accepted.
func (m *Manager) TriggerPad(i int) bool {
	if !m.IsReady() {
		debug.Log("pad", "pad %d ignored: audio not ready", i)
		return false
	}

	m.mu.Lock()
	pad, ok := m.kit.Pad(i)
	m.mu.Unlock()
	if !ok {
		return false
	}

	now := m.sched.Now()
	if !m.debounce.Accept(i, now) {
		return false
	}

	m.pool.PlaySound(pad.Sample)

	m.mu.Lock()
	m.flashUntil[i] = now + m.opts.Flash
	m.mu.Unlock()

	m.recorder.Capture(i)
	m.notifyUpdate()
	return true
}

// click sounds a metronome tick. It goes straight to the pool.
func (m *Manager) click(t Tick) {
	if m.IsReady() {
		if t.Accent {
			m.pool.Play(m.opts.AccentSample, m.opts.AccentGain)
		} else {
			m.pool.Play(m.opts.ClickSample, m.opts.ClickGain)
		}
	}
	debug.LogEvery(16, "metro", "tick pos=%d accent=%v", t.Position, t.Accent)
	m.notifyUpdate()
}

// Metronome

func (m *Manager) StartMetronome() {
	m.metronome.Start()
	m.notifyUpdate()
}

func (m *Manager) StopMetronome() {
	m.metronome.Stop()
	m.notifyUpdate()
}

// ToggleMetronome returns whether the metronome is now running.
func (m *Manager) ToggleMetronome() bool {
	running := m.metronome.Toggle()
	m.notifyUpdate()
	return running
}

// SetTempo clamps bpm to 60..240 and returns the tempo set.
func (m *Manager) SetTempo(bpm int) int {
	bpm = m.metronome.SetTempo(bpm)
	m.notifyUpdate()
	return bpm
}

func (m *Manager) ClockState() ClockState {
	return m.metronome.State()
}

// Recording

func (m *Manager) StartRecording() bool {
	ok := m.recorder.StartRecording()
	m.notifyUpdate()
	return ok
}

func (m *Manager) StopRecording() {
	m.recorder.StopRecording()
	m.notifyUpdate()
}

// ToggleRecording starts or stops recording.
func (m *Manager) ToggleRecording() {
	if m.recorder.State().IsRecording {
		m.StopRecording()
		return
	}
	m.StartRecording()
}

func (m *Manager) PlayRecording() bool {
	ok := m.recorder.PlayRecording()
	m.notifyUpdate()
	return ok
}

func (m *Manager) RecordingState() RecordingState {
	return m.recorder.State()
}

// Recording returns a copy of the last recording.
func (m *Manager) Recording() Recording {
	return m.recorder.Recording()
}

// Kits

// SelectKit switches the pad layout. Debounce windows start over since pad
// indexes now name different sounds.
func (m *Manager) SelectKit(key string) error {
	kit, ok := m.opts.Catalog.Get(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKit, key)
	}
	m.mu.Lock()
	m.kitKey, m.kit = key, kit
	m.mu.Unlock()
	m.debounce.Reset()
	debug.Log("kit", "selected %s (%s)", key, kit.Name)
	m.notifyUpdate()
	return nil
}

// NextKit cycles to the following kit and returns the key now selected.
func (m *Manager) NextKit() string {
	next := m.opts.Catalog.Next(m.KitKey())
	if err := m.SelectKit(next); err != nil {
		debug.Log("kit", "next kit: %v", err)
	}
	return m.KitKey()
}

func (m *Manager) Kit() Kit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kit
}

func (m *Manager) KitKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kitKey
}

// KitKeys returns every selectable kit in cycling order.
func (m *Manager) KitKeys() []string {
	return m.opts.Catalog.Keys()
}

// Visuals

// ActivePads reports which pads are lit from a recent hit.
func (m *Manager) ActivePads() [NumPads]bool {
	now := m.sched.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [NumPads]bool
	for i, until := range m.flashUntil {
		out[i] = now < until
	}
	return out
}

// PadColor returns the resting colour of pad i.
func (m *Manager) PadColor(i int) [3]uint8 {
	pad, ok := m.Kit().Pad(i)
	if !ok {
		return [3]uint8{}
	}
	return m.opts.Theme.PadColor(pad.Frequency)
}

// RenderLEDs lays the pads out in the bottom-left 4x4 of a Launchpad and
// the transport on the top row.
func (m *Manager) RenderLEDs() []LEDState {
	active := m.ActivePads()
	clk := m.metronome.State()
	rec := m.recorder.State()
	kit := m.Kit()
	th := m.opts.Theme

	leds := make([]LEDState, 0, NumPads+6)
	for i, pad := range kit.Pads {
		if i >= NumPads {
			break
		}
		row, col := midi.PadCell(i)
		color := theme.Scale(th.PadColor(pad.Frequency), 0.4)
		if active[i] {
			color = theme.White
		}
		leds = append(leds, LEDState{Row: row, Col: col, Color: color})
	}

	top := func(col int, c theme.RGB) {
		leds = append(leds, LEDState{Row: midi.TopRow, Col: col, Color: c, Channel: midi.LEDStatic})
	}
	if clk.Running {
		beat := th.RGB(theme.RoleWarning)
		if clk.Pulse > 0 {
			beat = theme.Scale(beat, 0.3+0.7*clk.Pulse)
		} else {
			beat = theme.Scale(beat, 0.3)
		}
		top(buttonMetronome, beat)
	} else {
		top(buttonMetronome, theme.Scale(th.RGB(theme.RoleWarning), 0.15))
	}
	switch {
	case rec.IsRecording:
		leds = append(leds, LEDState{Row: midi.TopRow, Col: buttonRecord, Color: theme.RGB{255, 0, 0}, Channel: midi.LEDPulse})
	default:
		top(buttonRecord, theme.RGB{60, 0, 0})
	}
	switch {
	case rec.IsPlaying:
		top(buttonPlay, theme.RGB{0, 255, 0})
	case rec.HasRecording:
		top(buttonPlay, theme.RGB{0, 100, 0})
	}
	top(buttonKit, th.RGB(theme.RoleAccent))
	top(buttonTempoDown, theme.Scale(th.RGB(theme.RoleFG), 0.3))
	top(buttonTempoUp, theme.Scale(th.RGB(theme.RoleFG), 0.3))
	return leds
}

// Controller output

// SetController sets the MIDI controller for LED feedback
func (m *Manager) SetController(c midi.Controller) {
	debug.Log("led", "controller set, resetting diff state")
	m.mu.Lock()
	m.controller = c
	m.prevLEDs = make(map[[2]int]LEDState) // diff will handle clearing
	m.mu.Unlock()
}

// StartRuntime runs the LED and UI refresh loop until ctx is done or the
// manager is closed.
func (m *Manager) StartRuntime(ctx context.Context) {
	go m.ledLoop(ctx)
}

// ledLoop runs at fixed FPS, flushing LED changes and waking the UI while
// something is animating
func (m *Manager) ledLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.flushLEDs()
			if m.animating() {
				m.notifyUpdate()
			}
		}
	}
}

func (m *Manager) animating() bool {
	if m.metronome.Running() || m.recorder.State().IsPlaying {
		return true
	}
	for _, a := range m.ActivePads() {
		if a {
			return true
		}
	}
	return false
}

// flushLEDs sends only changed LEDs to the controller (diffing + batching)
func (m *Manager) flushLEDs() {
	m.mu.Lock()
	ctrl := m.controller
	m.mu.Unlock()
	if ctrl == nil {
		return
	}

	leds := m.RenderLEDs()

	m.mu.Lock()
	newMap := make(map[[2]int]LEDState, len(leds))
	var updates []midi.LEDUpdate
	for _, led := range leds {
		key := [2]int{led.Row, led.Col}
		newMap[key] = led
		if prev, ok := m.prevLEDs[key]; !ok || prev != led {
			updates = append(updates, midi.LEDUpdate{
				Row:     led.Row,
				Col:     led.Col,
				Color:   led.Color,
				Channel: led.Channel,
			})
		}
	}
	// Clear LEDs that are no longer present
	for key := range m.prevLEDs {
		if _, ok := newMap[key]; !ok {
			updates = append(updates, midi.LEDUpdate{Row: key[0], Col: key[1]})
		}
	}
	m.prevLEDs = newMap
	m.mu.Unlock()

	if len(updates) > 0 {
		debug.LogEvery(30, "led", "flush batch=%d", len(updates))
		if err := ctrl.SetLEDBatch(updates); err != nil {
			debug.Log("led", "LED batch failed: %v", err)
		}
	}
}

// Input routing

// HandlePad routes a Launchpad press: the bottom-left 4x4 plays pads, the
// top row drives the transport.
func (m *Manager) HandlePad(row, col int) {
	if pad, ok := midi.PadAt(row, col); ok {
		m.TriggerPad(pad)
		return
	}
	if row != midi.TopRow {
		return
	}
	switch col {
	case buttonMetronome:
		m.ToggleMetronome()
	case buttonRecord:
		m.ToggleRecording()
	case buttonPlay:
		m.PlayRecording()
	case buttonKit:
		m.NextKit()
	case buttonTempoDown:
		m.SetTempo(m.metronome.Tempo() - tempoStep)
	case buttonTempoUp:
		m.SetTempo(m.metronome.Tempo() + tempoStep)
	}
}

// HandleNote plays the pad mapped to note (36..51). Velocity 0 is a release.
func (m *Manager) HandleNote(note, velocity uint8) {
	if velocity == 0 {
		return
	}
	if pad, ok := midi.NoteToPad(note); ok {
		m.TriggerPad(pad)
	}
}

// notifyUpdate wakes the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Close stops the metronome, any pending replay and the runtime loop, then
// closes the audio device.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.metronome.Stop()
		m.recorder.Close()
		close(m.stopChan)
		err = m.pool.Close()
	})
	return err
}
