package sequencer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-mpc/audio"
	"go-mpc/clock"
	"go-mpc/debug"
	"go-mpc/midi"
	"go-mpc/sample"
)

type testRig struct {
	m     *Manager
	fake  *clock.Fake
	dev   *audio.MockDevice
	pool  *audio.Pool
	store *sample.Store
}

func newRig(t *testing.T, opts Options) *testRig {
	t.Helper()
	dev := audio.NewMockDevice()
	pool := audio.NewPool(dev)
	store := sample.NewStore(sample.SynthLoader{}, pool)
	fake := clock.NewFake()
	m := NewManager(store, pool, fake, opts)
	t.Cleanup(func() { m.Close() })
	return &testRig{m: m, fake: fake, dev: dev, pool: pool, store: store}
}

func newReadyRig(t *testing.T) *testRig {
	t.Helper()
	r := newRig(t, Options{})
	if err := r.m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return r
}

func TestManager_NotReadyBeforeInitialize(t *testing.T) {
	r := newRig(t, Options{})

	if r.m.IsReady() {
		t.Fatal("ready before Initialize")
	}
	if r.m.TriggerPad(0) {
		t.Error("TriggerPad accepted before Initialize")
	}
	if r.dev.Opened() || r.dev.Plays() != 0 {
		t.Error("audio device touched before Initialize")
	}
	if r.m.RecordingState().Events != 0 {
		t.Error("unready hit captured")
	}
}

func TestManager_InitializeIdempotent(t *testing.T) {
	r := newReadyRig(t)
	plays := r.dev.Plays() // the unlock slice

	if err := r.m.Initialize(context.Background()); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if !r.m.IsReady() {
		t.Fatal("not ready")
	}
	if r.dev.Plays() != plays {
		t.Errorf("second Initialize played %d more sounds", r.dev.Plays()-plays)
	}
	if r.pool.Voices(sample.Kick) != audio.DefaultVoices {
		t.Errorf("Voices(kick) = %d", r.pool.Voices(sample.Kick))
	}
}

func TestManager_InitializeDeviceFailure(t *testing.T) {
	r := newRig(t, Options{})
	busy := errors.New("device busy")
	r.dev.FailOpen(busy)

	err := r.m.Initialize(context.Background())
	if !errors.Is(err, busy) {
		t.Fatalf("err = %v, want %v", err, busy)
	}
	if r.m.IsReady() || r.m.LoadState() != sample.StateFailed {
		t.Errorf("state = %v", r.m.LoadState())
	}

	r.dev.FailOpen(nil)
	if err := r.m.Initialize(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !r.m.TriggerPad(0) {
		t.Error("pad not accepted after retry")
	}
}

func TestManager_TriggerDebounced(t *testing.T) {
	r := newReadyRig(t)

	if !r.m.TriggerPad(1) {
		t.Fatal("first hit rejected")
	}
	r.fake.Advance(50 * time.Millisecond)
	if r.m.TriggerPad(1) {
		t.Error("hit 50ms later accepted")
	}
	if !r.m.TriggerPad(2) {
		t.Error("other pad blocked by debounce")
	}
	r.fake.Advance(100 * time.Millisecond)
	if !r.m.TriggerPad(1) {
		t.Error("hit 150ms later rejected")
	}

	if got := r.m.Stats().Played; got != 3 {
		t.Errorf("Played = %d, want 3", got)
	}
}

func TestManager_TriggerOutOfRange(t *testing.T) {
	r := newReadyRig(t)
	for _, i := range []int{-1, NumPads, 100} {
		if r.m.TriggerPad(i) {
			t.Errorf("TriggerPad(%d) accepted", i)
		}
	}
	if r.m.Stats().Played != 0 {
		t.Error("out of range pad played")
	}
}

func TestManager_SharedSamplePads(t *testing.T) {
	r := newReadyRig(t)
	// hiphop pads 0 (KICK) and 4 (808) share the kick sample
	r.m.TriggerPad(0)
	r.m.TriggerPad(4)
	if got := r.pool.Active(sample.Kick); got != 2 {
		t.Errorf("Active(kick) = %d, want 2", got)
	}
}

func TestManager_PadFlash(t *testing.T) {
	r := newReadyRig(t)
	r.m.TriggerPad(3)

	if !r.m.ActivePads()[3] {
		t.Fatal("pad 3 not lit after hit")
	}
	if r.m.ActivePads()[2] {
		t.Error("pad 2 lit without a hit")
	}
	r.fake.Advance(149 * time.Millisecond)
	if !r.m.ActivePads()[3] {
		t.Error("pad 3 went dark early")
	}
	r.fake.Advance(time.Millisecond)
	if r.m.ActivePads()[3] {
		t.Error("pad 3 still lit after 150ms")
	}
}

func TestManager_MetronomeSoundsEveryTick(t *testing.T) {
	r := newReadyRig(t)

	r.m.StartMetronome()
	r.fake.Advance(16 * 500 * time.Millisecond)

	st := r.m.ClockState()
	if !st.Running || st.Position != 0 {
		t.Errorf("clock = %+v, want running at position 0 after 16 ticks", st)
	}
	if got := r.m.Stats().Played; got != 16 {
		t.Errorf("Played = %d, want 16", got)
	}

	// the tick at 8.5s is already armed, then 250ms spacing up to 10s
	r.m.SetTempo(240)
	r.fake.Advance(2 * time.Second)
	if got := r.m.Stats().Played; got != 16+7 {
		t.Errorf("Played = %d, want %d", got, 16+7)
	}

	// a live hit on the click's sample at a tick is not blocked by it
	r.fake.Advance(250 * time.Millisecond)
	if !r.m.TriggerPad(8) { // hiphop RIM
		t.Error("live rim hit rejected at a metronome tick")
	}

	r.m.StopMetronome()
	if st := r.m.ClockState(); st.Running || st.Position != 0 {
		t.Errorf("after stop: %+v", st)
	}
}

func TestManager_RecordAndReplay(t *testing.T) {
	r := newReadyRig(t)

	r.m.StartRecording()
	r.m.TriggerPad(2)
	r.fake.Advance(300 * time.Millisecond)
	r.m.TriggerPad(5)
	r.fake.Advance(50 * time.Millisecond)
	r.m.TriggerPad(5) // debounced: not recorded
	r.m.StopRecording()

	rec := r.m.Recording()
	want := []Event{{0, 2}, {300, 5}}
	if len(rec.Events) != 2 || rec.Events[0] != want[0] || rec.Events[1] != want[1] {
		t.Fatalf("events = %v, want %v", rec.Events, want)
	}

	played := r.m.Stats().Played
	if !r.m.PlayRecording() {
		t.Fatal("PlayRecording returned false")
	}
	if !r.m.RecordingState().IsPlaying {
		t.Fatal("not playing")
	}

	r.fake.Advance(300 * time.Millisecond)
	if got := r.m.Stats().Played - played; got != 2 {
		t.Errorf("replay played %d hits, want 2", got)
	}
	if !r.m.ActivePads()[5] {
		t.Error("replayed pad not lit")
	}
	// replayed hits are not captured
	if n := len(r.m.Recording().Events); n != 2 {
		t.Errorf("recording grew to %d events", n)
	}

	r.fake.Advance(500 * time.Millisecond)
	if r.m.RecordingState().IsPlaying {
		t.Error("still playing after grace")
	}
}

func TestManager_ReplayGoesThroughDebouncer(t *testing.T) {
	r := newReadyRig(t)

	r.m.StartRecording()
	r.m.TriggerPad(0)
	r.m.StopRecording()

	played := r.m.Stats().Played
	r.m.PlayRecording()
	// the live hit at the same instant already used pad 0's window
	r.fake.Advance(0)
	if got := r.m.Stats().Played - played; got != 0 {
		t.Errorf("replay inside debounce window played %d", got)
	}
	r.fake.Advance(DefaultGrace)
	if r.m.RecordingState().IsPlaying {
		t.Error("suppressed replay did not finish")
	}
}

func TestManager_Kits(t *testing.T) {
	r := newRig(t, Options{Kit: "acoustic"})

	if r.m.KitKey() != "acoustic" || r.m.Kit().Name != "Acoustic" {
		t.Fatalf("kit = %s", r.m.KitKey())
	}
	if err := r.m.SelectKit("polka"); !errors.Is(err, ErrUnknownKit) {
		t.Errorf("SelectKit(polka) = %v, want ErrUnknownKit", err)
	}
	if r.m.KitKey() != "acoustic" {
		t.Error("failed SelectKit changed the kit")
	}
	if got := r.m.NextKit(); got != "hiphop" {
		t.Errorf("NextKit = %q, want hiphop", got)
	}
	if other := newRig(t, Options{Kit: "polka"}); other.m.KitKey() != DefaultKit {
		t.Errorf("unknown configured kit gave %q", other.m.KitKey())
	}
}

func TestManager_NotReadyUntilVoicesPrepared(t *testing.T) {
	r := newRig(t, Options{})

	// samples settled, voices not yet allocated
	if err := r.store.Initialize(context.Background()); err != nil {
		t.Fatalf("store Initialize: %v", err)
	}
	if r.m.IsReady() {
		t.Fatal("ready before the pool was prepared")
	}
	if r.m.LoadState() != sample.StateLoading {
		t.Errorf("LoadState = %v, want loading", r.m.LoadState())
	}
	if r.m.TriggerPad(0) {
		t.Error("hit accepted before voices exist")
	}
	if st := r.m.Stats(); st.NotReady != 0 {
		t.Errorf("NotReady = %d, want 0 (hit should stop at the manager)", st.NotReady)
	}

	if err := r.m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !r.m.IsReady() || !r.m.TriggerPad(0) {
		t.Error("pad not playable after Initialize")
	}
}

func TestManager_NextKitLogsBadEntry(t *testing.T) {
	var buf bytes.Buffer
	debug.EnableTo(&buf)
	t.Cleanup(debug.Disable)

	catalog := &Catalog{
		kits:  map[string]Kit{"hiphop": Kits["hiphop"]},
		order: []string{"hiphop", "ghost"},
	}
	r := newRig(t, Options{Catalog: catalog})

	if got := r.m.NextKit(); got != "hiphop" {
		t.Errorf("NextKit = %q, want hiphop (unchanged)", got)
	}
	if !strings.Contains(buf.String(), "ghost") {
		t.Errorf("failed kit switch not logged:\n%s", buf.String())
	}
}

func TestManager_KitSwitchResetsDebounce(t *testing.T) {
	r := newReadyRig(t)

	if !r.m.TriggerPad(0) {
		t.Fatal("first hit rejected")
	}
	r.m.SelectKit("trap")
	if !r.m.TriggerPad(0) {
		t.Error("hit right after a kit switch was debounced")
	}
	if r.m.TriggerPad(0) {
		t.Error("repeat hit on the new kit was not debounced")
	}
}

func TestManager_HandleInput(t *testing.T) {
	r := newReadyRig(t)

	r.m.HandlePad(3, 0) // top-left of the 4x4 = pad 0
	r.m.HandleNote(38, 100)
	r.m.HandleNote(40, 0)  // release
	r.m.HandleNote(60, 90) // outside the pad range
	r.m.HandlePad(5, 5)    // unmapped grid cell

	active := r.m.ActivePads()
	if !active[0] || !active[2] || active[4] {
		t.Errorf("active = %v, want pads 0 and 2", active)
	}
	if got := r.m.Stats().Played; got != 2 {
		t.Errorf("Played = %d, want 2", got)
	}

	r.m.HandlePad(midi.TopRow, buttonMetronome)
	if !r.m.ClockState().Running {
		t.Error("metronome button did not start the clock")
	}
	r.m.HandlePad(midi.TopRow, buttonTempoUp)
	if r.m.ClockState().Tempo != DefaultTempo+tempoStep {
		t.Errorf("tempo = %d", r.m.ClockState().Tempo)
	}
	r.m.HandlePad(midi.TopRow, buttonKit)
	if r.m.KitKey() != "trap" {
		t.Errorf("kit button gave %q", r.m.KitKey())
	}
	r.m.HandlePad(midi.TopRow, buttonRecord)
	if !r.m.RecordingState().IsRecording {
		t.Error("record button did not start recording")
	}
}

// fakeController records LED batches.
type fakeController struct {
	mu      sync.Mutex
	batches [][]midi.LEDUpdate
}

func (f *fakeController) ID() string                                { return "fake" }
func (f *fakeController) Type() midi.ControllerType                 { return midi.ControllerLaunchpad }
func (f *fakeController) PadEvents() <-chan midi.PadEvent           { return nil }
func (f *fakeController) NoteEvents() <-chan midi.NoteEvent         { return nil }
func (f *fakeController) SetLEDRGB(int, int, [3]uint8, uint8) error { return nil }
func (f *fakeController) Close() error                              { return nil }

func (f *fakeController) SetLEDBatch(u []midi.LEDUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]midi.LEDUpdate(nil), u...))
	return nil
}

func (f *fakeController) last() []midi.LEDUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil
	}
	return f.batches[len(f.batches)-1]
}

func TestManager_LEDDiffing(t *testing.T) {
	r := newReadyRig(t)
	ctrl := &fakeController{}
	r.m.SetController(ctrl)

	r.m.flushLEDs()
	first := ctrl.last()
	if len(first) != len(r.m.RenderLEDs()) {
		t.Fatalf("first flush sent %d LEDs, want %d", len(first), len(r.m.RenderLEDs()))
	}

	r.m.flushLEDs()
	if len(ctrl.batches) != 1 {
		t.Error("unchanged frame sent LEDs")
	}

	r.m.TriggerPad(0)
	r.m.flushLEDs()
	got := ctrl.last()
	if len(got) != 1 || got[0].Row != 3 || got[0].Col != 0 || got[0].Color != [3]uint8{255, 255, 255} {
		t.Errorf("hit flush = %+v, want pad 0 white", got)
	}

	r.fake.Advance(DefaultFlash)
	r.m.flushLEDs()
	if got := ctrl.last(); len(got) != 1 || got[0].Color == [3]uint8{255, 255, 255} {
		t.Errorf("flash end flush = %+v", got)
	}
}

func TestManager_UpdateChanNonBlocking(t *testing.T) {
	r := newReadyRig(t)
	for i := 0; i < 10; i++ {
		r.m.TriggerPad(i)
	}
	select {
	case <-r.m.UpdateChan:
	default:
		t.Fatal("no update notification")
	}
}

func TestManager_CloseStopsTimers(t *testing.T) {
	r := newReadyRig(t)
	r.m.StartRecording()
	r.m.TriggerPad(0)
	r.m.StopRecording()
	r.m.StartMetronome()
	r.m.PlayRecording()

	if err := r.m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if r.fake.Pending() != 0 {
		t.Errorf("%d timers pending after Close", r.fake.Pending())
	}
	if r.dev.Opened() {
		t.Error("device still open")
	}
	if err := r.m.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
