package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-mpc/debug"
)

const noteBuffer = 32

// noGrid is handed out as PadEvents by controllers without pads
var noGrid = func() chan PadEvent {
	ch := make(chan PadEvent)
	close(ch)
	return ch
}()

// KeyboardController plays pads from note-ons: a keyboard, or a pad
// controller in note mode. It has no lights.
type KeyboardController struct {
	id      string
	channel int // 1..16, 0 = omni

	stop      func()
	notes     chan NoteEvent
	closeOnce sync.Once
}

// NewKeyboardController listens on inPort, keeping notes on channel
// (1..16) or on every channel when channel is 0. A nil port gives a
// controller fed only through receive.
func NewKeyboardController(id string, inPort drivers.In, channel int) (*KeyboardController, error) {
	if channel < 0 || channel > 16 {
		return nil, fmt.Errorf("keyboard %s: channel %d out of range", id, channel)
	}
	kb := &KeyboardController{
		id:      id,
		channel: channel,
		notes:   make(chan NoteEvent, noteBuffer),
	}
	if inPort == nil {
		return kb, nil
	}

	stop, err := gomidi.ListenTo(inPort, kb.receive)
	if err != nil {
		return nil, fmt.Errorf("keyboard %s: listen: %w", id, err)
	}
	kb.stop = stop
	return kb, nil
}

// accepts reports whether a zero-based MIDI channel passes the filter
func (kb *KeyboardController) accepts(ch uint8) bool {
	return kb.channel == 0 || int(ch) == kb.channel-1
}

func (kb *KeyboardController) receive(msg gomidi.Message, _ int32) {
	var ch, note, vel uint8
	if !msg.GetNoteOn(&ch, &note, &vel) || vel == 0 || !kb.accepts(ch) {
		return
	}

	select {
	case kb.notes <- NoteEvent{Note: note, Velocity: vel, Channel: ch}:
	default:
		debug.Log("midi", "%s: note %d dropped, reader behind", kb.id, note)
	}
}

func (kb *KeyboardController) ID() string           { return kb.id }
func (kb *KeyboardController) Type() ControllerType { return ControllerKeyboard }

func (kb *KeyboardController) PadEvents() <-chan PadEvent   { return noGrid }
func (kb *KeyboardController) NoteEvents() <-chan NoteEvent { return kb.notes }

func (kb *KeyboardController) SetLEDRGB(int, int, [3]uint8, uint8) error { return nil }
func (kb *KeyboardController) SetLEDBatch([]LEDUpdate) error             { return nil }

// Close stops listening and closes the note channel. Safe to call twice.
func (kb *KeyboardController) Close() error {
	kb.closeOnce.Do(func() {
		if kb.stop != nil {
			kb.stop()
		}
		close(kb.notes)
	})
	return nil
}
