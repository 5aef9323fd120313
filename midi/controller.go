package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerKeyboard
)

var controllerNames = [...]string{
	ControllerUnknown:   "unknown",
	ControllerLaunchpad: "launchpad",
	ControllerKeyboard:  "keyboard",
}

func (t ControllerType) String() string {
	if t < 0 || int(t) >= len(controllerNames) {
		return controllerNames[ControllerUnknown]
	}
	return controllerNames[t]
}

// PadEvent is a press on a grid controller. Row 0 is the bottom of the
// grid; TopRow holds the function buttons.
type PadEvent struct {
	Row, Col int
	Velocity uint8
}

// NoteEvent is a note-on from a keyboard. Channel is zero-based.
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// LEDUpdate sets one LED. Channel carries the LED mode.
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8
}

// LED modes. A Launchpad selects them by the MIDI channel of the note.
const (
	LEDStatic uint8 = iota
	LEDFlash
	LEDPulse
)

// PadSource produces grid presses.
type PadSource interface {
	PadEvents() <-chan PadEvent
}

// NoteSource produces note-ons.
type NoteSource interface {
	NoteEvents() <-chan NoteEvent
}

// LEDSink accepts LED colours. Devices without lights ignore them.
type LEDSink interface {
	SetLEDRGB(row, col int, rgb [3]uint8, mode uint8) error
	SetLEDBatch(updates []LEDUpdate) error
}

// Controller is a connected MIDI device. Both event channels are closed
// by Close; a device without a grid returns an already closed PadEvents.
type Controller interface {
	PadSource
	NoteSource
	LEDSink

	ID() string
	Type() ControllerType
	Close() error
}
