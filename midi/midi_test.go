package midi

import "testing"

func TestPadAt_BottomLeftQuadrant(t *testing.T) {
	tests := []struct {
		row, col int
		pad      int
		ok       bool
	}{
		{3, 0, 0, true},
		{3, 3, 3, true},
		{2, 0, 4, true},
		{0, 0, 12, true},
		{0, 3, 15, true},
		{4, 0, 0, false},
		{0, 4, 0, false},
		{-1, 0, 0, false},
		{TopRow, 0, 0, false},
	}
	for _, tt := range tests {
		pad, ok := PadAt(tt.row, tt.col)
		if ok != tt.ok || (ok && pad != tt.pad) {
			t.Errorf("PadAt(%d, %d) = %d, %v; want %d, %v", tt.row, tt.col, pad, ok, tt.pad, tt.ok)
		}
	}
}

func TestPadCell_RoundTrip(t *testing.T) {
	for pad := 0; pad < NumPads; pad++ {
		row, col := PadCell(pad)
		got, ok := PadAt(row, col)
		if !ok || got != pad {
			t.Errorf("pad %d -> (%d,%d) -> %d, %v", pad, row, col, got, ok)
		}
	}
}

func TestNoteToPad(t *testing.T) {
	tests := []struct {
		note uint8
		pad  int
		ok   bool
	}{
		{35, 0, false},
		{36, 0, true},
		{38, 2, true},
		{51, 15, true},
		{52, 0, false},
	}
	for _, tt := range tests {
		pad, ok := NoteToPad(tt.note)
		if ok != tt.ok || (ok && pad != tt.pad) {
			t.Errorf("NoteToPad(%d) = %d, %v; want %d, %v", tt.note, pad, ok, tt.pad, tt.ok)
		}
	}
	if PadNote(15) != 51 {
		t.Errorf("PadNote(15) = %d, want 51", PadNote(15))
	}
}

func TestLaunchpadNoteMapping(t *testing.T) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 9; col++ {
			r, c := noteToRowCol(rowColToNote(row, col))
			if r != row || c != col {
				t.Errorf("(%d,%d) round trips to (%d,%d)", row, col, r, c)
			}
		}
	}
	if r, c := noteToRowCol(95); r != TopRow || c != 4 {
		t.Errorf("note 95 = (%d,%d), want (8,4)", r, c)
	}
	if r, _ := noteToRowCol(5); r != -1 {
		t.Error("note 5 mapped onto the grid")
	}
	if r, c := ccToRowCol(91); r != TopRow || c != 0 {
		t.Errorf("cc 91 = (%d,%d)", r, c)
	}
}

func TestMapRGBToLaunchpad(t *testing.T) {
	tests := []struct {
		rgb  [3]uint8
		want uint8
	}{
		{[3]uint8{0, 0, 0}, 0},
		{[3]uint8{255, 255, 255}, 119},
		{[3]uint8{250, 5, 5}, 5},
		{[3]uint8{0, 250, 0}, 21},
	}
	for _, tt := range tests {
		if got := mapRGBToLaunchpad(tt.rgb); got != tt.want {
			t.Errorf("mapRGBToLaunchpad(%v) = %d, want %d", tt.rgb, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want ControllerType
	}{
		{"Launchpad X LPX MIDI", ControllerLaunchpad},
		{"Launchpad X LPX DAW", ControllerUnknown},
		{"Midi Through Port-0", ControllerUnknown},
		{"Arturia MiniLab mkII", ControllerKeyboard},
		{"", ControllerUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestKeyboardChannelFilter(t *testing.T) {
	kb, err := NewKeyboardController("kb", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer kb.Close()

	kb.receive([]byte{0x90, 36, 100}, 0) // channel 1: filtered
	kb.receive([]byte{0x99, 38, 100}, 0) // channel 10
	kb.receive([]byte{0x99, 40, 0}, 0)   // note-off by velocity 0

	select {
	case e := <-kb.NoteEvents():
		if e.Note != 38 || e.Channel != 9 {
			t.Errorf("event = %+v, want note 38 on channel index 9", e)
		}
	default:
		t.Fatal("no note event")
	}
	select {
	case e := <-kb.NoteEvents():
		t.Errorf("unexpected event %+v", e)
	default:
	}
}

func TestLaunchpadReceive(t *testing.T) {
	lp, err := NewLaunchpadController("lp", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer lp.Close()

	lp.receive([]byte{0x90, 11, 127}, 0) // bottom-left grid note
	lp.receive([]byte{0xB0, 92, 127}, 0) // top row CC
	lp.receive([]byte{0xB0, 92, 0}, 0)   // release

	want := []PadEvent{{Row: 0, Col: 0, Velocity: 127}, {Row: TopRow, Col: 1, Velocity: 127}}
	for _, w := range want {
		select {
		case e := <-lp.PadEvents():
			if e != w {
				t.Errorf("event = %+v, want %+v", e, w)
			}
		default:
			t.Fatalf("missing event %+v", w)
		}
	}
	if len(lp.PadEvents()) != 0 {
		t.Error("release produced an event")
	}
}

func TestKeyboardLifecycle(t *testing.T) {
	if _, err := NewKeyboardController("kb", nil, 17); err == nil {
		t.Error("channel 17 accepted")
	}

	kb, err := NewKeyboardController("kb", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := <-kb.PadEvents(); ok {
		t.Error("keyboard produced a pad event")
	}
	kb.receive([]byte{0x95, 42, 90}, 0) // omni: any channel passes

	kb.Close()
	kb.Close() // second close is a no-op

	e, ok := <-kb.NoteEvents()
	if !ok || e.Note != 42 || e.Channel != 5 {
		t.Errorf("buffered event = %+v, %v", e, ok)
	}
	if _, ok := <-kb.NoteEvents(); ok {
		t.Error("note channel open after Close")
	}
}

func TestControllerTypeString(t *testing.T) {
	tests := map[ControllerType]string{
		ControllerUnknown:   "unknown",
		ControllerLaunchpad: "launchpad",
		ControllerKeyboard:  "keyboard",
		ControllerType(42):  "unknown",
	}
	for ct, want := range tests {
		if got := ct.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(ct), got, want)
		}
	}
}
