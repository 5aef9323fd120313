package midi

// The 16 drum pads sit in the bottom-left 4x4 of a Launchpad grid, pad 0 at
// the top-left like the on-screen grid. On a keyboard or pad controller in
// note mode they are notes 36..51 (GM kick upwards).
const (
	PadRows  = 4
	PadCols  = 4
	NumPads  = PadRows * PadCols
	BaseNote = 36

	// TopRow is the Launchpad's row of round CC buttons
	TopRow = 8
)

// PadAt maps a Launchpad cell to a pad index.
func PadAt(row, col int) (int, bool) {
	if row < 0 || row >= PadRows || col < 0 || col >= PadCols {
		return 0, false
	}
	return (PadRows-1-row)*PadCols + col, true
}

// PadCell returns the Launchpad cell for a pad index.
func PadCell(pad int) (row, col int) {
	return PadRows - 1 - pad/PadCols, pad % PadCols
}

// NoteToPad maps a note number to a pad index.
func NoteToPad(note uint8) (int, bool) {
	if note < BaseNote || note >= BaseNote+NumPads {
		return 0, false
	}
	return int(note - BaseNote), true
}

// PadNote returns the note number that triggers pad.
func PadNote(pad int) uint8 {
	return uint8(BaseNote + pad)
}
