package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pad is one cell of the on-screen pad grid
type Pad struct {
	Label  string
	Key    string // keyboard shortcut
	Color  [3]uint8
	Active bool
}

// Pad cell geometry, in terminal cells
const (
	PadWidth  = 10
	PadHeight = 3
	PadGap    = 1
)

// RenderPadCell renders a filled pad with its label and key. Active pads are
// drawn inverted.
func RenderPadCell(p Pad) string {
	bg := lipgloss.Color(rgbToHex(p.Color))
	fg := lipgloss.Color("#000000")
	if p.Active {
		bg, fg = lipgloss.Color("#ffffff"), lipgloss.Color(rgbToHex(p.Color))
	}
	label := p.Label
	if len(label) > PadWidth-2 {
		label = label[:PadWidth-2]
	}
	style := lipgloss.NewStyle().
		Width(PadWidth).
		Height(PadHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Background(bg).
		Foreground(fg).
		Bold(p.Active)
	return style.Render(label + "\n" + p.Key)
}

// RenderPadGrid renders pads row-major in a cols-wide grid, pad 0 top-left
func RenderPadGrid(pads []Pad, cols int) string {
	var rows []string
	for start := 0; start < len(pads); start += cols {
		end := min(start+cols, len(pads))
		var cells []string
		for i, p := range pads[start:end] {
			if i > 0 {
				cells = append(cells, strings.Repeat(" ", PadGap))
			}
			cells = append(cells, RenderPadCell(p))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// PadHit maps a position relative to the grid's top-left to a pad index.
func PadHit(x, y, cols, n int) (int, bool) {
	if x < 0 || y < 0 {
		return 0, false
	}
	col, cx := x/(PadWidth+PadGap), x%(PadWidth+PadGap)
	row, cy := y/PadHeight, y%PadHeight
	if cx >= PadWidth || cy >= PadHeight || col >= cols {
		return 0, false
	}
	i := row*cols + col
	if i >= n {
		return 0, false
	}
	return i, true
}

// RenderBeatStrip draws the metronome cycle with the current step marked
func RenderBeatStrip(steps, pos int, running bool, off, on, accent rune, dim, lit lipgloss.Color) string {
	dimStyle := lipgloss.NewStyle().Foreground(dim)
	litStyle := lipgloss.NewStyle().Foreground(lit)

	var out strings.Builder
	for i := 0; i < steps; i++ {
		if i > 0 && i%4 == 0 {
			out.WriteString(" ")
		}
		switch {
		case running && i == pos && i%4 == 0:
			out.WriteString(litStyle.Render(string(accent)))
		case running && i == pos:
			out.WriteString(litStyle.Render(string(on)))
		default:
			out.WriteString(dimStyle.Render(string(off)))
		}
	}
	return out.String()
}

// RenderMeter draws a horizontal bar for a 0..1 value
func RenderMeter(v float64, width int, color lipgloss.Color) string {
	n := int(v*float64(width) + 0.5)
	n = max(0, min(width, n))
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n))
	return bar + strings.Repeat(" ", width-n)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
