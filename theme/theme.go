package theme

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	PadIdle   rune // ■ pad at rest
	PadHit    rune // █ pad flashing after a hit
	BeatOff   rune // · metronome step
	BeatOn    rune // ● current step
	BeatAccnt rune // ◆ current step on a downbeat
	Recording rune // ● recording indicator
	Playing   rune // ▶ replay indicator
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			PadIdle:   '■',
			PadHit:    '█',
			BeatOff:   '·',
			BeatOn:    '●',
			BeatAccnt: '◆',
			Recording: '●',
			Playing:   '▶',
		},
	}
}

// Default returns a theme on the built-in plasma palette.
func Default() *Theme {
	return New(Plasma())
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return Lipgloss(t.Palette.Lookup(norm))
}

// RGB returns raw RGB for any normalized value (for Launchpad)
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

// Frequency range the pad colours span, in Hz
const (
	lowHz  = 40
	highHz = 12000
)

// PadColor colours a pad by its nominal pitch on a log scale, low drums
// at the dark end of the palette and cymbals at the bright end.
func (t *Theme) PadColor(freq float64) RGB {
	return t.Palette.Lookup(FrequencyNorm(freq))
}

// FrequencyNorm maps freq onto 0..1 logarithmically.
func FrequencyNorm(freq float64) float64 {
	if freq <= lowHz {
		return 0.15
	}
	n := math.Log(freq/lowHz) / math.Log(highHz/lowHz)
	// keep pads off the near-black bottom of the palette
	return 0.15 + 0.85*min(n, 1)
}

// Scale dims or brightens an RGB colour by f.
func Scale(c RGB, f float64) RGB {
	ch := func(v uint8) uint8 {
		return uint8(max(0, min(255, float64(v)*f)))
	}
	return RGB{ch(c[0]), ch(c[1]), ch(c[2])}
}

// Lipgloss converts an RGB colour for terminal styling.
func Lipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
