package theme

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go-mpc/debug"
)

type RGB [3]uint8

// White is used for pads being hit
var White = RGB{255, 255, 255}

// Palette is an ordered colour ramp. Lookup blends between neighbours.
type Palette struct {
	Name   string
	Colors []RGB
}

// LoadGPL reads a GIMP palette file.
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseGPL reads the GIMP palette format: a "GIMP Palette" header, optional
// Name: and Columns: lines, # comments, then one "R G B [label]" per line.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", line[0] == '#', line == "GIMP Palette":
			continue
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(line[len("Name:"):])
			continue
		case strings.HasPrefix(line, "Columns:"):
			continue
		}

		c, err := parseRGB(strings.Fields(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		p.Colors = append(p.Colors, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("palette %q has no colors", p.Name)
	}
	return p, nil
}

func parseRGB(fields []string) (RGB, error) {
	var c RGB
	if len(fields) < 3 {
		return c, fmt.Errorf("want R G B, got %q", strings.Join(fields, " "))
	}
	for i := range c {
		v, err := strconv.ParseUint(fields[i], 10, 8)
		if err != nil {
			return c, fmt.Errorf("channel %q: %w", fields[i], err)
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// Plasma is the built-in palette, dark purple through magenta and orange
// to yellow.
func Plasma() *Palette {
	return &Palette{
		Name: "plasma",
		Colors: []RGB{
			{13, 8, 135},
			{75, 3, 161},
			{125, 3, 168},
			{168, 34, 150},
			{203, 70, 121},
			{229, 107, 93},
			{248, 148, 65},
			{253, 195, 40},
			{240, 249, 33},
		},
	}
}

// LoadOrDefault loads a GPL palette, falling back to Plasma when path is
// empty or unusable.
func LoadOrDefault(path string) *Palette {
	if path == "" {
		return Plasma()
	}
	p, err := LoadGPL(path)
	if err != nil {
		debug.Log("config", "palette: %v, using plasma", err)
		return Plasma()
	}
	return p
}

// Lookup maps 0..1 onto the ramp, clamping outside it.
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	switch {
	case norm <= 0 || last == 0:
		return p.Colors[0]
	case norm >= 1:
		return p.Colors[last]
	}

	pos := norm * float64(last)
	i := int(pos)
	t := pos - float64(i)
	a, b := p.Colors[i], p.Colors[i+1]

	var out RGB
	for ch := range out {
		out[ch] = uint8(float64(a[ch]) + (float64(b[ch])-float64(a[ch]))*t)
	}
	return out
}
