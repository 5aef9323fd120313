package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.gpl")
	data := "GIMP Palette\nName: mono\nColumns: 2\n# comment\n0 0 0 black\n255 255 255 white\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadGPL(path)
	if err != nil {
		t.Fatalf("LoadGPL failed: %v", err)
	}
	if p.Name != "mono" || len(p.Colors) != 2 {
		t.Fatalf("palette = %q with %d colors", p.Name, len(p.Colors))
	}
	if got := p.Lookup(0.5); got != (RGB{127, 127, 127}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
	if got := p.Lookup(2); got != (RGB{255, 255, 255}) {
		t.Errorf("Lookup(2) = %v, want clamp to last", got)
	}
}

func TestLoadOrDefault(t *testing.T) {
	if p := LoadOrDefault(""); p.Name != "plasma" {
		t.Errorf("empty path gave %q", p.Name)
	}
	if p := LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl")); p.Name != "plasma" {
		t.Errorf("missing file gave %q", p.Name)
	}
}

func TestFrequencyNorm(t *testing.T) {
	prev := -1.0
	for _, f := range []float64{10, 60, 200, 1000, 8000, 12000, 20000} {
		n := FrequencyNorm(f)
		if n < 0 || n > 1 {
			t.Errorf("FrequencyNorm(%v) = %v out of range", f, n)
		}
		if n < prev {
			t.Errorf("FrequencyNorm(%v) = %v decreased", f, n)
		}
		prev = n
	}
}

func TestScale(t *testing.T) {
	if got := Scale(RGB{100, 200, 50}, 2); got != (RGB{200, 255, 100}) {
		t.Errorf("Scale x2 = %v", got)
	}
	if got := Scale(RGB{100, 200, 50}, 0); got != (RGB{}) {
		t.Errorf("Scale x0 = %v", got)
	}
}

func TestParseGPL_Errors(t *testing.T) {
	tests := []struct {
		name, data string
	}{
		{"empty", "GIMP Palette\nName: none\n"},
		{"short row", "GIMP Palette\n10 20\n"},
		{"out of range", "GIMP Palette\n0 0 0\n300 0 0 too bright\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGPL(strings.NewReader(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLookupSingleColor(t *testing.T) {
	p := &Palette{Colors: []RGB{{1, 2, 3}}}
	for _, n := range []float64{-1, 0, 0.5, 1, 2} {
		if got := p.Lookup(n); got != (RGB{1, 2, 3}) {
			t.Errorf("Lookup(%v) = %v", n, got)
		}
	}
}
