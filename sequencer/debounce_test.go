package sequencer

import (
	"testing"
	"time"
)

func TestDebouncer_Accept(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name string
		hits []time.Duration
		want []bool
	}{
		{"single", []time.Duration{0}, []bool{true}},
		{"50ms apart", []time.Duration{0, 50 * ms}, []bool{true, false}},
		{"150ms apart", []time.Duration{0, 150 * ms}, []bool{true, true}},
		{"exactly interval", []time.Duration{0, 100 * ms}, []bool{true, true}},
		// rejected hits do not push the window forward
		{"burst", []time.Duration{0, 40 * ms, 80 * ms, 120 * ms}, []bool{true, false, false, true}},
		{"first hit late", []time.Duration{5 * time.Second}, []bool{true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(0)
			for i, at := range tt.hits {
				if got := d.Accept(3, at); got != tt.want[i] {
					t.Errorf("hit %d at %v: Accept = %v, want %v", i, at, got, tt.want[i])
				}
			}
		})
	}
}

func TestDebouncer_PadsIndependent(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	if !d.Accept(0, 0) || !d.Accept(1, 10*time.Millisecond) {
		t.Fatal("different pads blocked each other")
	}
	if d.Accept(0, 20*time.Millisecond) {
		t.Error("pad 0 retrigger accepted inside window")
	}
}

func TestDebouncer_Reset(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	d.Accept(0, 0)
	d.Reset()
	if !d.Accept(0, 10*time.Millisecond) {
		t.Error("Reset did not clear history")
	}
}
