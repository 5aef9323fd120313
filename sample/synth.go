package sample

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep/v2"
)

// SynthLoader renders procedural drum sounds instead of reading files,
// so the pads work with no sample directory at all.
type SynthLoader struct{}

type voiceFunc func(t float64, noise func() float64) float64

// drum describes one synthesized hit
type drum struct {
	length time.Duration
	render func(sr float64) voiceFunc
}

var drums = map[Name]drum{
	// decaying sine with a downward pitch bend
	Kick: {350 * time.Millisecond, func(sr float64) voiceFunc {
		return sweep(sr, 150, 50, 0.35, 5)
	}},
	Tom: {300 * time.Millisecond, func(sr float64) voiceFunc {
		return sweep(sr, 200, 120, 0.3, 6)
	}},
	Snare: {200 * time.Millisecond, func(sr float64) voiceFunc {
		body := sweep(sr, 190, 170, 0.2, 12)
		return func(t float64, noise func() float64) float64 {
			return 0.5*body(t, noise) + 0.6*noise()*math.Exp(-t/0.2*10)
		}
	}},
	HiHat: {60 * time.Millisecond, func(sr float64) voiceFunc {
		return highpassNoise(0.06, 40)
	}},
	Crash: {900 * time.Millisecond, func(sr float64) voiceFunc {
		return highpassNoise(0.9, 3)
	}},
	Clap: {180 * time.Millisecond, func(sr float64) voiceFunc {
		return func(t float64, noise func() float64) float64 {
			// three short bursts then a tail
			burst := 0.0
			for _, at := range []float64{0, 0.01, 0.02} {
				if t >= at {
					burst += math.Exp(-(t - at) * 180)
				}
			}
			return noise() * (0.5*burst + 0.4*math.Exp(-t*18))
		}
	}},
	Rim: {40 * time.Millisecond, func(sr float64) voiceFunc {
		return tone(1700, 60)
	}},
	Perc: {150 * time.Millisecond, func(sr float64) voiceFunc {
		return tone(800, 20)
	}},
}

// Load renders the named drum at the target sample rate.
func (SynthLoader) Load(ctx context.Context, name Name, format beep.Format) (*beep.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := drums[name]
	if !ok {
		return nil, fmt.Errorf("no synth voice for %q", name)
	}

	sr := float64(format.SampleRate)
	n := format.SampleRate.N(d.length)
	fn := d.render(sr)

	h := fnv.New64a()
	h.Write([]byte(name))
	rng := rand.New(rand.NewPCG(h.Sum64(), 0x6d7063))
	noise := func() float64 { return rng.Float64()*2 - 1 }

	i := 0
	buf := beep.NewBuffer(format)
	buf.Append(beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if i >= n {
			return 0, false
		}
		k := 0
		for ; k < len(samples) && i < n; k++ {
			v := clamp(fn(float64(i)/sr, noise))
			samples[k][0] = v
			samples[k][1] = v
			i++
		}
		return k, true
	}))
	return buf, nil
}

func sweep(sr, from, to, length, decay float64) voiceFunc {
	phase := 0.0
	return func(t float64, _ func() float64) float64 {
		p := t / length
		freq := from - (from-to)*p
		phase += 2 * math.Pi * freq / sr
		return math.Sin(phase) * math.Exp(-decay*p)
	}
}

func tone(freq, decay float64) voiceFunc {
	return func(t float64, _ func() float64) float64 {
		return math.Sin(2*math.Pi*freq*t) * math.Exp(-decay*t*10)
	}
}

func highpassNoise(length, decay float64) voiceFunc {
	prev := 0.0
	return func(t float64, noise func() float64) float64 {
		x := noise()
		y := x - prev
		prev = x
		return 0.5 * y * math.Exp(-decay*t/length)
	}
}

func clamp(v float64) float64 {
	return max(-1, min(1, v))
}
