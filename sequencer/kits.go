package sequencer

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"go-mpc/debug"
	"go-mpc/sample"
)

// NumPads is the size of the pad grid (4x4)
const NumPads = 16

// ErrUnknownKit is returned when selecting a kit that is not defined
var ErrUnknownKit = errors.New("unknown kit")

// Pad is one labelled pad of a kit. Several pads may share a sample.
type Pad struct {
	Name      string      `yaml:"name"`
	Sample    sample.Name `yaml:"sample"`
	Frequency float64     `yaml:"frequency"` // nominal pitch, used for pad colour
}

// Kit is a named set of 16 pads
type Kit struct {
	Name string `yaml:"name"`
	Pads []Pad  `yaml:"pads"`
}

// Pad returns pad i, or false when i is outside the kit.
func (k Kit) Pad(i int) (Pad, bool) {
	if i < 0 || i >= len(k.Pads) {
		return Pad{}, false
	}
	return k.Pads[i], true
}

// Pad layouts. Sounds beyond the eight samples borrow the closest one:
// 808/sub play the kick, shaker/open hat/air the hihat, cowbell/fx/vocal
// the perc, snap the clap, ride/china/splash the crash.
var Kits = map[string]Kit{
	"hiphop": {
		Name: "Hip Hop",
		Pads: []Pad{
			{"KICK", sample.Kick, 60},
			{"SNARE", sample.Snare, 200},
			{"HI-HAT", sample.HiHat, 8000},
			{"CLAP", sample.Clap, 1000},
			{"808", sample.Kick, 50},
			{"TOM 1", sample.Tom, 150},
			{"TOM 2", sample.Tom, 120},
			{"CRASH", sample.Crash, 6000},
			{"RIM", sample.Rim, 800},
			{"PERC 1", sample.Perc, 500},
			{"PERC 2", sample.Perc, 1500},
			{"SHAKER", sample.HiHat, 10000},
			{"OPEN HH", sample.HiHat, 7000},
			{"COWBELL", sample.Perc, 900},
			{"SNAP", sample.Clap, 2000},
			{"FX", sample.Perc, 300},
		},
	},
	"trap": {
		Name: "Trap",
		Pads: []Pad{
			{"KICK", sample.Kick, 55},
			{"SNARE", sample.Snare, 220},
			{"HI-HAT", sample.HiHat, 9000},
			{"CLAP", sample.Clap, 1100},
			{"808", sample.Kick, 45},
			{"ROLL HH", sample.HiHat, 8500},
			{"SNARE 2", sample.Snare, 240},
			{"CRASH", sample.Crash, 5500},
			{"RIM", sample.Rim, 850},
			{"PERC 1", sample.Perc, 600},
			{"PERC 2", sample.Perc, 1800},
			{"SHAKER", sample.HiHat, 11000},
			{"OPEN HH", sample.HiHat, 7500},
			{"VOCAL", sample.Perc, 400},
			{"AIR", sample.HiHat, 12000},
			{"SUB", sample.Kick, 40},
		},
	},
	"acoustic": {
		Name: "Acoustic",
		Pads: []Pad{
			{"KICK", sample.Kick, 65},
			{"SNARE", sample.Snare, 180},
			{"HI-HAT", sample.HiHat, 7500},
			{"RIM", sample.Rim, 750},
			{"TOM 1", sample.Tom, 140},
			{"TOM 2", sample.Tom, 110},
			{"TOM 3", sample.Tom, 85},
			{"CRASH", sample.Crash, 5000},
			{"RIDE", sample.Crash, 4000},
			{"CHINA", sample.Crash, 4500},
			{"SPLASH", sample.Crash, 6500},
			{"OPEN HH", sample.HiHat, 6800},
			{"PERC 1", sample.Perc, 450},
			{"PERC 2", sample.Perc, 700},
			{"COWBELL", sample.Perc, 850},
			{"CLAP", sample.Clap, 950},
		},
	},
}

// DefaultKit is the default kit key
const DefaultKit = "hiphop"

// KitNames returns the built-in kit keys in display order
func KitNames() []string {
	return []string{"hiphop", "trap", "acoustic"}
}

// GetKit returns a kit by key, defaulting to hiphop if not found
func GetKit(key string) Kit {
	if kit, ok := Kits[key]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// Catalog is a set of kits with a stable cycling order.
type Catalog struct {
	kits  map[string]Kit
	order []string
}

// BuiltinCatalog returns the compiled-in kits.
func BuiltinCatalog() *Catalog {
	c := &Catalog{kits: make(map[string]Kit, len(Kits)), order: KitNames()}
	for k, v := range Kits {
		c.kits[k] = v
	}
	return c
}

// LoadKits reads extra kits from a YAML file and merges them over the
// built-in ones. Kits from the file are appended to the cycle in key order.
//
//	boom:
//	  name: Boom Bap
//	  pads:
//	    - {name: KICK, sample: kick, frequency: 60}
func LoadKits(path string) (*Catalog, error) {
	c := BuiltinCatalog()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kits: %w", err)
	}

	var file map[string]Kit
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse kits %s: %w", path, err)
	}

	keys := make([]string, 0, len(file))
	for k := range file {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		kit := file[key]
		if len(kit.Pads) > NumPads {
			kit.Pads = kit.Pads[:NumPads]
		}
		for _, p := range kit.Pads {
			if !p.Sample.Valid() {
				debug.Log("kit", "%s: pad %q uses unknown sample %q", key, p.Name, p.Sample)
			}
		}
		if kit.Name == "" {
			kit.Name = key
		}
		if _, exists := c.kits[key]; !exists {
			c.order = append(c.order, key)
		}
		c.kits[key] = kit
	}
	debug.Log("kit", "loaded %d kits from %s", len(keys), path)
	return c, nil
}

// Get returns the kit for key.
func (c *Catalog) Get(key string) (Kit, bool) {
	k, ok := c.kits[key]
	return k, ok
}

// Keys returns the kit keys in cycling order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.order...)
}

// Next returns the key after key, wrapping around.
func (c *Catalog) Next(key string) string {
	for i, k := range c.order {
		if k == key {
			return c.order[(i+1)%len(c.order)]
		}
	}
	return c.order[0]
}
