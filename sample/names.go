// Package sample loads the fixed set of percussion samples the pads play
// and performs the one-time audio unlock.
package sample

// Name identifies one canonical drum sound. It doubles as the resource
// address: samples/<name>.<ext>.
type Name string

const (
	Kick  Name = "kick"
	Snare Name = "snare"
	HiHat Name = "hihat"
	Clap  Name = "clap"
	Tom   Name = "tom"
	Perc  Name = "perc"
	Crash Name = "crash"
	Rim   Name = "rim"
)

// canonical is the closed identity set, in load order
var canonical = []Name{Kick, Snare, HiHat, Clap, Tom, Perc, Crash, Rim}

// Canonical returns every sample identity the store knows how to load.
func Canonical() []Name {
	return append([]Name(nil), canonical...)
}

// Valid reports whether n is one of the canonical identities.
func (n Name) Valid() bool {
	for _, c := range canonical {
		if c == n {
			return true
		}
	}
	return false
}

// Path returns the resource address for the sample with the given extension.
func (n Name) Path(ext string) string {
	return "samples/" + string(n) + "." + ext
}
