package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-mpc/sample"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX    ControllerType = "launchpad-x"
	ControllerLaunchpadMini ControllerType = "launchpad-mini"
	ControllerKeyboard      ControllerType = "keyboard"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName     string         `json:"portName"`
	Type         ControllerType `json:"type"`
	AutoConnect  bool           `json:"autoConnect"`
	InputChannel int            `json:"inputChannel,omitempty"` // for keyboards, 0 = omni
}

// Sample sources
const (
	SourceFiles = "files"
	SourceSynth = "synth"
)

// AudioConfig selects where samples come from and how they play
type AudioConfig struct {
	Source     string  `json:"source"`              // "files" or "synth"
	SampleDir  string  `json:"sampleDir,omitempty"` // holds samples/<name>.<ext>
	Ext        string  `json:"ext,omitempty"`       // "wav" or "mp3"
	SampleRate int     `json:"sampleRate"`
	BufferMs   int     `json:"bufferMs"`
	Voices     int     `json:"voices"`
	Gain       float64 `json:"gain"`
}

// MetronomeConfig sets the click sounds
type MetronomeConfig struct {
	Tempo        int         `json:"tempo"`
	AccentSample sample.Name `json:"accentSample"`
	ClickSample  sample.Name `json:"clickSample"`
	AccentGain   float64     `json:"accentGain"`
	ClickGain    float64     `json:"clickGain"`
}

// InputConfig tunes pad input
type InputConfig struct {
	DebounceMs int `json:"debounceMs"`
}

// RecorderConfig tunes replay
type RecorderConfig struct {
	GraceMs int `json:"graceMs"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastKit   string `json:"lastKit,omitempty"`
	LastTempo int    `json:"lastTempo,omitempty"`
	Palette   string `json:"palette,omitempty"` // GIMP .gpl file
}

// Config is the main configuration structure
type Config struct {
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	Audio       AudioConfig        `json:"audio"`
	Metronome   MetronomeConfig    `json:"metronome"`
	Input       InputConfig        `json:"input"`
	Recorder    RecorderConfig     `json:"recorder"`
	UI          UIConfig           `json:"ui,omitempty"`
	KitsFile    string             `json:"kitsFile,omitempty"` // extra kits (YAML)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
		Audio: AudioConfig{
			Source:     SourceSynth,
			Ext:        "wav",
			SampleRate: 44100,
			BufferMs:   20,
			Voices:     3,
			Gain:       0.8,
		},
		Metronome: MetronomeConfig{
			Tempo:        120,
			AccentSample: sample.Rim,
			ClickSample:  sample.Rim,
			AccentGain:   1.0,
			ClickGain:    0.45,
		},
		Input:    InputConfig{DebounceMs: 100},
		Recorder: RecorderConfig{GraceMs: 500},
		UI: UIConfig{
			LastKit:   "hiphop",
			LastTempo: 120,
		},
	}
}

// Durations

func (a AudioConfig) Buffer() time.Duration   { return time.Duration(a.BufferMs) * time.Millisecond }
func (i InputConfig) Debounce() time.Duration { return time.Duration(i.DebounceMs) * time.Millisecond }
func (r RecorderConfig) Grace() time.Duration { return time.Duration(r.GraceMs) * time.Millisecond }

// Validate checks ranges and names. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	switch c.Audio.Source {
	case SourceFiles:
		if c.Audio.SampleDir == "" {
			errs = append(errs, errors.New("audio.sampleDir is required for file samples"))
		}
		if c.Audio.Ext != "wav" && c.Audio.Ext != "mp3" {
			errs = append(errs, fmt.Errorf("audio.ext %q: %w", c.Audio.Ext, sample.ErrUnsupportedFormat))
		}
	case SourceSynth:
	default:
		errs = append(errs, fmt.Errorf("audio.source %q: want %q or %q", c.Audio.Source, SourceFiles, SourceSynth))
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("audio.sampleRate %d out of range", c.Audio.SampleRate))
	}
	if c.Audio.BufferMs < 1 || c.Audio.BufferMs > 500 {
		errs = append(errs, fmt.Errorf("audio.bufferMs %d out of range", c.Audio.BufferMs))
	}
	if c.Audio.Voices < 1 || c.Audio.Voices > 10 {
		errs = append(errs, fmt.Errorf("audio.voices %d: want 1..10", c.Audio.Voices))
	}
	if c.Audio.Gain <= 0 || c.Audio.Gain > 1 {
		errs = append(errs, fmt.Errorf("audio.gain %v: want (0, 1]", c.Audio.Gain))
	}
	if c.Metronome.Tempo < 60 || c.Metronome.Tempo > 240 {
		errs = append(errs, fmt.Errorf("metronome.tempo %d: want 60..240", c.Metronome.Tempo))
	}
	for _, n := range []sample.Name{c.Metronome.AccentSample, c.Metronome.ClickSample} {
		if !n.Valid() {
			errs = append(errs, fmt.Errorf("metronome sample %q is not a known sample", n))
		}
	}
	if c.Input.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("input.debounceMs %d is negative", c.Input.DebounceMs))
	}
	if c.Recorder.GraceMs < 0 {
		errs = append(errs, fmt.Errorf("recorder.graceMs %d is negative", c.Recorder.GraceMs))
	}
	return errors.Join(errs...)
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-mpc"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config from path, or returns defaults if it does not exist.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// KeyboardChannel returns the input channel of the first auto-connecting
// keyboard, and whether one is configured.
func (c *Config) KeyboardChannel() (int, bool) {
	for _, ctrl := range c.Controllers {
		if ctrl.Type == ControllerKeyboard && ctrl.AutoConnect {
			return ctrl.InputChannel, true
		}
	}
	return 0, false
}
