package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-mpc/audio"
	"go-mpc/clock"
	"go-mpc/config"
	"go-mpc/debug"
	"go-mpc/midi"
	"go-mpc/sample"
	"go-mpc/sequencer"
	"go-mpc/theme"
	"go-mpc/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-mpc/config.json)")
	debugLog := flag.Bool("debug", false, "write ~/.config/go-mpc/debug.log")
	noMIDI := flag.Bool("no-midi", false, "skip MIDI controller detection")
	flag.Parse()

	if *debugLog {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	th := theme.New(theme.LoadOrDefault(cfg.UI.Palette))
	manager, err := buildManager(cfg, th)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.StartRuntime(ctx)

	// Create MIDI device manager (handles hot-plug)
	var deviceMgr *midi.DeviceManager
	if !*noMIDI {
		var opts []midi.ManagerOption
		if ch, ok := cfg.KeyboardChannel(); ok {
			opts = append(opts, midi.WithKeyboards(ch))
		}
		deviceMgr = midi.NewDeviceManager(opts...)
		go deviceMgr.Run(ctx)
	}

	m := tui.NewModel(manager, deviceMgr, th, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildManager wires the engine from config. The audio device is not
// opened here; that waits for the user to enable sound.
func buildManager(cfg *config.Config, th *theme.Theme) (*sequencer.Manager, error) {
	var loader sample.Loader = sample.SynthLoader{}
	if cfg.Audio.Source == config.SourceFiles {
		loader = sample.FileLoader{FS: os.DirFS(cfg.Audio.SampleDir), Ext: cfg.Audio.Ext}
	}

	pool := audio.NewPool(
		audio.NewSpeaker(cfg.Audio.Buffer()),
		audio.WithVoices(cfg.Audio.Voices),
		audio.WithGain(cfg.Audio.Gain),
	)
	store := sample.NewStore(loader, pool, sample.WithSampleRate(cfg.Audio.SampleRate))

	catalog := sequencer.BuiltinCatalog()
	if cfg.KitsFile != "" {
		c, err := sequencer.LoadKits(cfg.KitsFile)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	tempo := cfg.Metronome.Tempo
	if cfg.UI.LastTempo != 0 {
		tempo = cfg.UI.LastTempo
	}

	return sequencer.NewManager(store, pool, clock.New(), sequencer.Options{
		Kit:          cfg.UI.LastKit,
		Tempo:        tempo,
		Debounce:     cfg.Input.Debounce(),
		Grace:        cfg.Recorder.Grace(),
		AccentSample: cfg.Metronome.AccentSample,
		ClickSample:  cfg.Metronome.ClickSample,
		AccentGain:   cfg.Metronome.AccentGain,
		ClickGain:    cfg.Metronome.ClickGain,
		Catalog:      catalog,
		Theme:        th,
	}), nil
}
