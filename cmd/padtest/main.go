package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-mpc/audio"
	"go-mpc/clock"
	"go-mpc/midi"
	"go-mpc/sample"
	"go-mpc/sequencer"
	"go-mpc/theme"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "samples":
		playSamples()
	case "click":
		click()
	case "pads":
		pads()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Pad Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list     - List MIDI ports and how they are classified")
	fmt.Println("  samples  - Play every synthesized sample once")
	fmt.Println("  click    - Run the metronome for two bars")
	fmt.Println("  pads     - Play the hip hop kit from connected controllers")
}

func listPorts() {
	fmt.Println("(waiting up to 3 seconds...)")
	ins, outs, ok := midi.Ports()
	if !ok {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ins {
		fmt.Printf("  %d: %-40s %s\n", i, p.String(), midi.Classify(p.String()))
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

// newManager builds an engine on the speaker with synthesized samples.
func newManager() (*sequencer.Manager, error) {
	pool := audio.NewPool(audio.NewSpeaker(20 * time.Millisecond))
	store := sample.NewStore(sample.SynthLoader{}, pool)
	m := sequencer.NewManager(store, pool, clock.New(), sequencer.DefaultOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Initialize(ctx); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func playSamples() {
	m, err := newManager()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer m.Close()

	// First pad for each sample
	played := make(map[sample.Name]bool)
	for i, p := range m.Kit().Pads {
		if played[p.Sample] {
			continue
		}
		played[p.Sample] = true
		fmt.Printf("  pad %2d  %-8s -> %s\n", i, p.Name, p.Sample)
		m.TriggerPad(i)
		time.Sleep(600 * time.Millisecond)
	}

	st := m.Stats()
	fmt.Printf("Done! played=%d stolen=%d missed=%d\n", st.Played, st.Stolen, st.Missed)
}

func click() {
	m, err := newManager()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer m.Close()

	tempo := m.SetTempo(120)
	fmt.Printf("Metronome at %d bpm for two bars...\n", tempo)
	m.StartMetronome()
	time.Sleep(8*sequencer.Period(tempo) + sequencer.Period(tempo)/2)
	m.StopMetronome()
	fmt.Println("Done!")
}

func pads() {
	m, err := newManager()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer m.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	m.StartRuntime(ctx)
	dm := midi.NewDeviceManager(midi.WithKeyboards(0), midi.WithPollRate(500*time.Millisecond))
	go dm.Run(ctx)

	fmt.Println("Hit pads on a Launchpad or play notes 36-51. Ctrl+C to exit.")
	var launchpad string
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-dm.Events():
			if !ok {
				return
			}
			launchpad = handleDevice(m, dm, ev, launchpad)
		}
	}
}

// handleDevice wires a controller to the engine and returns the id of the
// Launchpad driving the LEDs.
func handleDevice(m *sequencer.Manager, dm *midi.DeviceManager, ev midi.DeviceEvent, launchpad string) string {
	if ev.Type == midi.DeviceDisconnected {
		fmt.Printf("[%s] disconnected %s (%d left)\n", time.Now().Format("15:04:05"), ev.ID, len(dm.Controllers()))
		if ev.ID != launchpad {
			return launchpad
		}
		// Hand the LEDs to another Launchpad if one is still plugged in
		next := dm.GetLaunchpad()
		m.SetController(next)
		if next == nil {
			return ""
		}
		return next.ID()
	}

	ctrl := ev.Controller
	fmt.Printf("[%s] connected %s (%s)\n", time.Now().Format("15:04:05"), ev.ID, ctrl.Type())
	switch ctrl.Type() {
	case midi.ControllerLaunchpad:
		if launchpad == "" {
			m.SetController(ctrl)
			launchpad = ev.ID
		}
		go func() {
			for p := range ctrl.PadEvents() {
				m.HandlePad(p.Row, p.Col)
				if i, ok := midi.PadAt(p.Row, p.Col); ok {
					pad, _ := m.Kit().Pad(i)
					c := theme.Default().PadColor(pad.Frequency)
					fmt.Printf("  pad %2d %-8s #%02x%02x%02x\n", i, pad.Name, c[0], c[1], c[2])
				}
			}
		}()
	case midi.ControllerKeyboard:
		go func() {
			for n := range ctrl.NoteEvents() {
				m.HandleNote(n.Note, n.Velocity)
			}
		}()
	}
	return launchpad
}
