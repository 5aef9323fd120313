package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-mpc/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// scanTimeout bounds a port listing; CoreMIDI can hang
const scanTimeout = 3 * time.Second

// DeviceManager handles hot-plug detection of MIDI controllers. A MIDI
// driver must be registered by the program (e.g. rtmididrv) before Run.
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration

	keyboards       bool
	keyboardChannel int
}

// ManagerOption configures a DeviceManager.
type ManagerOption func(*DeviceManager)

// WithKeyboards enables note-input controllers on the given channel (0 = omni).
func WithKeyboards(channel int) ManagerOption {
	return func(dm *DeviceManager) {
		dm.keyboards = true
		dm.keyboardChannel = channel
	}
}

// WithPollRate sets how often ports are rescanned.
func WithPollRate(d time.Duration) ManagerOption {
	return func(dm *DeviceManager) {
		if d > 0 {
			dm.pollRate = d
		}
	}
}

// NewDeviceManager creates a new device manager
func NewDeviceManager(opts ...ManagerOption) *DeviceManager {
	dm := &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
	}
	for _, opt := range opts {
		opt(dm)
	}
	return dm
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// GetLaunchpad returns the first connected Launchpad (or nil)
func (dm *DeviceManager) GetLaunchpad() Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, c := range dm.controllers {
		if c.Type() == ControllerLaunchpad {
			return c
		}
	}
	return nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

// Ports lists the MIDI ports, or ok=false if the driver did not answer in time.
func Ports() (ins []drivers.In, outs []drivers.Out, ok bool) {
	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs, true
	case <-time.After(scanTimeout):
		return nil, nil, false
	}
}

func (dm *DeviceManager) scan() {
	inPorts, outPorts, ok := Ports()
	if !ok {
		debug.Log("midi", "port scan timed out")
		return
	}

	seen := make(map[string]bool)
	for _, inPort := range inPorts {
		id := inPort.String()
		kind := Classify(id)
		if kind == ControllerUnknown || (kind == ControllerKeyboard && !dm.keyboards) {
			continue
		}
		seen[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		var (
			ctrl Controller
			err  error
		)
		switch kind {
		case ControllerLaunchpad:
			ctrl, err = NewLaunchpadController(id, inPort, matchOut(id, outPorts))
		case ControllerKeyboard:
			ctrl, err = NewKeyboardController(id, inPort, dm.keyboardChannel)
		}
		if err != nil {
			debug.Log("midi", "connect %s failed: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = ctrl
		dm.mu.Unlock()

		debug.Log("midi", "connected %s (%s)", id, kind)
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: ctrl, ID: id}
	}

	dm.mu.Lock()
	var gone []string
	for id, c := range dm.controllers {
		if !seen[id] {
			c.Close()
			delete(dm.controllers, id)
			gone = append(gone, id)
		}
	}
	dm.mu.Unlock()

	// Send outside the lock so listeners can query the manager
	for _, id := range gone {
		debug.Log("midi", "disconnected %s", id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
}

func matchOut(name string, outs []drivers.Out) drivers.Out {
	name = strings.ToLower(name)
	for _, op := range outs {
		if strings.ToLower(op.String()) == name {
			return op
		}
	}
	return nil
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// Classify decides what kind of controller an input port name belongs to.
// Launchpad DAW ports and system through ports are ignored.
func Classify(name string) ControllerType {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "launchpad"):
		if strings.Contains(name, "midi") {
			return ControllerLaunchpad
		}
		return ControllerUnknown
	case strings.Contains(name, "through"), strings.Contains(name, "thru"):
		return ControllerUnknown
	case name == "":
		return ControllerUnknown
	}
	return ControllerKeyboard
}
