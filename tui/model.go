package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-mpc/config"
	"go-mpc/debug"
	"go-mpc/midi"
	"go-mpc/sample"
	"go-mpc/sequencer"
	"go-mpc/theme"
	"go-mpc/widgets"
)

// padKeys are the computer-keyboard shortcuts, row by row like the grid
var padKeys = []string{
	"1", "2", "3", "4",
	"q", "w", "e", "r",
	"a", "s", "d", "f",
	"z", "x", "c", "v",
}

const gridCols = 4

var keyHelp = []widgets.KeySection{
	{Title: "Pads", Keys: []widgets.KeyBinding{
		{Key: "1 2 3 4", Desc: "top row"},
		{Key: "q w e r", Desc: "second row"},
		{Key: "a s d f", Desc: "third row"},
		{Key: "z x c v", Desc: "bottom row"},
		{Key: "click", Desc: "hit a pad"},
	}},
	{Title: "Transport", Keys: []widgets.KeyBinding{
		{Key: "space", Desc: "metronome on/off"},
		{Key: "+ / -", Desc: "tempo up/down 5 bpm"},
		{Key: ".", Desc: "start/stop recording"},
		{Key: ",", Desc: "play recording"},
	}},
	{Title: "Other", Keys: []widgets.KeyBinding{
		{Key: "tab", Desc: "next kit"},
		{Key: "enter", Desc: "enable sound"},
		{Key: "esc", Desc: "quit"},
	}},
}

// layoutBounds holds cached layout info for mouse hit testing
type layoutBounds struct {
	gridTop  int
	gridLeft int
}

type Model struct {
	Manager    *sequencer.Manager
	DeviceMgr  *midi.DeviceManager
	Theme      *theme.Theme
	Config     *config.Config
	quitting   bool
	initErr    error
	bounds     *layoutBounds
	controller midi.Controller // current LED controller (may be nil)
	keyboards  int
	showHelp   bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

// InitDoneMsg reports the result of enabling audio
type InitDoneMsg struct{ Err error }

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme, cfg *config.Config) Model {
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
		Config:    cfg,
		bounds:    &layoutBounds{},
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

// EnableAudio loads samples and unlocks the output. It is the user gesture
// that moves the engine out of the locked state.
func EnableAudio(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return InitDoneMsg{Err: manager.Initialize(ctx)}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c", "esc":
			return m.quit()

		case "enter":
			if !m.Manager.IsReady() {
				return m, EnableAudio(m.Manager)
			}

		case " ":
			m.Manager.ToggleMetronome()

		case "+", "=":
			m.Manager.SetTempo(m.Manager.ClockState().Tempo + 5)

		case "-", "_":
			m.Manager.SetTempo(m.Manager.ClockState().Tempo - 5)

		case ".":
			m.Manager.ToggleRecording()

		case ",":
			m.Manager.PlayRecording()

		case "tab":
			m.Manager.NextKit()

		case "?":
			m.showHelp = !m.showHelp

		default:
			if i := padIndex(key); i >= 0 {
				m.Manager.TriggerPad(i)
			}
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		i, ok := widgets.PadHit(msg.X-m.bounds.gridLeft, msg.Y-m.bounds.gridTop, gridCols, len(padKeys))
		if !ok {
			return m, nil
		}
		if !m.Manager.IsReady() {
			// first tap enables sound, like the audio prompt
			return m, EnableAudio(m.Manager)
		}
		m.Manager.TriggerPad(i)

	case InitDoneMsg:
		m.initErr = msg.Err
		if msg.Err != nil {
			debug.Log("audio", "enable failed: %v", msg.Err)
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		m.handleDevice(midi.DeviceEvent(msg))
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m *Model) handleDevice(event midi.DeviceEvent) {
	switch event.Type {
	case midi.DeviceConnected:
		ctrl := event.Controller
		switch ctrl.Type() {
		case midi.ControllerLaunchpad:
			m.controller = ctrl
			m.Manager.SetController(ctrl)
			go func() {
				for pad := range ctrl.PadEvents() {
					m.Manager.HandlePad(pad.Row, pad.Col)
				}
			}()
		case midi.ControllerKeyboard:
			m.keyboards++
			go func() {
				for n := range ctrl.NoteEvents() {
					m.Manager.HandleNote(n.Note, n.Velocity)
				}
			}()
		}
	case midi.DeviceDisconnected:
		if m.controller != nil && m.controller.ID() == event.ID {
			m.controller = nil
			m.Manager.SetController(nil)
		} else if m.keyboards > 0 {
			m.keyboards--
		}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.Config != nil {
		m.Config.UI.LastKit = m.Manager.KitKey()
		m.Config.UI.LastTempo = m.Manager.ClockState().Tempo
		if err := m.Config.Save(); err != nil {
			debug.Log("config", "save failed: %v", err)
		}
	}
	m.Manager.Close()
	return m, tea.Quit
}

// activity renders one symbol per pad, lit while the pad flashes
func activity(th *theme.Theme, active [sequencer.NumPads]bool) string {
	idle := lipgloss.NewStyle().Foreground(th.Muted())
	hit := lipgloss.NewStyle().Foreground(th.Active())
	var out strings.Builder
	for i, a := range active {
		if i > 0 && i%gridCols == 0 {
			out.WriteString(" ")
		}
		if a {
			out.WriteString(hit.Render(string(th.Symbols.PadHit)))
		} else {
			out.WriteString(idle.Render(string(th.Symbols.PadIdle)))
		}
	}
	return out.String()
}

func padIndex(key string) int {
	for i, k := range padKeys {
		if k == key {
			return i
		}
	}
	return -1
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	clk := m.Manager.ClockState()
	rec := m.Manager.RecordingState()
	kit := m.Manager.Kit()

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())
	recStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff3030")).Bold(true)
	playStyle := lipgloss.NewStyle().Foreground(th.Success())

	// Header
	metro := dimStyle.Render(fmt.Sprintf("%3dbpm", clk.Tempo))
	if clk.Running {
		metro = warnStyle.Render(fmt.Sprintf("%3dbpm", clk.Tempo))
	}
	var status []string
	if rec.IsRecording {
		status = append(status, recStyle.Render(fmt.Sprintf("%c REC %d", th.Symbols.Recording, rec.Events)))
	}
	if rec.IsPlaying {
		status = append(status, playStyle.Render(fmt.Sprintf("%c PLAY", th.Symbols.Playing)))
	} else if rec.HasRecording && !rec.IsRecording {
		status = append(status, dimStyle.Render(fmt.Sprintf("take: %d hits", rec.Events)))
	}
	activeStyle := lipgloss.NewStyle().Foreground(th.Active())
	if m.controller != nil {
		status = append(status, activeStyle.Render("LP:X"))
	}
	if m.keyboards > 0 {
		status = append(status, activeStyle.Render(fmt.Sprintf("KEYS:%d", m.keyboards)))
	}

	header := headerStyle.Render(fmt.Sprintf("go-mpc  %s KIT", strings.ToUpper(kit.Name))) + "  " + metro
	if len(status) > 0 {
		header += "  " + strings.Join(status, "  ")
	}

	// Audio prompt / LCD line
	var lcd string
	switch m.Manager.LoadState() {
	case sample.StateLocked:
		lcd = warnStyle.Render("Press enter or tap a pad to enable sound")
	case sample.StateLoading:
		lcd = dimStyle.Render("Loading samples...")
	case sample.StateFailed:
		lcd = recStyle.Render(fmt.Sprintf("Audio unavailable: %v (enter to retry)", m.initErr))
	default:
		st := m.Manager.Stats()
		lcd = lipgloss.NewStyle().Foreground(th.FG()).Render(fmt.Sprintf("TAP PADS TO PLAY   hits:%d steals:%d missed:%d", st.Played, st.Stolen, st.Missed+st.Unknown)) +
			"  " + activity(th, m.Manager.ActivePads())
	}

	// Beat strip and pulse
	beat := widgets.RenderBeatStrip(sequencer.Steps, clk.Position, clk.Running,
		th.Symbols.BeatOff, th.Symbols.BeatOn, th.Symbols.BeatAccnt, th.Muted(), th.Warning())
	pulse := widgets.RenderMeter(clk.Pulse, 12, th.Warning())

	// Pads
	active := m.Manager.ActivePads()
	pads := make([]widgets.Pad, 0, len(kit.Pads))
	for i, p := range kit.Pads {
		if i >= len(padKeys) {
			break
		}
		pads = append(pads, widgets.Pad{
			Label:  p.Name,
			Key:    padKeys[i],
			Color:  th.PadColor(p.Frequency),
			Active: active[i],
		})
	}
	grid := widgets.RenderPadGrid(pads, gridCols)

	help := dimStyle.Render("1-4 q-r a-f z-v:pads  space:metronome  +/-:tempo  .:record  ,:play  tab:kit  ?:help  esc:quit")
	if m.showHelp {
		help = dimStyle.Render(widgets.RenderKeyHelp(keyHelp))
	}

	// Layout: blank, header, blank, lcd, beat, blank, grid
	m.bounds.gridTop = 1 + lipgloss.Height(header) + 1 + lipgloss.Height(lcd) + 1 + 1
	m.bounds.gridLeft = 0

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(lcd)
	out.WriteString("\n")
	out.WriteString(beat + "  " + pulse)
	out.WriteString("\n\n")
	out.WriteString(grid)
	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}
