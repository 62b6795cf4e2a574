// Package tui provides the BubbleTea-based soundboard interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/soundpad/internal/model"
)

// Controller is the application the TUI drives.
type Controller interface {
	Catalog() *model.Catalog
	Device() model.DeviceConfig
	Devices() ([]string, string)
	SocketConfig() model.SocketConfig
	ListenerPort() uint16
	PressButton(ctx context.Context, id int) error
	SelectDevice(name string) error
	RefreshDevices(ctx context.Context) error
	SetSocketEnabled(enabled bool) error
	Subscribe() <-chan model.Event
}

// Mode represents the current UI mode.
type Mode int

const (
	ModeSounds Mode = iota
	ModeDevices
	ModeHelp
)

// Model is the main TUI model.
type Model struct {
	ctx  context.Context
	ctrl Controller

	mode Mode

	// Components
	sounds  list.Model
	devices list.Model

	width  int
	height int
	ready  bool

	keys KeyMap

	// Playback and listener state, fed by controller events
	lastLabel  string
	lastOrigin model.Origin
	lastAt     time.Time
	listener   string
	listenerOK bool

	statusMsg string
	statusErr bool

	events <-chan model.Event
}

// soundItem wraps a sound entry for the list component.
type soundItem struct {
	entry model.SoundEntry
}

func (i soundItem) Title() string {
	return fmt.Sprintf("%d  %s", i.entry.TriggerNumber(), i.entry.Label)
}

func (i soundItem) Description() string {
	return i.entry.File
}

func (i soundItem) FilterValue() string {
	return i.entry.Label
}

// deviceItem wraps an output device name for the list component.
type deviceItem struct {
	name      string
	selected  bool
	isDefault bool
}

func (i deviceItem) Title() string {
	if i.selected {
		return "● " + i.name
	}
	return "  " + i.name
}

func (i deviceItem) Description() string {
	if i.isDefault {
		return "  system default"
	}
	return ""
}

func (i deviceItem) FilterValue() string {
	return i.name
}

// New creates a new TUI model over ctrl. ctx bounds playback started from the UI.
func New(ctx context.Context, ctrl Controller) Model {
	sounds := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	sounds.Title = "soundpad"
	sounds.SetShowStatusBar(false)
	sounds.SetShowHelp(false)
	sounds.SetFilteringEnabled(false)
	sounds.DisableQuitKeybindings()

	devices := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	devices.Title = "Output device"
	devices.SetShowStatusBar(false)
	devices.SetShowHelp(false)
	devices.SetFilteringEnabled(false)
	devices.DisableQuitKeybindings()

	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		mode:    ModeSounds,
		sounds:  sounds,
		devices: devices,
		keys:    DefaultKeyMap(),
		events:  ctrl.Subscribe(),
	}

	m.sounds.SetItems(m.buildSoundItems())
	m.devices.SetItems(m.buildDeviceItems())
	if port := ctrl.ListenerPort(); port != 0 {
		m.listener = fmt.Sprintf("listening on udp/%d", port)
		m.listenerOK = true
	} else {
		m.listener = "remote triggers off"
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return m.watchEvents
}

// watchEvents waits for the next controller event.
func (m Model) watchEvents() tea.Msg {
	if m.events == nil {
		return nil
	}
	e, ok := <-m.events
	if !ok {
		return eventsClosedMsg{}
	}
	return eventMsg{event: e}
}

type eventMsg struct {
	event model.Event
}

type eventsClosedMsg struct{}

type playResultMsg struct {
	id  int
	err error
}

type refreshResultMsg struct {
	err error
}

type selectResultMsg struct {
	name string
	err  error
}

type socketResultMsg struct {
	enabled bool
	err     error
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

func setStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Leave room for the status line and keybind bar
		m.sounds.SetSize(msg.Width, msg.Height-3)
		m.devices.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case eventMsg:
		cmd := m.applyEvent(msg.event)
		if cmd != nil {
			return m, tea.Batch(cmd, m.watchEvents)
		}
		return m, m.watchEvents

	case eventsClosedMsg:
		return m, tea.Quit

	case playResultMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			return m, setStatus("Playback failed: "+msg.err.Error(), true)
		}
		return m, nil

	case refreshResultMsg:
		if msg.err != nil {
			return m, setStatus("Device refresh failed: "+msg.err.Error(), true)
		}
		return m, setStatus("Devices refreshed", false)

	case selectResultMsg:
		m.devices.SetItems(m.buildDeviceItems())
		if msg.err != nil {
			return m, setStatus("Selected "+msg.name+" (not saved: "+msg.err.Error()+")", true)
		}
		return m, setStatus("Output: "+msg.name, false)

	case socketResultMsg:
		if msg.err != nil {
			return m, setStatus("Remote triggers unavailable: "+msg.err.Error(), true)
		}
		if msg.enabled {
			return m, setStatus("Remote triggers on", false)
		}
		return m, setStatus("Remote triggers off", false)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeSounds:
		m.sounds, cmd = m.sounds.Update(msg)
	case ModeDevices:
		m.devices, cmd = m.devices.Update(msg)
	}
	return m, cmd
}

// applyEvent folds a controller event into the model.
func (m *Model) applyEvent(e model.Event) tea.Cmd {
	switch e.Type {
	case model.EventPlaybackStarted:
		m.lastLabel = e.Label
		m.lastOrigin = e.Origin
		m.lastAt = e.At
	case model.EventPlaybackFailed:
		if e.Origin == model.OriginRemote {
			return setStatus(fmt.Sprintf("Trigger %d (%s) failed: %s", e.Trigger, e.Label, e.Reason), true)
		}
	case model.EventTriggerDropped:
		return setStatus(fmt.Sprintf("Ignored trigger %d", e.Trigger), true)
	case model.EventDevicesRefreshed, model.EventDeviceSelected:
		m.devices.SetItems(m.buildDeviceItems())
	case model.EventListenerUp:
		m.listener = fmt.Sprintf("listening on udp/%d", e.Port)
		m.listenerOK = true
	case model.EventListenerStopped:
		m.listener = "remote triggers off"
		m.listenerOK = false
	case model.EventListenerDown:
		m.listener = fmt.Sprintf("udp/%d down", e.Port)
		m.listenerOK = false
		return setStatus("Remote triggers unavailable: "+e.Reason, true)
	case model.EventConfigReloaded:
		if e.Reason != "" {
			return setStatus("Config reload: "+e.Reason, true)
		}
		return setStatus("Config reloaded", false)
	}
	return nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeSounds
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModeSounds:
		return m.handleSoundsKey(msg)
	case ModeDevices:
		return m.handleDevicesKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeSounds
		}
		return m, nil
	}

	return m, nil
}

// handleSoundsKey handles keys on the soundboard.
func (m Model) handleSoundsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if id, ok := quickPlayIndex(msg.String()); ok {
		if _, exists := m.ctrl.Catalog().Entry(id); exists {
			return m, m.play(id)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Play):
		if item, ok := m.sounds.SelectedItem().(soundItem); ok {
			return m, m.play(item.entry.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Devices):
		m.devices.SetItems(m.buildDeviceItems())
		m.selectCurrentDevice()
		m.mode = ModeDevices
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.Socket):
		return m, m.toggleSocket()
	}

	var cmd tea.Cmd
	m.sounds, cmd = m.sounds.Update(msg)
	return m, cmd
}

// handleDevicesKey handles keys in the device picker.
func (m Model) handleDevicesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Devices):
		m.mode = ModeSounds
		return m, nil

	case key.Matches(msg, m.keys.Play):
		item, ok := m.devices.SelectedItem().(deviceItem)
		if !ok {
			return m, nil
		}
		m.mode = ModeSounds
		return m, m.selectDevice(item.name)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.devices, cmd = m.devices.Update(msg)
	return m, cmd
}

// play runs a local button press off the UI goroutine.
func (m Model) play(id int) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return playResultMsg{id: id, err: ctrl.PressButton(ctx, id)}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return refreshResultMsg{err: ctrl.RefreshDevices(ctx)}
	}
}

func (m Model) selectDevice(name string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return selectResultMsg{name: name, err: ctrl.SelectDevice(name)}
	}
}

func (m Model) toggleSocket() tea.Cmd {
	ctrl := m.ctrl
	enabled := !ctrl.SocketConfig().Enabled
	return func() tea.Msg {
		return socketResultMsg{enabled: enabled, err: ctrl.SetSocketEnabled(enabled)}
	}
}

func (m Model) buildSoundItems() []list.Item {
	entries := m.ctrl.Catalog().Entries()
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, soundItem{entry: e})
	}
	return items
}

func (m Model) buildDeviceItems() []list.Item {
	names, def := m.ctrl.Devices()
	current := m.ctrl.Device().DeviceName

	items := make([]list.Item, 0, len(names)+1)
	found := false
	for _, name := range names {
		if name == current {
			found = true
		}
		items = append(items, deviceItem{
			name:      name,
			selected:  name == current,
			isDefault: name == def,
		})
	}
	// Keep a configured device visible even when it is currently absent.
	if current != "" && !found {
		items = append(items, deviceItem{name: current, selected: true})
	}
	return items
}

func (m *Model) selectCurrentDevice() {
	for i, item := range m.devices.Items() {
		if d, ok := item.(deviceItem); ok && d.selected {
			m.devices.Select(i)
			return
		}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeSounds:
		return m.sounds.View() + "\n" + m.statusLine() + "\n" + m.buildKeybindBar(m.width, "sounds")
	case ModeDevices:
		return m.devices.View() + "\n" + m.statusLine() + "\n" + m.buildKeybindBar(m.width, "devices")
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

// statusLine shows the transient status message, or the device, listener and last sound.
func (m Model) statusLine() string {
	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		return style.Render(m.statusMsg)
	}

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	listenerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	if !m.listenerOK {
		listenerStyle = dim
	}

	device := m.ctrl.Device().DeviceName
	if device == "" {
		device = "default"
	}

	parts := []string{
		dim.Render("out: ") + device,
		listenerStyle.Render(m.listener),
	}
	if m.lastLabel != "" {
		parts = append(parts, dim.Render("last: ")+fmt.Sprintf("%s (%s, %s)", m.lastLabel, m.lastOrigin, humanize.Time(m.lastAt)))
	}
	return strings.Join(parts, dim.Render("  |  "))
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"

	s += sectionStyle.Render("Soundboard") + "\n"
	s += keyStyle.Render("  j/k, ↑/↓") + "     Move up/down\n"
	s += keyStyle.Render("  enter") + "        Play selected sound\n"
	s += keyStyle.Render("  1-9") + "          Play sound by number\n"
	s += "\n"

	s += sectionStyle.Render("Output") + "\n"
	s += keyStyle.Render("  o") + "            Choose output device\n"
	s += keyStyle.Render("  r") + "            Refresh devices (selects the system default)\n"
	s += keyStyle.Render("  s") + "            Toggle remote UDP triggers\n"
	s += "\n"

	s += sectionStyle.Render("General") + "\n"
	s += keyStyle.Render("  ?") + "            Toggle this help\n"
	s += keyStyle.Render("  esc") + "          Back\n"
	s += keyStyle.Render("  q") + "            Quit\n"

	s += "\n" + sectionStyle.Render("Press ? or esc to return")
	return s
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width.
func (m Model) buildKeybindBar(width int, mode string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds []keybind
	switch mode {
	case "sounds":
		binds = []keybind{
			{"q", "quit", 1},
			{"enter", "play", 2},
			{"o", "device", 3},
			{"?", "help", 4},
			{"1-9", "quick play", 5},
			{"r", "refresh", 6},
			{"s", "remote", 7},
		}
	case "devices":
		binds = []keybind{
			{"enter", "select", 1},
			{"esc", "back", 2},
			{"r", "refresh", 3},
			{"↑/↓", "navigate", 4},
		}
	}

	const separator = "  "
	plain := ""
	result := ""
	for _, b := range binds {
		item := b.key + " " + b.desc
		next := len([]rune(plain)) + len([]rune(item))
		if plain != "" {
			next += len(separator)
		}
		if width > 0 && next > width {
			break
		}
		if plain != "" {
			plain += separator
			result += separator
		}
		plain += item
		result += keyStyle.Render(b.key) + " " + b.desc
	}

	return style.Render(result)
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl Controller) error {
	p := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
