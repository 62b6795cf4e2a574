package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundpad/internal/model"
)

type fakeController struct {
	mu       sync.Mutex
	catalog  *model.Catalog
	device   model.DeviceConfig
	devices  []string
	def      string
	socket   model.SocketConfig
	port     uint16
	events   chan model.Event
	pressed  []int
	selected []string
	refresh  int
	toggled  []bool
	playErr  error
}

func newFakeController(t *testing.T) *fakeController {
	t.Helper()
	catalog, err := model.NewCatalog([]model.SoundEntry{
		{Label: "Airhorn", File: "airhorn.wav"},
		{Label: "Rimshot", File: "rimshot.wav"},
		{Label: "Applause", File: "applause.ogg"},
	})
	require.NoError(t, err)
	return &fakeController{
		catalog: catalog,
		device:  model.DeviceConfig{DeviceName: "speakers", Volume: 0.8},
		devices: []string{"speakers", "headset"},
		def:     "speakers",
		socket:  model.SocketConfig{Enabled: true, Port: 7878},
		port:    7878,
		events:  make(chan model.Event, 8),
	}
}

func (f *fakeController) Catalog() *model.Catalog { return f.catalog }

func (f *fakeController) Device() model.DeviceConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.device
}

func (f *fakeController) Devices() ([]string, string) {
	return f.devices, f.def
}

func (f *fakeController) SocketConfig() model.SocketConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.socket
}

func (f *fakeController) ListenerPort() uint16 { return f.port }

func (f *fakeController) PressButton(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed = append(f.pressed, id)
	return f.playErr
}

func (f *fakeController) SelectDevice(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, name)
	f.device.DeviceName = name
	return nil
}

func (f *fakeController) RefreshDevices(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh++
	return nil
}

func (f *fakeController) SetSocketEnabled(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggled = append(f.toggled, enabled)
	f.socket.Enabled = enabled
	return nil
}

func (f *fakeController) Subscribe() <-chan model.Event { return f.events }

func newTestModel(t *testing.T) (Model, *fakeController) {
	t.Helper()
	ctrl := newFakeController(t)
	m := New(context.Background(), ctrl)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), ctrl
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the returned command once, feeding its message back.
func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Msg) {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd == nil {
		return m, nil
	}
	out := cmd()
	updated, _ = m.Update(out)
	return updated.(Model), out
}

func TestModel_InitialView(t *testing.T) {
	m, _ := newTestModel(t)

	view := m.View()
	assert.Contains(t, view, "Airhorn")
	assert.Contains(t, view, "Rimshot")
	assert.Contains(t, view, "udp/7878")
	assert.Contains(t, view, "speakers")
}

func TestModel_NotReady(t *testing.T) {
	ctrl := newFakeController(t)
	m := New(context.Background(), ctrl)
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_NumberKeyPlays(t *testing.T) {
	m, ctrl := newTestModel(t)

	_, msg := press(t, m, runes("2"))
	require.IsType(t, playResultMsg{}, msg)
	assert.Equal(t, []int{1}, ctrl.pressed)
}

func TestModel_NumberKeyOutOfRangeIgnored(t *testing.T) {
	m, ctrl := newTestModel(t)

	_, msg := press(t, m, runes("9"))
	assert.Nil(t, msg)
	assert.Empty(t, ctrl.pressed)
}

func TestModel_EnterPlaysSelected(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	_, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.IsType(t, playResultMsg{}, msg)
	assert.Equal(t, []int{1}, ctrl.pressed)
}

func TestModel_PlayFailureShowsStatus(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.playErr = errors.New("boom")

	m, _ = press(t, m, runes("1"))
	updated, _ := m.Update(statusMsg{text: "Playback failed: boom", isErr: true})
	m = updated.(Model)
	assert.Contains(t, m.View(), "Playback failed: boom")
}

func TestModel_DevicePicker(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, _ = press(t, m, runes("o"))
	assert.Equal(t, ModeDevices, m.mode)
	assert.Contains(t, m.View(), "headset")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, msg := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.IsType(t, selectResultMsg{}, msg)
	assert.Equal(t, ModeSounds, m.mode)
	assert.Equal(t, []string{"headset"}, ctrl.selected)
}

func TestModel_DevicePickerBack(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, _ = press(t, m, runes("o"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeSounds, m.mode)
	assert.Empty(t, ctrl.selected)
}

func TestModel_Refresh(t *testing.T) {
	m, ctrl := newTestModel(t)

	_, msg := press(t, m, runes("r"))
	require.IsType(t, refreshResultMsg{}, msg)
	assert.Equal(t, 1, ctrl.refresh)
}

func TestModel_ToggleSocket(t *testing.T) {
	m, ctrl := newTestModel(t)

	m, msg := press(t, m, runes("s"))
	require.IsType(t, socketResultMsg{}, msg)
	assert.False(t, msg.(socketResultMsg).enabled)

	_, _ = press(t, m, runes("s"))
	assert.Equal(t, []bool{false, true}, ctrl.toggled)
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, runes("?"))
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeSounds, m.mode)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_Events(t *testing.T) {
	m, _ := newTestModel(t)

	started := model.NewEvent(model.EventPlaybackStarted)
	started.Label = "Rimshot"
	started.Origin = model.OriginRemote
	started.At = time.Now()

	updated, cmd := m.Update(eventMsg{event: started})
	m = updated.(Model)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Rimshot (remote")

	stopped := model.NewEvent(model.EventListenerStopped)
	updated, _ = m.Update(eventMsg{event: stopped})
	m = updated.(Model)
	assert.Contains(t, m.View(), "remote triggers off")
}

func TestModel_ListenerDownShown(t *testing.T) {
	m, ctrl := newTestModel(t)

	down := model.NewEvent(model.EventListenerDown)
	down.Port = 7878
	down.Reason = "address already in use"
	ctrl.events <- down

	msg := m.watchEvents()
	require.IsType(t, eventMsg{}, msg)
	cmd := m.applyEvent(msg.(eventMsg).event)
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	view := m.View()
	assert.Contains(t, view, "udp/7878 down")
	assert.Contains(t, view, "Remote triggers unavailable: address already in use")
}

func TestModel_WatchEvents(t *testing.T) {
	m, ctrl := newTestModel(t)

	e := model.NewEvent(model.EventDeviceSelected)
	ctrl.events <- e
	msg := m.watchEvents()
	require.IsType(t, eventMsg{}, msg)
	assert.Equal(t, e.ID, msg.(eventMsg).event.ID)

	close(ctrl.events)
	assert.IsType(t, eventsClosedMsg{}, m.watchEvents())
}

func TestQuickPlayIndex(t *testing.T) {
	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"1", 0, true},
		{"9", 8, true},
		{"0", 0, false},
		{"a", 0, false},
		{"10", 0, false},
	}
	for _, tt := range tests {
		got, ok := quickPlayIndex(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}
