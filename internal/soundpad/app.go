// Package soundpad ties the sound catalog, device selection, local playback
// and the remote trigger pipeline together.
package soundpad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/soundpad/internal/model"
	"github.com/jmylchreest/soundpad/internal/trigger"
)

// DefaultQueueSize is the trigger channel capacity used when Options.QueueSize is zero.
const DefaultQueueSize = 10

const subscriberBuffer = 32

// ConfigStore is the persisted configuration the App reads and updates.
type ConfigStore interface {
	CurrentDeviceName() string
	CurrentVolume() float64
	SocketEnabled() bool
	SocketPort() uint16
	SetDevice(name string) error
}

// socketPersister is implemented by stores that can persist socket enablement.
type socketPersister interface {
	SetSocketEnabled(enabled bool) error
}

// Player plays one request to completion.
type Player = trigger.Player

// DeviceLister enumerates output devices.
type DeviceLister interface {
	ListOutputDevices(ctx context.Context) ([]string, string, error)
}

// Options configures an App.
type Options struct {
	Config    ConfigStore
	Catalog   *model.Catalog
	SoundsDir string
	Player    Player
	Devices   DeviceLister
	QueueSize int
	Logger    *slog.Logger

	// Listen opens the trigger socket. Nil uses UDP on 0.0.0.0.
	Listen trigger.ListenFunc
}

// App is the application state: the current device, the catalog, and the
// trigger listener lifecycle. All playback goes through one gate so only
// one sound plays at a time.
type App struct {
	config    ConfigStore
	catalog   *model.Catalog
	soundsDir string
	devices   DeviceLister
	queueSize int
	logger    *slog.Logger
	listen    trigger.ListenFunc

	player     *gatedPlayer
	dispatcher *trigger.Dispatcher

	device atomic.Pointer[model.DeviceConfig]

	devMu         sync.RWMutex
	deviceNames   []string
	defaultDevice string

	subMu        sync.Mutex
	subscribers  []chan model.Event
	closed       bool
	lastListener *model.Event

	lisMu   sync.Mutex
	baseCtx context.Context
	socket  model.SocketConfig
	run     *listenerRun
}

// listenerRun is one running listener + dispatcher pair.
type listenerRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	cfg    model.SocketConfig
	port   uint16
}

func (r *listenerRun) running() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// gatedPlayer serializes every playback, local or remote.
// Waiting for the gate ends when ctx is cancelled.
type gatedPlayer struct {
	slot   chan struct{}
	player Player
}

func newGatedPlayer(player Player) *gatedPlayer {
	return &gatedPlayer{slot: make(chan struct{}, 1), player: player}
}

func (g *gatedPlayer) Play(ctx context.Context, req model.PlaybackRequest) error {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slot }()
	return g.player.Play(ctx, req)
}

// New creates an App. The initial device comes from the config store.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queue := opts.QueueSize
	if queue <= 0 {
		queue = DefaultQueueSize
	}

	a := &App{
		config:    opts.Config,
		catalog:   opts.Catalog,
		soundsDir: opts.SoundsDir,
		devices:   opts.Devices,
		queueSize: queue,
		logger:    logger,
		player:    newGatedPlayer(opts.Player),
		listen:    opts.Listen,
		baseCtx:   context.Background(),
		socket: model.SocketConfig{
			Enabled: opts.Config.SocketEnabled(),
			Port:    opts.Config.SocketPort(),
		},
	}

	a.device.Store(&model.DeviceConfig{
		DeviceName: opts.Config.CurrentDeviceName(),
		Volume:     model.ClampVolume(opts.Config.CurrentVolume()),
	})

	a.dispatcher = trigger.NewDispatcher(trigger.DispatcherConfig{
		Catalog:   opts.Catalog,
		SoundsDir: opts.SoundsDir,
		Device:    a.Device,
		Player:    a.player,
		Logger:    logger,
		OnEvent:   a.emit,
	})

	return a
}

// Start enumerates devices and starts the trigger listener if enabled.
// Neither an enumeration failure nor a bind failure is returned; both are
// logged and the App keeps running with local playback.
func (a *App) Start(ctx context.Context) error {
	a.lisMu.Lock()
	a.baseCtx = ctx
	socket := a.socket
	a.lisMu.Unlock()

	if err := a.loadDevices(ctx, false); err != nil {
		a.logger.Warn("initial device enumeration failed", "error", err)
	}

	if socket.Enabled {
		a.lisMu.Lock()
		_ = a.startListenerLocked(socket)
		a.lisMu.Unlock()
	}
	return nil
}

// Stop stops the trigger listener and closes all subscriber channels.
func (a *App) Stop() {
	a.lisMu.Lock()
	a.stopListenerLocked()
	a.lisMu.Unlock()

	a.subMu.Lock()
	defer a.subMu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for _, ch := range a.subscribers {
		close(ch)
	}
	a.subscribers = nil
}

// Subscribe returns a channel receiving every App event.
// The latest listener event, if any, is delivered first so late subscribers
// learn the listener status. Events are dropped for subscribers that fall behind.
func (a *App) Subscribe() <-chan model.Event {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	ch := make(chan model.Event, subscriberBuffer)
	if a.closed {
		close(ch)
		return ch
	}
	if a.lastListener != nil {
		ch <- *a.lastListener
	}
	a.subscribers = append(a.subscribers, ch)
	return ch
}

// ListenerStatus returns the latest listener event.
func (a *App) ListenerStatus() (model.Event, bool) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	if a.lastListener == nil {
		return model.Event{}, false
	}
	return *a.lastListener, true
}

func isListenerEvent(t model.EventType) bool {
	return t == model.EventListenerUp || t == model.EventListenerDown || t == model.EventListenerStopped
}

func (a *App) emit(e model.Event) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	if isListenerEvent(e.Type) {
		last := e
		a.lastListener = &last
	}

	for _, ch := range a.subscribers {
		select {
		case ch <- e:
		default:
			// Subscriber is behind, skip
		}
	}
}

// Catalog returns the sound catalog.
func (a *App) Catalog() *model.Catalog {
	return a.catalog
}

// Device returns a snapshot of the current device config.
func (a *App) Device() model.DeviceConfig {
	return *a.device.Load()
}

// Devices returns the last enumerated device names and default device.
func (a *App) Devices() ([]string, string) {
	a.devMu.RLock()
	defer a.devMu.RUnlock()
	return append([]string(nil), a.deviceNames...), a.defaultDevice
}

// PressButton plays the sound with the 0-based id and blocks until it finishes.
func (a *App) PressButton(ctx context.Context, id int) error {
	entry, ok := a.catalog.Entry(id)
	if !ok {
		return fmt.Errorf("%w: %d", model.ErrUnknownSound, id)
	}

	req := model.NewPlaybackRequest(entry, a.soundsDir, a.Device())

	started := model.NewEvent(model.EventPlaybackStarted)
	started.Origin = model.OriginLocal
	started.Trigger = entry.TriggerNumber()
	started.Label = entry.Label
	started.Device = req.DeviceName
	a.emit(started)

	if err := a.player.Play(ctx, req); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		a.logger.Warn("playback failed", "label", entry.Label, "path", req.FilePath, "error", err)
		failed := model.NewEvent(model.EventPlaybackFailed)
		failed.Origin = model.OriginLocal
		failed.Trigger = entry.TriggerNumber()
		failed.Label = entry.Label
		failed.Device = req.DeviceName
		failed.Reason = err.Error()
		a.emit(failed)
		return err
	}
	return nil
}

// SelectDevice makes name the output device and persists the choice.
// The in-memory selection changes even if persisting fails.
func (a *App) SelectDevice(name string) error {
	current := a.Device()
	current.DeviceName = name
	a.device.Store(&current)

	e := model.NewEvent(model.EventDeviceSelected)
	e.Device = name
	a.emit(e)

	if err := a.config.SetDevice(name); err != nil {
		a.logger.Warn("failed to save device selection", "device", name, "error", err)
		return fmt.Errorf("save device selection: %w", err)
	}
	a.logger.Info("output device selected", "device", name)
	return nil
}

// RefreshDevices re-enumerates devices. When a default device exists it
// becomes the selected device. On failure the previous list and selection stay.
func (a *App) RefreshDevices(ctx context.Context) error {
	return a.loadDevices(ctx, true)
}

func (a *App) loadDevices(ctx context.Context, adoptDefault bool) error {
	names, def, err := a.devices.ListOutputDevices(ctx)
	if err != nil {
		return err
	}

	a.devMu.Lock()
	a.deviceNames = names
	a.defaultDevice = def
	a.devMu.Unlock()

	if adoptDefault && def != "" {
		current := a.Device()
		current.DeviceName = def
		a.device.Store(&current)
	}

	e := model.NewEvent(model.EventDevicesRefreshed)
	e.Devices = append([]string(nil), names...)
	e.DefaultDevice = def
	e.Device = a.Device().DeviceName
	a.emit(e)

	a.logger.Debug("devices refreshed", "count", len(names), "default", def)
	return nil
}

// SocketConfig returns the desired listener configuration.
func (a *App) SocketConfig() model.SocketConfig {
	a.lisMu.Lock()
	defer a.lisMu.Unlock()
	return a.socket
}

// ListenerPort returns the bound listener port, or 0 when no listener is running.
func (a *App) ListenerPort() uint16 {
	a.lisMu.Lock()
	defer a.lisMu.Unlock()
	if a.run == nil || !a.run.running() {
		return 0
	}
	return a.run.port
}

// SetSocketEnabled starts or stops the trigger listener on the current port
// and persists the setting when the store supports it.
func (a *App) SetSocketEnabled(enabled bool) error {
	cfg := a.SocketConfig()
	cfg.Enabled = enabled
	err := a.ApplySocketConfig(cfg)

	if p, ok := a.config.(socketPersister); ok {
		if perr := p.SetSocketEnabled(enabled); perr != nil {
			a.logger.Warn("failed to save socket setting", "enabled", enabled, "error", perr)
		}
	}
	return err
}

// ApplySocketConfig moves the listener to cfg. A running listener with the
// same config is left alone; otherwise it is stopped, which frees its port,
// and a new one is started when cfg is enabled.
func (a *App) ApplySocketConfig(cfg model.SocketConfig) error {
	a.lisMu.Lock()
	defer a.lisMu.Unlock()

	a.socket = cfg
	if a.run != nil && a.run.running() && a.run.cfg == cfg {
		return nil
	}

	a.stopListenerLocked()
	if !cfg.Enabled {
		return nil
	}
	return a.startListenerLocked(cfg)
}

// ApplyReloadedConfig applies the runtime-adjustable part of reloaded settings.
func (a *App) ApplyReloadedConfig(socket model.SocketConfig) error {
	err := a.ApplySocketConfig(socket)
	e := model.NewEvent(model.EventConfigReloaded)
	e.Port = socket.Port
	if err != nil {
		e.Reason = err.Error()
	}
	a.emit(e)
	return err
}

func (a *App) startListenerLocked(cfg model.SocketConfig) error {
	listener := trigger.NewListener(cfg.Port, a.logger)
	if a.listen != nil {
		listener.SetListenFunc(a.listen)
	}
	if err := listener.Bind(); err != nil {
		a.logger.Error("trigger listener unavailable", "port", cfg.Port, "error", err)
		e := model.NewEvent(model.EventListenerDown)
		e.Port = cfg.Port
		e.Reason = err.Error()
		a.emit(e)
		return err
	}

	ctx, cancel := context.WithCancel(a.baseCtx)
	run := &listenerRun{
		cancel: cancel,
		done:   make(chan struct{}),
		cfg:    cfg,
		port:   listener.Port(),
	}
	triggers := make(chan uint64, a.queueSize)

	up := model.NewEvent(model.EventListenerUp)
	up.Port = run.port
	a.emit(up)

	var g errgroup.Group
	g.Go(func() error {
		// Closing the channel lets the dispatcher drain queued triggers after a fault.
		defer close(triggers)
		return listener.Run(ctx, triggers)
	})
	g.Go(func() error {
		return a.dispatcher.Run(ctx, triggers)
	})

	go func() {
		defer close(run.done)
		err := g.Wait()
		cancel()

		if err != nil {
			a.logger.Error("trigger listener failed", "port", run.port, "error", err)
			e := model.NewEvent(model.EventListenerDown)
			e.Port = run.port
			e.Reason = err.Error()
			a.emit(e)
			return
		}
		e := model.NewEvent(model.EventListenerStopped)
		e.Port = run.port
		a.emit(e)
	}()

	a.run = run
	return nil
}

func (a *App) stopListenerLocked() {
	run := a.run
	a.run = nil
	if run == nil {
		return
	}
	run.cancel()
	<-run.done
}

// State is a point-in-time view of the App for observers.
type State struct {
	Device        model.DeviceConfig `json:"device"`
	Devices       []string           `json:"devices"`
	DefaultDevice string             `json:"default_device,omitempty"`
	Socket        model.SocketConfig `json:"socket"`
	ListenerPort  uint16             `json:"listener_port,omitempty"`
	Listener      *model.Event       `json:"listener,omitempty"`
	Sounds        []model.SoundEntry `json:"sounds"`
}

// Snapshot returns the current State.
func (a *App) Snapshot() State {
	names, def := a.Devices()
	var listener *model.Event
	if e, ok := a.ListenerStatus(); ok {
		listener = &e
	}
	return State{
		Device:        a.Device(),
		Devices:       names,
		DefaultDevice: def,
		Socket:        a.SocketConfig(),
		ListenerPort:  a.ListenerPort(),
		Listener:      listener,
		Sounds:        a.catalog.Entries(),
	}
}
