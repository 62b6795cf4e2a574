package trigger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmylchreest/soundpad/internal/model"
)

// Player plays a single request and blocks until it finishes.
type Player interface {
	Play(ctx context.Context, req model.PlaybackRequest) error
}

// DispatcherConfig wires a Dispatcher to the rest of the application.
type DispatcherConfig struct {
	Catalog   *model.Catalog
	SoundsDir string
	// Device returns the device snapshot used for each dispatch.
	Device  func() model.DeviceConfig
	Player  Player
	Logger  *slog.Logger
	OnEvent func(model.Event)
}

// Dispatcher is the single consumer of the trigger channel.
// Triggers are handled in arrival order and each playback completes before the next starts.
type Dispatcher struct {
	cfg    DispatcherConfig
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Device == nil {
		cfg.Device = func() model.DeviceConfig { return model.DeviceConfig{Volume: 1.0} }
	}
	return &Dispatcher{
		cfg:    cfg,
		logger: logger.With("component", "trigger-dispatcher"),
	}
}

// Run consumes triggers until ctx is cancelled or in is closed.
// Errors for single triggers are logged and never end the loop.
func (d *Dispatcher) Run(ctx context.Context, in <-chan uint64) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-in:
			if !ok {
				d.logger.Debug("trigger channel closed")
				return nil
			}
			_ = d.Dispatch(ctx, id)
		}
	}
}

// Dispatch resolves and plays one trigger, blocking until playback ends.
func (d *Dispatcher) Dispatch(ctx context.Context, id uint64) error {
	entry, err := d.cfg.Catalog.Resolve(id)
	if err != nil {
		d.logger.Warn("dropping trigger", "trigger", id, "sounds", d.cfg.Catalog.Len(), "error", err)
		e := model.NewEvent(model.EventTriggerDropped)
		e.Origin = model.OriginRemote
		e.Trigger = id
		e.Reason = err.Error()
		d.emit(e)
		return err
	}

	device := d.cfg.Device()
	req := model.NewPlaybackRequest(entry, d.cfg.SoundsDir, device)

	started := model.NewEvent(model.EventPlaybackStarted)
	started.Origin = model.OriginRemote
	started.Trigger = id
	started.Label = entry.Label
	started.Device = req.DeviceName
	d.emit(started)

	if err := d.cfg.Player.Play(ctx, req); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		d.logger.Warn("playback failed", "trigger", id, "label", entry.Label, "path", req.FilePath, "error", err)
		failed := model.NewEvent(model.EventPlaybackFailed)
		failed.Origin = model.OriginRemote
		failed.Trigger = id
		failed.Label = entry.Label
		failed.Device = req.DeviceName
		failed.Reason = err.Error()
		d.emit(failed)
		return err
	}
	return nil
}

func (d *Dispatcher) emit(e model.Event) {
	if d.cfg.OnEvent != nil {
		d.cfg.OnEvent(e)
	}
}
