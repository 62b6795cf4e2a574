package main

import (
	"context"
	"errors"
	"io/fs"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/soundpad/internal/audio"
	"github.com/jmylchreest/soundpad/internal/config"
	"github.com/jmylchreest/soundpad/internal/feed"
	"github.com/jmylchreest/soundpad/internal/model"
	"github.com/jmylchreest/soundpad/internal/notify"
	"github.com/jmylchreest/soundpad/internal/soundpad"
)

// runtime is the wired application: catalog, audio backend and App.
type runtime struct {
	settings *config.Settings
	catalog  *model.Catalog
	player   *audio.Player
	app      *soundpad.App
}

// loadCatalog loads the sound catalog for settings. A missing catalog file
// yields an empty catalog.
func loadCatalog(settings *config.Settings) (*model.Catalog, error) {
	path := settings.CatalogPath()
	catalog, err := config.LoadSounds(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("sound catalog not found, starting with no sounds", "path", path)
		return model.NewCatalog(nil)
	}
	return catalog, err
}

func newRuntime() (*runtime, error) {
	settings := settingsStore.Settings()

	catalog, err := loadCatalog(settings)
	if err != nil {
		return nil, err
	}

	host := audio.NewPulseHost()
	player := audio.NewPlayer(host, logger)

	app := soundpad.New(soundpad.Options{
		Config:    settingsStore,
		Catalog:   catalog,
		SoundsDir: settings.SoundsDir(),
		Player:    player,
		Devices:   audio.NewDeviceCatalog(host, logger),
		QueueSize: settings.Socket.Queue,
		Logger:    logger,
	})

	return &runtime{
		settings: settings,
		catalog:  catalog,
		player:   player,
		app:      app,
	}, nil
}

// run starts the App and its companions (settings watcher, desktop
// notifications, event feed) and runs foreground until it returns or ctx is
// cancelled. Everything is stopped before run returns.
func (r *runtime) run(ctx context.Context, foreground func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := r.app.Start(ctx); err != nil {
		return err
	}
	defer r.app.Stop()

	if watcher := r.watchSettings(); watcher != nil {
		defer func() { _ = watcher.Stop() }()
	}

	g, gctx := errgroup.WithContext(ctx)

	if r.settings.Notify.Enabled {
		sender := notify.NewDBusSender()
		defer func() { _ = sender.Close() }()

		notifier := notify.NewNotifier(sender, logger)
		events := r.app.Subscribe()
		g.Go(func() error {
			notifier.Forward(gctx, events)
			return nil
		})
	}

	if r.settings.Feed.Enabled {
		srv := feed.NewServer(feed.NewHub(logger, feed.HubConfig{}), func() any {
			return r.app.Snapshot()
		}, logger)
		events := r.app.Subscribe()
		g.Go(func() error {
			srv.Forward(gctx, events)
			return nil
		})
		g.Go(func() error {
			// The feed is optional; the soundboard keeps running without it
			if err := srv.ListenAndServe(gctx, r.settings.Feed.Addr); err != nil {
				logger.Error("event feed unavailable", "addr", r.settings.Feed.Addr, "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		return foreground(gctx)
	})

	return g.Wait()
}

// watchSettings hot-reloads the settings file. Only socket settings are
// applied at runtime; the store's own saves are not reloaded.
func (r *runtime) watchSettings() *config.Watcher {
	watcher, err := settingsStore.NewWatcher(logger)
	if err != nil {
		logger.Warn("settings watcher unavailable", "error", err)
		return nil
	}

	watcher.SetReloadCallback(func(s *config.Settings) {
		settingsStore.Replace(s)
		_ = r.app.ApplyReloadedConfig(model.SocketConfig{
			Enabled: s.Socket.Enabled,
			Port:    uint16(s.Socket.Port),
		})
	})
	watcher.SetErrorCallback(func(err error) {
		logger.Warn("ignoring invalid settings file", "path", settingsStore.Path(), "error", err)
	})

	if err := watcher.Start(); err != nil {
		logger.Warn("settings watcher unavailable", "path", settingsStore.Path(), "error", err)
		_ = watcher.Stop()
		return nil
	}
	return watcher
}
