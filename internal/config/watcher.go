package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the settings file and reloads it on change.
// Invalid files are reported through the error callback and the previous
// settings stay in effect.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	path    string

	onReload func(*Settings)
	onError  func(error)

	// unchanged reports settings that match what is already in effect,
	// such as the result of our own Store writes.
	unchanged func(*Settings) bool

	done    chan struct{}
	stopped chan struct{}
	running bool
}

// NewWatcher creates a watcher for the settings file at path.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		logger:  logger,
		watcher: fw,
		path:    path,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// SetReloadCallback sets the callback invoked with successfully reloaded settings.
func (w *Watcher) SetReloadCallback(callback func(*Settings)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetErrorCallback sets the callback invoked when a reload fails.
func (w *Watcher) SetErrorCallback(callback func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	// Watch the directory containing the file (more reliable for atomic saves).
	// It may not exist yet on a first run.
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.running = true
	go w.watch()
	w.logger.Debug("settings watcher started", "path", w.path)
	return nil
}

// Stop stops watching and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	close(w.done)
	w.mu.Unlock()

	<-w.stopped
	return w.watcher.Close()
}

func (w *Watcher) watch() {
	defer close(w.stopped)
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	onReload := w.onReload
	onError := w.onError
	unchanged := w.unchanged
	w.mu.Unlock()

	settings, err := LoadSettings(w.path)
	if err != nil {
		w.logger.Warn("settings changed but reload failed", "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	if unchanged != nil && unchanged(settings) {
		w.logger.Debug("settings file unchanged, skipping reload", "path", w.path)
		return
	}

	w.logger.Info("settings reloaded", "path", w.path)
	if onReload != nil {
		onReload(settings)
	}
}
