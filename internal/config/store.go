package config

import (
	"log/slog"
	"sync"
)

// Store is the shared, persisted settings handle.
// Reads return values from the current snapshot; writes are saved to disk.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings *Settings
}

// NewStore wraps loaded settings. path is where changes are saved;
// an empty path keeps changes in memory only.
func NewStore(path string, settings *Settings) *Store {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &Store{path: path, settings: settings}
}

// OpenStore loads settings from path and wraps them in a Store.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		path = SettingsPath()
	}
	settings, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}
	return NewStore(path, settings), nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// CurrentDeviceName returns the configured output device.
func (s *Store) CurrentDeviceName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Sound.Device
}

// CurrentVolume returns the configured volume as a linear gain.
func (s *Store) CurrentVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.VolumeGain()
}

// SocketEnabled reports whether the UDP trigger listener should run.
func (s *Store) SocketEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Socket.Enabled
}

// SocketPort returns the UDP trigger listener port.
func (s *Store) SocketPort() uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint16(s.settings.Socket.Port)
}

// QueueSize returns the trigger channel capacity.
func (s *Store) QueueSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Socket.Queue
}

// SetDevice records the selected output device and saves the settings.
func (s *Store) SetDevice(name string) error {
	return s.update(func(settings *Settings) {
		settings.Sound.Device = name
	})
}

// SetSocketEnabled records socket enablement and saves the settings.
func (s *Store) SetSocketEnabled(enabled bool) error {
	return s.update(func(settings *Settings) {
		settings.Socket.Enabled = enabled
	})
}

// Matches reports whether settings equal the settings currently in effect.
func (s *Store) Matches(settings *Settings) bool {
	if settings == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.settings == *settings
}

// NewWatcher creates a Watcher for the store's file that skips reloads of
// content the store already holds, including its own saves.
func (s *Store) NewWatcher(logger *slog.Logger) (*Watcher, error) {
	w, err := NewWatcher(s.path, logger)
	if err != nil {
		return nil, err
	}
	w.unchanged = s.Matches
	return w, nil
}

// Replace swaps in settings reloaded from disk without saving them again.
func (s *Store) Replace(settings *Settings) {
	if settings == nil {
		return
	}
	s.mu.Lock()
	s.settings = settings.Clone()
	s.mu.Unlock()
}

func (s *Store) update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings.Clone()
	fn(next)
	if s.path != "" {
		if err := next.Save(s.path); err != nil {
			return err
		}
	}
	s.settings = next
	return nil
}
