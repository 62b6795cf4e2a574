// Package config handles settings and sound catalog loading.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultVolume    = 80
	DefaultPort      = 7878
	DefaultQueueSize = 10
	DefaultFeedAddr  = "127.0.0.1:7879"

	// EnvPrefix prefixes environment variables that override file settings.
	EnvPrefix = "SOUNDPAD_"
)

// Settings is the soundpad configuration.
// Loaded from ~/.config/soundpad/settings.toml
type Settings struct {
	Sound   SoundConfig   `toml:"sound"`
	Socket  SocketConfig  `toml:"socket"`
	Library LibraryConfig `toml:"library"`
	Feed    FeedConfig    `toml:"feed"`
	Notify  NotifyConfig  `toml:"notify"`
}

// SoundConfig holds the output device and volume.
type SoundConfig struct {
	Device string `toml:"device"` // Empty = system default
	Volume int    `toml:"volume"` // 0-100
}

// SocketConfig holds the UDP trigger listener settings.
type SocketConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
	Queue   int  `toml:"queue"` // Trigger channel capacity
}

// LibraryConfig locates the sound catalog and sound files.
type LibraryConfig struct {
	Dir     string `toml:"dir"`     // Directory relative sound files resolve under
	Catalog string `toml:"catalog"` // Empty = <config dir>/sounds.yaml
}

// FeedConfig holds the websocket event feed settings.
type FeedConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultSettings returns Settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Sound: SoundConfig{
			Device: "",
			Volume: DefaultVolume,
		},
		Socket: SocketConfig{
			Enabled: true,
			Port:    DefaultPort,
			Queue:   DefaultQueueSize,
		},
		Library: LibraryConfig{
			Dir: filepath.Join(ConfigDir(), "sounds"),
		},
		Feed: FeedConfig{
			Enabled: false,
			Addr:    DefaultFeedAddr,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the soundpad config directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "soundpad")
}

// SettingsPath returns the path to the settings file.
func SettingsPath() string {
	return filepath.Join(ConfigDir(), "settings.toml")
}

// StateDir returns the soundpad state directory used for log files.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StateDir() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "soundpad")
}

// CatalogPath returns the sound catalog path for these settings.
func (s *Settings) CatalogPath() string {
	if s.Library.Catalog != "" {
		return expandPath(s.Library.Catalog)
	}
	return filepath.Join(ConfigDir(), "sounds.yaml")
}

// SoundsDir returns the expanded sound directory.
func (s *Settings) SoundsDir() string {
	return expandPath(s.Library.Dir)
}

// LoadSettings loads settings from the specified path.
// If path is empty, uses the default settings path.
// Returns default settings if the file doesn't exist.
// Environment overrides are applied after the file.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		path = SettingsPath()
	}

	// Start with defaults, then overlay with file contents
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse settings file: %w", err)
		}
	}

	if err := settings.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return settings, nil
}

// Save writes the settings to the specified path.
// Creates parent directories if needed and writes atomically via a temp file.
func (s *Settings) Save(path string) error {
	if path == "" {
		path = SettingsPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the settings are valid.
func (s *Settings) Validate() error {
	if s.Sound.Volume < 0 || s.Sound.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", s.Sound.Volume)
	}
	if s.Socket.Port < 0 || s.Socket.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", s.Socket.Port)
	}
	if s.Socket.Queue < 1 || s.Socket.Queue > 1024 {
		return fmt.Errorf("queue must be between 1 and 1024, got %d", s.Socket.Queue)
	}
	if s.Feed.Enabled {
		if _, _, err := net.SplitHostPort(s.Feed.Addr); err != nil {
			return fmt.Errorf("invalid feed addr %q: %w", s.Feed.Addr, err)
		}
	}
	return nil
}

// VolumeGain returns the configured volume as a linear gain (0.0 to 1.0).
func (s *Settings) VolumeGain() float64 {
	return float64(s.Sound.Volume) / 100.0
}

// Clone returns a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

// applyEnv overlays SOUNDPAD_* environment variables.
func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
		}
		*dst = b
		return nil
	}

	str("SOUND_DEVICE", &s.Sound.Device)
	str("LIBRARY_DIR", &s.Library.Dir)
	str("LIBRARY_CATALOG", &s.Library.Catalog)
	str("FEED_ADDR", &s.Feed.Addr)

	return errors.Join(
		integer("SOUND_VOLUME", &s.Sound.Volume),
		boolean("SOCKET_ENABLED", &s.Socket.Enabled),
		integer("SOCKET_PORT", &s.Socket.Port),
		integer("SOCKET_QUEUE", &s.Socket.Queue),
		boolean("FEED_ENABLED", &s.Feed.Enabled),
		boolean("NOTIFY_ENABLED", &s.Notify.Enabled),
	)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
