// Package model defines the core data structures for soundpad.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SoundEntry is one configured sound button.
// ID is the 0-based ordinal position in the catalog and is stable for the session.
type SoundEntry struct {
	ID    int    `json:"id" yaml:"-"`
	Label string `json:"label" yaml:"label"`
	File  string `json:"file" yaml:"file"`
}

// TriggerNumber returns the 1-based number that selects this entry over the wire.
func (e SoundEntry) TriggerNumber() uint64 {
	return uint64(e.ID) + 1
}

// Validation errors.
var (
	ErrEmptyLabel        = errors.New("sound label cannot be empty")
	ErrEmptyFile         = errors.New("sound file cannot be empty")
	ErrTriggerOutOfRange = errors.New("trigger out of range")
	ErrUnknownSound      = errors.New("unknown sound")
)

// Validate checks that the entry has all required fields.
func (e SoundEntry) Validate() error {
	if strings.TrimSpace(e.Label) == "" {
		return ErrEmptyLabel
	}
	if strings.TrimSpace(e.File) == "" {
		return ErrEmptyFile
	}
	return nil
}

// Catalog is the immutable, ordered list of sound entries.
type Catalog struct {
	entries []SoundEntry
}

// NewCatalog builds a catalog from entries in order.
// IDs are reassigned from the position so they always match the ordinal space.
func NewCatalog(entries []SoundEntry) (*Catalog, error) {
	c := &Catalog{entries: make([]SoundEntry, 0, len(entries))}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("sound %d: %w", i+1, err)
		}
		e.ID = i
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns a copy of all entries in ordinal order.
func (c *Catalog) Entries() []SoundEntry {
	if c == nil {
		return nil
	}
	out := make([]SoundEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Entry returns the entry at the 0-based ordinal id.
func (c *Catalog) Entry(id int) (SoundEntry, bool) {
	if c == nil || id < 0 || id >= len(c.entries) {
		return SoundEntry{}, false
	}
	return c.entries[id], true
}

// Resolve maps a 1-based trigger number to its entry.
// Valid triggers are in [1, Len()]; anything else fails with ErrTriggerOutOfRange.
func (c *Catalog) Resolve(trigger uint64) (SoundEntry, error) {
	n := uint64(c.Len())
	if trigger == 0 || trigger > n {
		return SoundEntry{}, fmt.Errorf("%w: %d not in [1, %d]", ErrTriggerOutOfRange, trigger, n)
	}
	return c.entries[trigger-1], nil
}

// PlaybackRequest is a single resolved request for the playback service.
// It is built on demand and never stored.
type PlaybackRequest struct {
	FilePath   string
	DeviceName string
	Volume     float64
}

// DeviceConfig is the output device and volume used for playback.
// Volume is a linear gain in [0.0, 1.0].
type DeviceConfig struct {
	DeviceName string  `json:"device_name"`
	Volume     float64 `json:"volume"`
}

// SocketConfig configures the UDP trigger listener.
type SocketConfig struct {
	Enabled bool   `json:"enabled"`
	Port    uint16 `json:"port"`
}

// NewPlaybackRequest builds a request for entry using a device config snapshot.
// Relative sound files are resolved under soundsDir.
func NewPlaybackRequest(entry SoundEntry, soundsDir string, device DeviceConfig) PlaybackRequest {
	return PlaybackRequest{
		FilePath:   ResolveSoundPath(soundsDir, entry.File),
		DeviceName: device.DeviceName,
		Volume:     ClampVolume(device.Volume),
	}
}

// ResolveSoundPath joins file under dir unless file is already absolute.
// A leading ~ in either part expands to the home directory.
func ResolveSoundPath(dir, file string) string {
	file = ExpandPath(file)
	if filepath.IsAbs(file) || dir == "" {
		return file
	}
	return filepath.Join(ExpandPath(dir), file)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// ClampVolume limits a linear gain to [0.0, 1.0].
func ClampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
