package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies what happened inside soundpad.
type EventType string

const (
	// EventListenerUp is emitted when the trigger listener is bound and receiving.
	EventListenerUp EventType = "listener_up"
	// EventListenerDown is emitted when the trigger listener failed to bind or faulted.
	EventListenerDown EventType = "listener_down"
	// EventListenerStopped is emitted when the listener was stopped on request.
	EventListenerStopped EventType = "listener_stopped"
	// EventTriggerDropped is emitted when a received trigger did not map to a sound.
	EventTriggerDropped EventType = "trigger_dropped"
	// EventPlaybackStarted is emitted before a sound is handed to the player.
	EventPlaybackStarted EventType = "playback_started"
	// EventPlaybackFailed is emitted when a single playback attempt failed.
	EventPlaybackFailed EventType = "playback_failed"
	// EventDevicesRefreshed is emitted after a successful device enumeration.
	EventDevicesRefreshed EventType = "devices_refreshed"
	// EventDeviceSelected is emitted when the output device changed.
	EventDeviceSelected EventType = "device_selected"
	// EventConfigReloaded is emitted when settings were reloaded from disk.
	EventConfigReloaded EventType = "config_reloaded"
)

// Origin says where a playback request came from.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Event is a state change emitted to the UI layer and other observers.
// Only the fields relevant to Type are set.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	At   time.Time `json:"at"`

	Origin  Origin `json:"origin,omitempty"`
	Trigger uint64 `json:"trigger,omitempty"`
	Label   string `json:"label,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Port    uint16 `json:"port,omitempty"`

	Devices       []string `json:"devices,omitempty"`
	DefaultDevice string   `json:"default_device,omitempty"`
	Device        string   `json:"device,omitempty"`
}

// NewEvent creates an event of the given type with a fresh ULID and timestamp.
func NewEvent(t EventType) Event {
	now := time.Now()
	id := ""
	if u, err := ulid.New(ulid.Timestamp(now), rand.Reader); err == nil {
		id = u.String()
	}
	return Event{ID: id, Type: t, At: now}
}

// IsFailure reports whether the event signals a problem worth surfacing.
func (e Event) IsFailure() bool {
	return e.Type == EventListenerDown || e.Type == EventPlaybackFailed
}
