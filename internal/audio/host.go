package audio

import (
	"context"
	"errors"

	"github.com/gopxl/beep/v2"
)

// Errors returned by the device catalog and player.
var (
	ErrDeviceEnumeration = errors.New("audio device enumeration failed")
	ErrDeviceNotFound    = errors.New("audio device not found")
	ErrStreamOpen        = errors.New("failed to open output stream")
	ErrFileNotFound      = errors.New("sound file not found")
	ErrDecode            = errors.New("failed to decode sound")
)

// Device is one output device exposed by a Host.
// Name is the stable identifier used for selection; Description is for display.
type Device struct {
	Name        string
	Description string
}

// Host is the audio system the catalog and player talk to.
type Host interface {
	// OutputDevices enumerates every output device.
	OutputDevices() ([]Device, error)
	// DefaultOutputDevice returns the system default output device.
	DefaultOutputDevice() (Device, error)
	// OpenStream opens an output stream on the named device.
	OpenStream(name string) (OutputStream, error)
}

// OutputStream is an open output on one device. It is used by one caller at a time.
type OutputStream interface {
	// SampleRate is the rate streamers passed to Play must produce.
	SampleRate() beep.SampleRate
	// Play blocks until s is drained or ctx is done.
	Play(ctx context.Context, s beep.Streamer) error
	Close() error
}
