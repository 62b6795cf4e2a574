package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// DeviceCatalog lists output devices. It holds no state of its own.
type DeviceCatalog struct {
	host   Host
	logger *slog.Logger
}

// NewDeviceCatalog creates a catalog backed by host.
func NewDeviceCatalog(host Host, logger *slog.Logger) *DeviceCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeviceCatalog{host: host, logger: logger}
}

// ListOutputDevices returns all output device names and the default device name.
// The default comes first when it can be resolved and appears once.
// With no devices the result is an empty list and an empty default.
func (c *DeviceCatalog) ListOutputDevices(ctx context.Context) ([]string, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	devices, err := c.host.OutputDevices()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDeviceEnumeration, err)
	}

	defaultName := ""
	if def, err := c.host.DefaultOutputDevice(); err != nil {
		c.logger.Debug("no default output device", "error", err)
	} else {
		defaultName = def.Name
	}

	names := make([]string, 0, len(devices)+1)
	seen := make(map[string]struct{}, len(devices)+1)
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	add(defaultName)
	for _, d := range devices {
		add(d.Name)
	}

	c.logger.Debug("enumerated output devices", "count", len(names), "default", defaultName)
	return names, defaultName, nil
}

// findDevice resolves name against a fresh enumeration.
// An empty name selects the default device.
func findDevice(host Host, name string) (Device, error) {
	if name == "" {
		def, err := host.DefaultOutputDevice()
		if err != nil {
			return Device{}, fmt.Errorf("%w: no default device: %w", ErrDeviceNotFound, err)
		}
		return def, nil
	}

	devices, err := host.OutputDevices()
	if err != nil {
		return Device{}, fmt.Errorf("%w: %q: %w", ErrDeviceNotFound, name, err)
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}
