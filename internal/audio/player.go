package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/jmylchreest/soundpad/internal/model"
)

// resampleQuality is passed to beep.Resample when the file rate differs from the device.
const resampleQuality = 4

// Player plays one PlaybackRequest at a time on the requested device.
type Player struct {
	host   Host
	logger *slog.Logger
	cache  *decodeCache
}

// NewPlayer creates a player that opens streams on host.
func NewPlayer(host Host, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		host:   host,
		logger: logger,
		cache:  newDecodeCache(),
	}
}

// Play resolves the device, opens a stream, decodes the file and plays it,
// blocking until playback finishes or ctx is cancelled.
// An empty DeviceName plays on the default device.
func (p *Player) Play(ctx context.Context, req model.PlaybackRequest) error {
	device, err := findDevice(p.host, req.DeviceName)
	if err != nil {
		return err
	}

	stream, err := p.host.OpenStream(device.Name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStreamOpen, device.Name, err)
	}
	defer func() { _ = stream.Close() }()

	buffer, err := p.cache.load(req.FilePath)
	if err != nil {
		return err
	}

	streamer := prepare(buffer, stream.SampleRate(), req.Volume)

	p.logger.Debug("playing sound",
		"path", req.FilePath,
		"device", device.Name,
		"volume", req.Volume,
		"duration", buffer.Format().SampleRate.D(buffer.Len()),
	)

	if err := stream.Play(ctx, streamer); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("playback on %s: %w", device.Name, err)
	}
	return nil
}

// Preload decodes path into the cache ahead of the first press.
func (p *Player) Preload(path string) error {
	_, err := p.cache.load(path)
	if err != nil {
		return err
	}
	p.logger.Debug("preloaded sound", "path", path)
	return nil
}

// ClearCache drops all decoded sounds.
func (p *Player) ClearCache() {
	p.cache.clear()
	p.logger.Debug("sound cache cleared")
}

// prepare builds the streamer for buffer at the device rate with linear gain applied.
func prepare(buffer *beep.Buffer, rate beep.SampleRate, volume float64) beep.Streamer {
	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())

	if from := buffer.Format().SampleRate; rate > 0 && from != rate {
		streamer = beep.Resample(resampleQuality, from, rate, streamer)
	}

	volume = model.ClampVolume(volume)
	if volume < 1.0 {
		// Gain scales samples by 1+Gain, so volume maps directly to linear gain.
		streamer = &effects.Gain{
			Streamer: streamer,
			Gain:     volume - 1,
		}
	}
	return streamer
}
