package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/jfreymuth/pulse"
)

const (
	// PulseSampleRate is the rate playback streams are opened at.
	PulseSampleRate = 44100

	pulseLatency = 0.05 // seconds
	appName      = "soundpad"
	appIcon      = "audio-speakers"
)

// PulseHost is a Host backed by a PulseAudio (or PipeWire-Pulse) server.
// Every call opens its own client connection.
type PulseHost struct {
	appName string
}

// NewPulseHost creates a PulseAudio host.
func NewPulseHost() *PulseHost {
	return &PulseHost{appName: appName}
}

func (h *PulseHost) connect() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(h.appName),
		pulse.ClientApplicationIconName(appIcon),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// OutputDevices lists Pulse sinks.
func (h *PulseHost) OutputDevices() ([]Device, error) {
	client, err := h.connect()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	sinks, err := client.ListSinks()
	if err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}

	devices := make([]Device, 0, len(sinks))
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		devices = append(devices, Device{Name: sink.ID(), Description: sink.Name()})
	}
	return devices, nil
}

// DefaultOutputDevice returns the server's default sink.
func (h *PulseHost) DefaultOutputDevice() (Device, error) {
	client, err := h.connect()
	if err != nil {
		return Device{}, err
	}
	defer client.Close()

	sink, err := client.DefaultSink()
	if err != nil {
		return Device{}, fmt.Errorf("read default sink: %w", err)
	}
	return Device{Name: sink.ID(), Description: sink.Name()}, nil
}

// OpenStream connects to the server and binds a stream to the named sink.
func (h *PulseHost) OpenStream(name string) (OutputStream, error) {
	client, err := h.connect()
	if err != nil {
		return nil, err
	}

	sink, err := client.SinkByID(name)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("lookup sink %q: %w", name, err)
	}

	return &pulseStream{client: client, sink: sink}, nil
}

// pulseStream plays stereo float32 audio on one sink.
type pulseStream struct {
	mu     sync.Mutex
	client *pulse.Client
	sink   *pulse.Sink
	closed bool
}

func (s *pulseStream) SampleRate() beep.SampleRate {
	return beep.SampleRate(PulseSampleRate)
}

func (s *pulseStream) Play(ctx context.Context, streamer beep.Streamer) error {
	tmp := make([][2]float64, 512)
	// Returning EndOfData on cancellation lets the stream drain what is already buffered.
	reader := pulse.Float32Reader(func(buf []float32) (int, error) {
		if ctx.Err() != nil {
			return 0, pulse.EndOfData
		}
		n, ok := fillFloat32(streamer, buf, &tmp)
		if !ok {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := s.client.NewPlayback(
		reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(PulseSampleRate),
		pulse.PlaybackLatency(pulseLatency),
		pulse.PlaybackSink(s.sink),
		pulse.PlaybackMediaName(appName+" sound"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play stream: %w", err)
	}
	if err := streamer.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func (s *pulseStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.Close()
	return nil
}

// fillFloat32 streams frames from s into buf as interleaved stereo samples.
// It returns the number of float32 values written and false once s is exhausted.
func fillFloat32(s beep.Streamer, buf []float32, tmp *[][2]float64) (int, bool) {
	frames := len(buf) / 2
	if frames == 0 {
		return 0, true
	}
	if cap(*tmp) < frames {
		*tmp = make([][2]float64, frames)
	}
	samples := (*tmp)[:frames]

	n, ok := s.Stream(samples)
	for i := 0; i < n; i++ {
		buf[2*i] = float32(samples[i][0])
		buf[2*i+1] = float32(samples[i][1])
	}
	if n < frames {
		ok = false
	}
	return 2 * n, ok
}
