package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/require"
)

// fakeHost is an in-memory Host that records what was played.
type fakeHost struct {
	mu sync.Mutex

	devices []Device
	def     *Device
	listErr error
	defErr  error
	openErr error
	rate    beep.SampleRate

	opened []string
	closed int
	played []playedSound
}

type playedSound struct {
	device string
	frames int
	peak   float64
}

func newFakeHost(names ...string) *fakeHost {
	h := &fakeHost{rate: 44100}
	for _, n := range names {
		h.devices = append(h.devices, Device{Name: n, Description: n + " output"})
	}
	if len(h.devices) > 0 {
		d := h.devices[0]
		h.def = &d
	}
	return h
}

func (h *fakeHost) OutputDevices() ([]Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listErr != nil {
		return nil, h.listErr
	}
	return append([]Device(nil), h.devices...), nil
}

func (h *fakeHost) DefaultOutputDevice() (Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.defErr != nil {
		return Device{}, h.defErr
	}
	if h.def == nil {
		return Device{}, errors.New("no default")
	}
	return *h.def, nil
}

func (h *fakeHost) OpenStream(name string) (OutputStream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.openErr != nil {
		return nil, h.openErr
	}
	h.opened = append(h.opened, name)
	return &fakeStream{host: h, name: name}, nil
}

func (h *fakeHost) playedSounds() []playedSound {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]playedSound(nil), h.played...)
}

type fakeStream struct {
	host *fakeHost
	name string
}

func (s *fakeStream) SampleRate() beep.SampleRate {
	return s.host.rate
}

func (s *fakeStream) Play(ctx context.Context, st beep.Streamer) error {
	buf := make([][2]float64, 256)
	played := playedSound{device: s.name}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, ok := st.Stream(buf)
		for i := 0; i < n; i++ {
			played.peak = math.Max(played.peak, math.Abs(buf[i][0]))
		}
		played.frames += n
		if !ok {
			break
		}
	}
	s.host.mu.Lock()
	s.host.played = append(s.host.played, played)
	s.host.mu.Unlock()
	return nil
}

func (s *fakeStream) Close() error {
	s.host.mu.Lock()
	s.host.closed++
	s.host.mu.Unlock()
	return nil
}

// writeWAV writes a constant-amplitude stereo WAV fixture and returns its path.
func writeWAV(t *testing.T, dir, name string, frames int, amp float64, rate beep.SampleRate) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	tone := beep.Take(frames, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{amp, amp}
		}
		return len(samples), true
	}))

	require.NoError(t, wav.Encode(f, tone, beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}))
	return path
}
