package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Decode reads and fully decodes the sound file at path.
// Supports WAV, OGG Vorbis, and MP3, chosen by file extension.
func Decode(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("%w: unsupported audio format %q", ErrDecode, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return buffer, nil
}

// cachedSound holds a decoded sound and the modification time it was decoded at.
type cachedSound struct {
	buffer  *beep.Buffer
	modTime time.Time
	size    int64
}

// decodeCache keeps decoded sounds keyed by path.
// An entry is reused only while the file's size and modification time are unchanged.
type decodeCache struct {
	mu      sync.RWMutex
	entries map[string]cachedSound
}

func newDecodeCache() *decodeCache {
	return &decodeCache{entries: make(map[string]cachedSound)}
}

func (c *decodeCache) load(path string) (*beep.Buffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.invalidate(path)
		}
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}

	c.mu.RLock()
	cached, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.buffer, nil
	}

	buffer, err := Decode(path)
	if err != nil {
		c.invalidate(path)
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cachedSound{buffer: buffer, modTime: info.ModTime(), size: info.Size()}
	c.mu.Unlock()
	return buffer, nil
}

func (c *decodeCache) invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

func (c *decodeCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]cachedSound)
	c.mu.Unlock()
}

func (c *decodeCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
