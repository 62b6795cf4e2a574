package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundpad/internal/model"
)

func TestLoadSounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sounds.yaml")

	content := `
sounds:
  - label: Airhorn
    file: airhorn.wav
  - label: Rimshot
    file: drums/rimshot.ogg
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	catalog, err := LoadSounds(path)
	require.NoError(t, err)
	require.Equal(t, 2, catalog.Len())

	e, err := catalog.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, 1, e.ID)
	assert.Equal(t, "Rimshot", e.Label)
	assert.Equal(t, "drums/rimshot.ogg", e.File)
}

func TestLoadSounds_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSounds(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sounds: ["), 0644))
	_, err = LoadSounds(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("sounds:\n  - label: X\n"), 0644))
	_, err = LoadSounds(invalid)
	assert.ErrorIs(t, err, model.ErrEmptyFile)
}

func TestSaveSounds_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sounds.yaml")
	entries := []model.SoundEntry{
		{Label: "One", File: "1.wav"},
		{Label: "Two", File: "2.mp3"},
	}
	require.NoError(t, SaveSounds(path, entries))

	catalog, err := LoadSounds(path)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
	e, ok := catalog.Entry(0)
	require.True(t, ok)
	assert.Equal(t, "One", e.Label)
}
