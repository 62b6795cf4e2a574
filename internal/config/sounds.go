package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/soundpad/internal/model"
)

// SoundsFile is the on-disk sound catalog.
//
//	sounds:
//	  - label: Airhorn
//	    file: airhorn.wav
type SoundsFile struct {
	Sounds []model.SoundEntry `yaml:"sounds"`
}

// LoadSounds reads the sound catalog at path and builds a model.Catalog.
// Entry order in the file defines the ordinal IDs.
func LoadSounds(path string) (*model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sound catalog: %w", err)
	}

	var file SoundsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sound catalog: %w", err)
	}

	catalog, err := model.NewCatalog(file.Sounds)
	if err != nil {
		return nil, fmt.Errorf("invalid sound catalog %s: %w", path, err)
	}
	return catalog, nil
}

// SaveSounds writes entries as a sound catalog file.
func SaveSounds(path string, entries []model.SoundEntry) error {
	data, err := yaml.Marshal(SoundsFile{Sounds: entries})
	if err != nil {
		return fmt.Errorf("failed to marshal sound catalog: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
