// Package output provides output formatters for the sound catalog.
package output

import (
	"io"
	"os"

	"github.com/jmylchreest/soundpad/internal/model"
)

// Row is one catalog entry as listed by the CLI.
type Row struct {
	Number uint64 `json:"number"`
	Label  string `json:"label"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Exists bool   `json:"exists"`
}

// Rows resolves every catalog entry under soundsDir and stats its file.
func Rows(catalog *model.Catalog, soundsDir string) []Row {
	entries := catalog.Entries()
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		row := Row{
			Number: e.TriggerNumber(),
			Label:  e.Label,
			Path:   model.ResolveSoundPath(soundsDir, e.File),
		}
		if info, err := os.Stat(row.Path); err == nil && !info.IsDir() {
			row.Size = info.Size()
			row.Exists = true
		}
		rows = append(rows, row)
	}
	return rows
}

// Formatter formats catalog rows for output.
type Formatter interface {
	// Format writes formatted rows to the writer.
	Format(w io.Writer, rows []Row) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
)

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string // Custom template for dmenu format
	Separator string // Field separator for dmenu format
	ShowPath  bool   // Include the resolved file path
}

// DefaultFormatterOptions returns sensible defaults for listing.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		Separator: " | ",
		ShowPath:  true,
	}
}
