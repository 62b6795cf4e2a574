package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundpad/internal/model"
)

func testRows() []Row {
	return []Row{
		{Number: 1, Label: "Airhorn", Path: "/sounds/airhorn.wav", Size: 2048, Exists: true},
		{Number: 2, Label: "Rimshot", Path: "/sounds/rimshot.wav"},
	}
}

func TestRows(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), make([]byte, 100), 0o644))

	catalog, err := model.NewCatalog([]model.SoundEntry{
		{Label: "A", File: "a.wav"},
		{Label: "B", File: "b.wav"},
	})
	require.NoError(t, err)

	rows := Rows(catalog, dir)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Number: 1, Label: "A", Path: filepath.Join(dir, "a.wav"), Size: 100, Exists: true}, rows[0])
	assert.Equal(t, uint64(2), rows[1].Number)
	assert.False(t, rows[1].Exists)
}

func TestDmenuFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	formatter := NewDmenuFormatter(DefaultFormatterOptions())
	require.NoError(t, formatter.Format(&buf, testRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1 | Airhorn", lines[0])
	assert.Equal(t, "2 | Rimshot (missing)", lines[1])
}

func TestDmenuFormatter_Template(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.Template = "{{.Number}}: {{truncate .Label 5}} [{{size .}}]"
	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "1: Ai... [2.0 kB]", lines[0])
	assert.Equal(t, "2: Ri... [missing]", lines[1])
}

func TestDmenuFormatter_InvalidTemplateFallsBack(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.Template = "{{.Number"
	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testRows()[:1]))
	assert.Equal(t, "1 | Airhorn\n", buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, testRows()))

	var rows []Row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, testRows(), rows)
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(DefaultFormatterOptions()).Format(&buf, testRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "LABEL")
	assert.Contains(t, lines[0], "FILE")
	assert.Contains(t, lines[1], "2.0 kB")
	assert.Contains(t, lines[1], "/sounds/airhorn.wav")
	assert.Contains(t, lines[2], "missing")
}

func TestPlainFormatter_NoPath(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(FormatterOptions{}).Format(&buf, testRows()))
	assert.NotContains(t, buf.String(), "FILE")
	assert.NotContains(t, buf.String(), "/sounds/")
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()
	assert.IsType(t, &DmenuFormatter{}, NewFormatter(FormatDmenu, opts))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter(FormatPlain, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("unknown", opts))
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		line    string
		want    uint64
		wantErr bool
	}{
		{"3", 3, false},
		{"3 | Airhorn", 3, false},
		{"  12: Drums\n", 12, false},
		{"| Airhorn", 0, true},
		{"", 0, true},
		{"99999999999999999999999", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSelection(tt.line)
		if tt.wantErr {
			assert.Error(t, err, tt.line)
			continue
		}
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestSearch(t *testing.T) {
	rows := testRows()
	assert.Len(t, Search(rows, ""), 2)
	assert.Len(t, Search(rows, "AIR"), 1)
	assert.Empty(t, Search(rows, "drum"))
}
