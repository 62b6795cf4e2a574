package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// PlainFormatter formats rows as an aligned table.
type PlainFormatter struct {
	opts FormatterOptions
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{opts: opts}
}

// Format writes rows as a table with a header line.
func (f *PlainFormatter) Format(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := "#\tLABEL\tSIZE"
	if f.opts.ShowPath {
		header += "\tFILE"
	}
	if _, err := fmt.Fprintln(tw, header); err != nil {
		return err
	}

	for _, r := range rows {
		line := fmt.Sprintf("%d\t%s\t%s", r.Number, r.Label, sizeString(r))
		if f.opts.ShowPath {
			line += "\t" + r.Path
		}
		if _, err := fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// sizeString returns the humanized file size, or "missing".
func sizeString(r Row) string {
	if !r.Exists {
		return "missing"
	}
	return humanize.Bytes(uint64(r.Size))
}
