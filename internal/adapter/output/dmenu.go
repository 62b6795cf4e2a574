package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
)

// DmenuFormatter formats rows for dmenu/rofi/fuzzel, one per line.
// Lines start with the trigger number so a selection can be fed back to
// "soundpad play -".
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes rows in dmenu format.
func (f *DmenuFormatter) Format(w io.Writer, rows []Row) error {
	for i := range rows {
		if _, err := fmt.Fprintln(w, f.formatLine(&rows[i])); err != nil {
			return err
		}
	}
	return nil
}

func (f *DmenuFormatter) formatLine(r *Row) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, r); err == nil {
			return buf.String()
		}
	}

	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	label := r.Label
	if !r.Exists {
		label += " (missing)"
	}
	return strconv.FormatUint(r.Number, 10) + sep + label
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"size": func(r *Row) string {
			return sizeString(*r)
		},
	}
}
