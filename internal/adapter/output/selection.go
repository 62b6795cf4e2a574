package output

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrNoSelection is returned when a selection line carries no trigger number.
var ErrNoSelection = errors.New("no sound number in selection")

// ParseSelection extracts the trigger number from a line written by
// DmenuFormatter, or from a bare number.
func ParseSelection(line string) (uint64, error) {
	line = strings.TrimSpace(line)
	end := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(line)
	}
	if end == 0 {
		return 0, ErrNoSelection
	}
	n, err := strconv.ParseUint(line[:end], 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Search returns rows whose label contains term, case-insensitively.
func Search(rows []Row, term string) []Row {
	if term == "" {
		return rows
	}

	term = strings.ToLower(term)
	var result []Row
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Label), term) {
			result = append(result, r)
		}
	}
	return result
}
