// Package trigger receives remote trigger numbers over UDP and dispatches
// them to the player one at a time.
//
// The wire protocol is a single UDP datagram per trigger carrying the
// 1-based sound number as decimal text, e.g. "3". Anything that does not
// parse is dropped without a reply.
package trigger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxDatagramSize is the largest datagram read; longer payloads are truncated.
const MaxDatagramSize = 1024

// Errors returned by the trigger listener.
var (
	ErrBind              = errors.New("failed to bind trigger socket")
	ErrSocketReceive     = errors.New("trigger socket receive failed")
	ErrMalformedDatagram = errors.New("malformed trigger datagram")
	ErrNotBound          = errors.New("trigger listener is not bound")
)

// ParseDatagram decodes a datagram payload into a trigger number.
// Invalid UTF-8 is replaced before parsing and surrounding whitespace is ignored.
func ParseDatagram(payload []byte) (uint64, error) {
	text := strings.TrimSpace(strings.ToValidUTF8(string(payload), "\uFFFD"))
	id, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDatagram, truncate(text, 32))
	}
	return id, nil
}

// FormatDatagram encodes a trigger number as a datagram payload.
func FormatDatagram(id uint64) []byte {
	return strconv.AppendUint(nil, id, 10)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
