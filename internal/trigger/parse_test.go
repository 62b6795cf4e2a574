package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatagram(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    uint64
		wantErr bool
	}{
		{"single digit", []byte("1"), 1, false},
		{"multi digit", []byte("42"), 42, false},
		{"zero parses", []byte("0"), 0, false},
		{"surrounding whitespace", []byte(" 7\n"), 7, false},
		{"max uint64", []byte("18446744073709551615"), ^uint64(0), false},
		{"overflow", []byte("18446744073709551616"), 0, true},
		{"empty", []byte(""), 0, true},
		{"letters", []byte("abc"), 0, true},
		{"negative", []byte("-1"), 0, true},
		{"plus sign", []byte("+1"), 0, true},
		{"decimal", []byte("1.5"), 0, true},
		{"inner space", []byte("1 2"), 0, true},
		{"invalid utf8", []byte{0xff, '1'}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatagram(tt.payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedDatagram)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDatagram(t *testing.T) {
	assert.Equal(t, []byte("12"), FormatDatagram(12))

	id, err := ParseDatagram(FormatDatagram(9001))
	require.NoError(t, err)
	assert.Equal(t, uint64(9001), id)
}
