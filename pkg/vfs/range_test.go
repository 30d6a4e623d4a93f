package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	const size = 1000

	tests := []struct {
		name   string
		header string
		want   *ContentRange
	}{
		{"bounded", "bytes=0-499", &ContentRange{0, 499, size}},
		{"interior", "bytes=500-999", &ContentRange{500, 999, size}},
		{"single byte", "bytes=42-42", &ContentRange{42, 42, size}},
		{"end clamped to size", "bytes=900-5000", &ContentRange{900, 999, size}},
		{"open ended", "bytes=200-", &ContentRange{200, 999, size}},
		{"suffix", "bytes=-100", &ContentRange{900, 999, size}},
		{"suffix longer than file", "bytes=-5000", &ContentRange{0, 999, size}},
		{"surrounding whitespace", " bytes=0-0 ", &ContentRange{0, 0, size}},

		// Malformed headers fall back to the whole file.
		{"empty", "", nil},
		{"wrong unit", "items=0-10", nil},
		{"no spec", "bytes=", nil},
		{"bare dash", "bytes=-", nil},
		{"garbage start", "bytes=abc-10", nil},
		{"garbage end", "bytes=10-xyz", nil},
		{"inverted", "bytes=500-100", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeUnsatisfiable(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
	}{
		{"start at size", "bytes=1000-", 1000},
		{"start past size", "bytes=2000-3000", 1000},
		{"multiple ranges", "bytes=0-10,20-30", 1000},
		{"empty file", "bytes=0-", 0},
		{"suffix on empty file", "bytes=-10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			assert.ErrorIs(t, err, ErrRangeNotSatisfiable)
			assert.Nil(t, got)
		})
	}
}

func TestContentRangeHeader(t *testing.T) {
	r := ContentRange{Start: 100, End: 199, Total: 1000}
	assert.Equal(t, "bytes 100-199/1000", r.Header())
	assert.Equal(t, int64(100), r.Length())
}
