package vfs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrRangeNotSatisfiable reports a Range header that names no servable
// bytes. Protocol adapters map it to 416 with the total size in
// Content-Range.
var ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")

// ContentRange is a resolved byte range against a known file size. Both
// bounds are inclusive, so Start..End is never empty.
type ContentRange struct {
	Start int64
	End   int64
	Total int64
}

// Length returns the number of bytes the range covers.
func (r ContentRange) Length() int64 {
	return r.End - r.Start + 1
}

// Header renders the Content-Range response header value.
func (r ContentRange) Header() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// ParseRange resolves a Range request header against a file of the given
// size.
//
// Returns (nil, nil) when the whole file should be served: the header is
// empty, uses a unit other than bytes, or is malformed. Malformed ranges
// are ignored rather than rejected, matching the usual HTTP server
// treatment of unparsable Range headers.
//
// Only a single byte range is served:
//
//   - "bytes=a-b"  → [a, min(b, size-1)]
//   - "bytes=a-"   → [a, size-1]
//   - "bytes=-n"   → the final min(n, size) bytes
//   - several ranges, or a start at or past the end of the file
//     → ErrRangeNotSatisfiable
func ParseRange(header string, size int64) (*ContentRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return nil, nil
	}
	if strings.Contains(spec, ",") {
		// Multipart responses are not supported.
		return nil, ErrRangeNotSatisfiable
	}

	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return nil, nil
	}

	var start, end int64
	switch {
	case first == "" && last == "":
		return nil, nil

	case first == "":
		// Suffix range: the final n bytes.
		n, err := parseBytePos(last)
		if err != nil {
			return nil, nil
		}
		if n > size {
			n = size
		}
		start, end = size-n, size-1

	case last == "":
		a, err := parseBytePos(first)
		if err != nil {
			return nil, nil
		}
		start, end = a, size-1

	default:
		a, errA := parseBytePos(first)
		b, errB := parseBytePos(last)
		if errA != nil || errB != nil || b < a {
			return nil, nil
		}
		start, end = a, b
		if end > size-1 {
			end = size - 1
		}
	}

	if start >= size {
		return nil, ErrRangeNotSatisfiable
	}

	return &ContentRange{Start: start, End: end, Total: size}, nil
}

func parseBytePos(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
