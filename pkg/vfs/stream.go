package vfs

import (
	"fmt"
	"io"
)

// ChunkSize caps how many bytes a single RangeReader.Read pulls from the
// backend, so memory per in-flight download stays bounded no matter how
// large the file or the caller's buffer is.
const ChunkSize = 64 * 1024

// RangeReader streams one contiguous byte window of an open file.
//
// The reader is pull-based and not restartable: bytes are fetched as the
// consumer reads, at most ChunkSize per call, and a window that has been
// consumed cannot be rewound. RangeReader owns the underlying handle from
// construction on and releases it exactly once on Close.
type RangeReader struct {
	src       File
	remaining int64
	closed    bool
}

// NewRangeReader positions src at offset and returns a reader that serves
// the next length bytes. On a failed seek the handle is closed before the
// error is returned, so the caller never inherits an open handle alongside
// an error.
func NewRangeReader(src File, offset, length int64) (*RangeReader, error) {
	if offset > 0 {
		if _, err := src.Seek(offset, io.SeekStart); err != nil {
			src.Close()
			return nil, fmt.Errorf("seek to range start: %w", err)
		}
	}
	return &RangeReader{src: src, remaining: length}, nil
}

func (r *RangeReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}

	limit := int64(len(p))
	if limit > ChunkSize {
		limit = ChunkSize
	}
	if limit > r.remaining {
		limit = r.remaining
	}

	n, err := r.src.Read(p[:limit])
	r.remaining -= int64(n)
	if err == io.EOF && r.remaining > 0 {
		// The file shrank under us mid-stream.
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// Close releases the underlying handle. Safe to call more than once.
func (r *RangeReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}
