package stream

import (
	"errors"
	"io"
)

// Common size units
const (
	KB int64 = 1 << 10
	MB int64 = 1 << 20
	GB int64 = 1 << 30
)

// Mark/reset errors
var (
	ErrMarkNotSupported = errors.New("mark/reset not supported")
	ErrResetWithoutMark = errors.New("reset without mark")
	ErrMarkInvalidated  = errors.New("mark invalidated: read limit exceeded")
)

// MarkReader is a reader that can bookmark its current position and later
// rewind to it.
type MarkReader interface {
	io.Reader

	// Mark remembers the current position. Reading more than readLimit bytes
	// past the mark may invalidate it.
	Mark(readLimit int)

	// Reset rewinds to the most recent mark.
	Reset() error

	// MarkSupported reports whether Mark and Reset work for this reader.
	MarkSupported() bool
}

// Skipper is implemented by readers that can discard bytes themselves.
type Skipper interface {
	Skip(n int64) (int64, error)
}

// Skip discards up to n bytes from r and returns how many were discarded.
// If fewer than n bytes were available the error is io.EOF.
func Skip(r io.Reader, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	if s, ok := r.(Skipper); ok {
		return s.Skip(n)
	}
	return io.CopyN(io.Discard, r, n)
}

// markSupported reports whether r is a MarkReader that supports marking.
func markSupported(r io.Reader) (MarkReader, bool) {
	m, ok := r.(MarkReader)
	if !ok || !m.MarkSupported() {
		return nil, false
	}
	return m, true
}

// readByte reads a single byte from r, using io.ByteReader when available.
func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n == 1 {
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}
