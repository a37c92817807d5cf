package stream

import (
	"errors"
	"fmt"
	"io"
)

// ErrSizeLimitExceeded is returned when a stream grows past its size ceiling.
var ErrSizeLimitExceeded = errors.New("size limit exceeded")

// SizeLimitError records the ceiling and the cumulative size that broke it.
type SizeLimitError struct {
	Limit int64
	Size  int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("size limit exceeded: %d bytes read (max: %d bytes)", e.Size, e.Limit)
}

func (e *SizeLimitError) Unwrap() error {
	return ErrSizeLimitExceeded
}

// Validator inspects the cumulative number of bytes read so far. A non-nil
// error aborts the read that produced the count.
type Validator func(total int64) error

// MaxSize returns a Validator that fails once more than limit bytes have been
// read. A limit of zero or less accepts any size.
func MaxSize(limit int64) Validator {
	return func(total int64) error {
		if limit > 0 && total > limit {
			return &SizeLimitError{Limit: limit, Size: total}
		}
		return nil
	}
}

// LengthGuard counts the bytes delivered by the underlying reader and runs a
// Validator after every read.
type LengthGuard struct {
	r        io.Reader
	validate Validator
	count    int64
	mark     int64
}

// NewLengthGuard wraps r. A nil validate only counts.
func NewLengthGuard(r io.Reader, validate Validator) *LengthGuard {
	return &LengthGuard{
		r:        r,
		validate: validate,
		mark:     -1,
	}
}

// Read implements io.Reader. When the validator rejects the new total its error
// is returned together with the bytes already delivered by this call.
func (g *LengthGuard) Read(p []byte) (int, error) {
	n, err := g.r.Read(p)
	if n > 0 {
		if verr := g.add(int64(n)); verr != nil {
			return n, verr
		}
	}
	return n, err
}

// ReadByte implements io.ByteReader. Every byte delivered counts, zero included.
func (g *LengthGuard) ReadByte() (byte, error) {
	b, err := readByte(g.r)
	if err != nil {
		return 0, err
	}
	if verr := g.add(1); verr != nil {
		return b, verr
	}
	return b, nil
}

// Skip discards up to n bytes from the underlying reader and counts them.
func (g *LengthGuard) Skip(n int64) (int64, error) {
	skipped, err := Skip(g.r, n)
	if skipped > 0 {
		if verr := g.add(skipped); verr != nil {
			return skipped, verr
		}
	}
	return skipped, err
}

func (g *LengthGuard) add(n int64) error {
	g.count += n
	if g.validate == nil {
		return nil
	}
	return g.validate(g.count)
}

// Count returns the number of bytes delivered so far.
func (g *LengthGuard) Count() int64 {
	return g.count
}

// Mark snapshots the counter and marks the underlying reader.
func (g *LengthGuard) Mark(readLimit int) {
	m, ok := markSupported(g.r)
	if !ok {
		return
	}
	g.mark = g.count
	m.Mark(readLimit)
}

// Reset rewinds the underlying reader and restores the counter snapshot.
func (g *LengthGuard) Reset() error {
	m, ok := markSupported(g.r)
	if !ok {
		return ErrMarkNotSupported
	}
	if err := m.Reset(); err != nil {
		return err
	}
	if g.mark >= 0 {
		g.count = g.mark
	}
	return nil
}

// MarkSupported reports whether the underlying reader supports marking.
func (g *LengthGuard) MarkSupported() bool {
	_, ok := markSupported(g.r)
	return ok
}
