package stream

import (
	"io"
)

// MarkableReader adds mark/reset to any io.Reader by recording the bytes read
// after a mark and replaying them after Reset.
//
// The recording buffer grows up to the read limit passed to Mark. Reading past
// the limit drops the recording and invalidates the mark.
type MarkableReader struct {
	r       io.Reader
	buf     []byte // bytes recorded since the mark
	pos     int    // replay position in buf
	limit   int
	marked  bool
	invalid bool
}

// NewMarkableReader returns a MarkableReader reading from r. size is the
// initial capacity of the recording buffer.
func NewMarkableReader(r io.Reader, size int) *MarkableReader {
	if m, ok := r.(*MarkableReader); ok {
		return m
	}
	if size < 0 {
		size = 0
	}
	return &MarkableReader{r: r, buf: make([]byte, 0, size)}
}

// Read implements io.Reader.
func (m *MarkableReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	// Replay recorded bytes first
	if m.pos < len(m.buf) {
		n := copy(p, m.buf[m.pos:])
		m.pos += n
		return n, nil
	}

	n, err := m.r.Read(p)
	if n > 0 {
		m.record(p[:n])
	}
	return n, err
}

func (m *MarkableReader) record(p []byte) {
	if !m.marked {
		m.buf = m.buf[:0]
		m.pos = 0
		return
	}
	if len(m.buf)+len(p) > m.limit {
		m.marked = false
		m.invalid = true
		m.buf = m.buf[:0]
		m.pos = 0
		return
	}
	m.buf = append(m.buf, p...)
	m.pos = len(m.buf)
}

// ReadByte implements io.ByteReader.
func (m *MarkableReader) ReadByte() (byte, error) {
	return readByte(readerOnly{m})
}

// Skip discards up to n bytes. Skipped bytes are recorded like read bytes so
// that Reset can rewind over them.
func (m *MarkableReader) Skip(n int64) (int64, error) {
	return io.CopyN(io.Discard, readerOnly{m}, n)
}

// Mark remembers the current position. Bytes that were replayed but not yet
// consumed stay buffered and become part of the new recording.
func (m *MarkableReader) Mark(readLimit int) {
	if m.pos < len(m.buf) {
		tail := m.buf[m.pos:]
		m.buf = append(m.buf[:0], tail...)
	} else {
		m.buf = m.buf[:0]
	}
	m.pos = 0
	if readLimit < len(m.buf) {
		readLimit = len(m.buf)
	}
	m.limit = readLimit
	m.marked = true
	m.invalid = false
}

// Reset rewinds to the last mark.
func (m *MarkableReader) Reset() error {
	if !m.marked {
		if m.invalid {
			return ErrMarkInvalidated
		}
		return ErrResetWithoutMark
	}
	m.pos = 0
	return nil
}

// MarkSupported always returns true.
func (m *MarkableReader) MarkSupported() bool {
	return true
}

// readerOnly hides every method but Read so io.Copy cannot bypass it.
type readerOnly struct {
	io.Reader
}
