package stream

import (
	"crypto/sha256"
	"encoding"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// DigestReader feeds every byte it delivers into a running hash.
type DigestReader struct {
	r        io.Reader
	h        hash.Hash
	snapshot []byte
}

// NewDigestReader wraps r with a SHA-256 DigestReader.
func NewDigestReader(r io.Reader) *DigestReader {
	return NewDigestReaderWithHash(r, sha256.New())
}

// NewDigestReaderWithHash wraps r with a DigestReader using h.
func NewDigestReaderWithHash(r io.Reader, h hash.Hash) *DigestReader {
	return &DigestReader{r: r, h: h}
}

// Read implements io.Reader.
func (d *DigestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n > 0 {
		d.h.Write(p[:n])
	}
	return n, err
}

// ReadByte implements io.ByteReader.
func (d *DigestReader) ReadByte() (byte, error) {
	b, err := readByte(d.r)
	if err != nil {
		return 0, err
	}
	d.h.Write([]byte{b})
	return b, nil
}

// Skip reads and hashes up to n bytes, discarding them.
func (d *DigestReader) Skip(n int64) (int64, error) {
	return io.CopyN(io.Discard, readerOnly{d}, n)
}

// Digest returns the hash of the bytes consumed since the last call and
// resets the hash.
func (d *DigestReader) Digest() []byte {
	sum := d.h.Sum(nil)
	d.h.Reset()
	return sum
}

// DigestHex is Digest encoded as lowercase hex.
func (d *DigestReader) DigestHex() string {
	return hex.EncodeToString(d.Digest())
}

// Mark snapshots the hash state and marks the underlying reader. It does
// nothing when MarkSupported is false.
func (d *DigestReader) Mark(readLimit int) {
	m, ok := markSupported(d.r)
	if !ok {
		return
	}
	marshaler, ok := d.h.(encoding.BinaryMarshaler)
	if !ok {
		return
	}
	state, err := marshaler.MarshalBinary()
	if err != nil {
		return
	}
	d.snapshot = state
	m.Mark(readLimit)
}

// Reset rewinds the underlying reader and restores the hash to the last
// snapshot, or to its empty state if Mark was never honoured.
func (d *DigestReader) Reset() error {
	if !d.MarkSupported() {
		return ErrMarkNotSupported
	}
	m, _ := markSupported(d.r)
	if err := m.Reset(); err != nil {
		return err
	}
	if d.snapshot == nil {
		d.h.Reset()
		return nil
	}
	if err := d.h.(encoding.BinaryUnmarshaler).UnmarshalBinary(d.snapshot); err != nil {
		return fmt.Errorf("restore hash state: %w", err)
	}
	return nil
}

// MarkSupported reports whether both the underlying reader and the hash
// support snapshots.
func (d *DigestReader) MarkSupported() bool {
	if _, ok := markSupported(d.r); !ok {
		return false
	}
	_, canMarshal := d.h.(encoding.BinaryMarshaler)
	_, canUnmarshal := d.h.(encoding.BinaryUnmarshaler)
	return canMarshal && canUnmarshal
}
