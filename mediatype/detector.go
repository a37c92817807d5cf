package mediatype

import (
	"fmt"
	"io"

	"github.com/gobeaver/ingestkit/stream"
)

// SniffLength is the number of leading bytes inspected by MagicDetector.
const SniffLength = 512

// Detector determines the media type of a stream. Implementations must leave
// the stream at the position it had when Detect was called.
type Detector interface {
	Detect(r stream.MarkReader, filename string) (MediaType, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(r stream.MarkReader, filename string) (MediaType, error)

// Detect calls f(r, filename).
func (f DetectorFunc) Detect(r stream.MarkReader, filename string) (MediaType, error) {
	return f(r, filename)
}

// MagicDetector classifies content by magic bytes. When the content alone is
// not conclusive the filename extension decides.
type MagicDetector struct {
	registry *Registry
}

// MagicOption configures a MagicDetector.
type MagicOption func(*MagicDetector)

// WithRegistry sets the registry consulted for filename extensions.
func WithRegistry(r *Registry) MagicOption {
	return func(d *MagicDetector) {
		d.registry = r
	}
}

// NewMagicDetector returns a MagicDetector using the default registry unless
// configured otherwise.
func NewMagicDetector(opts ...MagicOption) *MagicDetector {
	d := &MagicDetector{registry: defaultRegistry}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect implements Detector.
func (d *MagicDetector) Detect(r stream.MarkReader, filename string) (MediaType, error) {
	head, err := Sniff(r, SniffLength)
	if err != nil {
		return MediaType{}, err
	}

	mt := DetectBytes(head)
	if filename == "" || (!mt.Equal(OctetStream) && !mt.Equal(TextPlain)) {
		return mt, nil
	}

	byName, ok := d.registry.ForFilename(filename)
	if !ok {
		return mt, nil
	}
	if mt.Equal(OctetStream) || byName.Type == "text" || byName.Subtype == "json" || byName.Subtype == "xml" {
		return byName, nil
	}
	return mt, nil
}

// Sniff reads up to n leading bytes from r and rewinds it.
func Sniff(r stream.MarkReader, n int) ([]byte, error) {
	if !r.MarkSupported() {
		return nil, fmt.Errorf("sniff: %w", stream.ErrMarkNotSupported)
	}

	r.Mark(n)
	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	if err := r.Reset(); err != nil {
		return nil, err
	}
	return buf[:read], nil
}
