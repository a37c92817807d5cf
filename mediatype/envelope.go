package mediatype

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gobeaver/ingestkit/stream"
)

// DefaultEnvelopeHeaderSize is the length of the signature header skipped to
// reach the payload of a signed envelope.
const DefaultEnvelopeHeaderSize = 1024

// SignedEnvelopeDetector reports the type of the payload carried inside a
// signature envelope instead of the envelope type itself, unless the file is
// named as a detached signature.
//
// The delegate sees the payload through a window of at most SniffLength (512)
// bytes following the header, read from a copy. A delegate that needs more
// lookahead than that gets io.EOF at the end of the window.
type SignedEnvelopeDetector struct {
	delegate   Detector
	envelope   MediaType
	registry   *Registry
	headerSize int
}

// EnvelopeOption configures a SignedEnvelopeDetector.
type EnvelopeOption func(*SignedEnvelopeDetector)

// WithHeaderSize overrides DefaultEnvelopeHeaderSize.
func WithHeaderSize(n int) EnvelopeOption {
	return func(d *SignedEnvelopeDetector) {
		if n >= 0 {
			d.headerSize = n
		}
	}
}

// WithEnvelopeType overrides the envelope media type, PKCS7Signature by default.
func WithEnvelopeType(mt MediaType) EnvelopeOption {
	return func(d *SignedEnvelopeDetector) {
		d.envelope = mt
	}
}

// WithEnvelopeRegistry sets the registry that provides the envelope's
// canonical extension.
func WithEnvelopeRegistry(r *Registry) EnvelopeOption {
	return func(d *SignedEnvelopeDetector) {
		d.registry = r
	}
}

// NewSignedEnvelopeDetector wraps delegate.
func NewSignedEnvelopeDetector(delegate Detector, opts ...EnvelopeOption) *SignedEnvelopeDetector {
	d := &SignedEnvelopeDetector{
		delegate:   delegate,
		envelope:   PKCS7Signature,
		registry:   defaultRegistry,
		headerSize: DefaultEnvelopeHeaderSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect implements Detector. The stream is left at its original position.
func (d *SignedEnvelopeDetector) Detect(r stream.MarkReader, filename string) (MediaType, error) {
	mt, err := d.delegate.Detect(r, filename)
	if err != nil {
		return MediaType{}, err
	}
	if !mt.Equal(d.envelope) {
		return mt, nil
	}

	ext := d.registry.CanonicalExtension(d.envelope)
	if ext != "" && strings.EqualFold(filepath.Ext(filename), ext) {
		return mt, nil
	}

	payload, err := d.peekPayload(r)
	if err != nil {
		return MediaType{}, err
	}
	if payload == nil {
		// shorter than the header: nothing to unwrap
		return mt, nil
	}

	return d.delegate.Detect(stream.NewMarkableReader(bytes.NewReader(payload), 0), filename)
}

// peekPayload returns up to SniffLength bytes following the signature header
// and rewinds r. It returns nil when r ends within the header.
func (d *SignedEnvelopeDetector) peekPayload(r stream.MarkReader) ([]byte, error) {
	if !r.MarkSupported() {
		return nil, fmt.Errorf("signed envelope: %w", stream.ErrMarkNotSupported)
	}

	r.Mark(d.headerSize + SniffLength)

	skipped, err := stream.Skip(r, int64(d.headerSize))
	if err != nil && err != io.EOF {
		return nil, err
	}

	var payload []byte
	if skipped == int64(d.headerSize) {
		buf := make([]byte, SniffLength)
		n, err := io.ReadFull(r, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, err
		}
		payload = buf[:n]
	}

	if err := r.Reset(); err != nil {
		return nil, fmt.Errorf("signed envelope: %w", err)
	}
	return payload, nil
}
