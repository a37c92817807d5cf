package imagecompress

import (
	"io"

	"github.com/gobeaver/ingestkit/mediatype"
	"github.com/gobeaver/ingestkit/stream"
	"go.uber.org/zap"
)

// Compressor shrinks documents of the media types it supports.
type Compressor interface {
	// CanCompress reports whether the content of r is worth compressing. It
	// leaves r at its original position.
	CanCompress(filename string, size int64, r stream.MarkReader) (bool, error)

	// Compress returns the compressed content of r. With identity parameters
	// it returns r itself.
	Compress(filename string, r io.Reader, opts ...Option) (io.Reader, error)
}

// CompressorOption configures a compressor at construction.
type CompressorOption func(*settings)

type settings struct {
	defaults Parameters
	minSize  int64
	detector mediatype.Detector
	logger   *zap.Logger
}

func newSettings(opts []CompressorOption) settings {
	s := settings{
		defaults: DefaultParameters(),
		detector: mediatype.NewMagicDetector(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithDefaults sets the parameters used when a call does not override them.
func WithDefaults(p Parameters) CompressorOption {
	return func(s *settings) {
		s.defaults = p.Resolve()
	}
}

// WithMinSize sets the size below which CanCompress refuses without sniffing.
func WithMinSize(n int64) CompressorOption {
	return func(s *settings) {
		s.minSize = n
	}
}

// WithDetector sets the detector used by CanCompress.
func WithDetector(d mediatype.Detector) CompressorOption {
	return func(s *settings) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) CompressorOption {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// base holds the behaviour shared by all strategies.
type base struct {
	settings
	supported []mediatype.MediaType
}

func (b *base) CanCompress(filename string, size int64, r stream.MarkReader) (bool, error) {
	if size < b.minSize {
		return false, nil
	}
	mt, err := b.detector.Detect(r, filename)
	if err != nil {
		return false, err
	}
	return b.Supports(mt), nil
}

// Supports reports whether mt is handled by the strategy.
func (b *base) Supports(mt mediatype.MediaType) bool {
	for _, s := range b.supported {
		if s.Equal(mt) {
			return true
		}
	}
	return false
}

// Defaults returns the construction-time parameters.
func (b *base) Defaults() Parameters {
	return b.defaults
}
