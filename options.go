package ingestkit

import (
	"github.com/gobeaver/ingestkit/imagecompress"
	"github.com/gobeaver/ingestkit/mediatype"
	"go.uber.org/zap"
)

// Option configures an Ingester
type Option func(*Options)

// Options contains everything an Ingester can be configured with besides
// its Config
type Options struct {
	// Store receives every ingested document. Nil skips persistence.
	Store Store

	// Logger receives stage and completion logs
	Logger *zap.Logger

	// Detector classifies documents. Defaults to a signed-envelope detector
	// over the magic-byte detector.
	Detector mediatype.Detector

	// Compressors replaces the compressors built from Config.Compressors
	Compressors []CompressorEntry

	// Registry resolves extensions and corresponding types when checking
	// accepted types. Defaults to mediatype.DefaultRegistry().
	Registry *mediatype.Registry
}

// CompressorEntry routes the names matched by Selector to Compressor.
type CompressorEntry struct {
	Name       string
	Selector   Selector
	Compressor imagecompress.Compressor
}

// WithStore sets the store documents are persisted to
func WithStore(store Store) Option {
	return func(o *Options) {
		o.Store = store
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithDetector sets the media type detector
func WithDetector(detector mediatype.Detector) Option {
	return func(o *Options) {
		if detector != nil {
			o.Detector = detector
		}
	}
}

// WithRegistry sets the registry used to check accepted types
func WithRegistry(registry *mediatype.Registry) Option {
	return func(o *Options) {
		if registry != nil {
			o.Registry = registry
		}
	}
}

// WithCompressor adds a compressor tried for names matched by selector. The
// first call replaces the configured compressors.
func WithCompressor(name string, selector Selector, compressor imagecompress.Compressor) Option {
	return func(o *Options) {
		if selector == nil {
			selector = All()
		}
		o.Compressors = append(o.Compressors, CompressorEntry{
			Name:       name,
			Selector:   selector,
			Compressor: compressor,
		})
	}
}

// IngestOption configures a single Ingest call
type IngestOption func(*IngestOptions)

// IngestOptions contains per-document settings
type IngestOptions struct {
	// DeclaredSize is the size announced by the sender, -1 if unknown.
	// A declared size over the upload limit is rejected before reading.
	DeclaredSize int64

	// Compression overrides the configured compression parameters
	Compression []imagecompress.Option

	// SkipCompression stores the received bytes unchanged
	SkipCompression bool

	// AcceptedTypes replaces Config.AcceptedTypes for this document
	AcceptedTypes []mediatype.MediaType
}

// WithDeclaredSize sets the size announced by the sender
func WithDeclaredSize(size int64) IngestOption {
	return func(o *IngestOptions) {
		o.DeclaredSize = size
	}
}

// WithCompression overrides compression parameters for one document
func WithCompression(opts ...imagecompress.Option) IngestOption {
	return func(o *IngestOptions) {
		o.Compression = append(o.Compression, opts...)
	}
}

// WithoutCompression stores the received bytes unchanged
func WithoutCompression() IngestOption {
	return func(o *IngestOptions) {
		o.SkipCompression = true
	}
}

// WithAcceptedTypes refuses documents whose detected type is not one of
// types. A generic type such as a plain zip also passes for a corresponding
// type like ASiC-E when the name carries its extension.
func WithAcceptedTypes(types ...mediatype.MediaType) IngestOption {
	return func(o *IngestOptions) {
		o.AcceptedTypes = append(o.AcceptedTypes, types...)
	}
}

func processIngestOptions(options ...IngestOption) *IngestOptions {
	opts := &IngestOptions{DeclaredSize: -1}
	for _, option := range options {
		option(opts)
	}
	return opts
}
