package ingestkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gobeaver/ingestkit/imagecompress"
	"github.com/gobeaver/ingestkit/mediatype"
	"github.com/gobeaver/ingestkit/stream"
	"go.uber.org/zap"
)

// Result describes one ingested document.
type Result struct {
	Name string

	// MediaType is the detected type of the received bytes. Signed envelopes
	// report the type of their payload.
	MediaType mediatype.MediaType

	// StoredMediaType is the type of the stored bytes. It differs from
	// MediaType when compression changed the image format.
	StoredMediaType mediatype.MediaType

	Algorithm    ChecksumAlgorithm
	Digest       string // digest of the stored bytes
	SourceDigest string // digest of the received bytes
	Size         int64  // stored bytes
	SourceSize   int64  // received bytes

	Compressed bool
	Compressor string // name of the compressor that produced the stored bytes
}

// Ratio returns Size/SourceSize, or 1 for empty documents.
func (r *Result) Ratio() float64 {
	if r.SourceSize == 0 {
		return 1
	}
	return float64(r.Size) / float64(r.SourceSize)
}

// Ingester runs uploads through size checking, digesting, detection and
// compression before handing them to a Store.
type Ingester struct {
	cfg         *Config
	algorithm   ChecksumAlgorithm
	detector    mediatype.Detector
	compressors []CompressorEntry
	store       Store
	logger      *zap.Logger
	registry    *mediatype.Registry
	accepted    []mediatype.MediaType
}

func newIngester(cfg *Config, options ...Option) (*Ingester, error) {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}

	in := &Ingester{
		cfg:       cfg,
		algorithm: ChecksumAlgorithm(cfg.ChecksumAlgorithm),
		detector:  opts.Detector,
		store:     opts.Store,
		logger:    opts.Logger,
		registry:  opts.Registry,
	}
	if in.logger == nil {
		in.logger = zap.NewNop()
	}
	if in.registry == nil {
		in.registry = mediatype.DefaultRegistry()
	}
	accepted, err := cfg.AcceptedMediaTypes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	in.accepted = accepted
	if in.detector == nil {
		in.detector = mediatype.NewSignedEnvelopeDetector(
			mediatype.NewMagicDetector(),
			mediatype.WithHeaderSize(cfg.EnvelopeHeaderSize),
		)
	}

	if len(opts.Compressors) > 0 {
		in.compressors = opts.Compressors
		return in, nil
	}

	for _, name := range cfg.CompressorNames() {
		c, err := CreateCompressor(name, cfg, in.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create compressor: %w", err)
		}
		sel, err := Globs(cfg.Patterns(name)...)
		if err != nil {
			return nil, fmt.Errorf("invalid %s patterns: %w", name, err)
		}
		in.compressors = append(in.compressors, CompressorEntry{Name: name, Selector: sel, Compressor: c})
	}

	return in, nil
}

// Config returns the configuration the ingester was built with.
func (in *Ingester) Config() *Config {
	return in.cfg
}

// Ingest reads r to the end and stores the result under name. The context is
// checked between stages.
func (in *Ingester) Ingest(ctx context.Context, name string, r io.Reader, options ...IngestOption) (*Result, error) {
	opts := processIngestOptions(options...)
	logger := in.logger.With(zap.String("name", name))
	start := time.Now()

	limit := stream.MaxSize(in.cfg.MaxUploadSize)
	if opts.DeclaredSize >= 0 {
		if err := limit(opts.DeclaredSize); err != nil {
			return nil, &PathError{Op: "ingest", Path: name, Err: err}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	guard := stream.NewLengthGuard(stream.NewMarkableReader(r, 0), limit)
	digest, err := NewDigestReader(guard, in.algorithm)
	if err != nil {
		return nil, &PathError{Op: "ingest", Path: name, Err: err}
	}

	// Hashes without snapshot support cannot rewind, so detection sniffs
	// below the digest. The bytes are hashed once they are read for real.
	var sniff stream.MarkReader = digest
	if !digest.MarkSupported() {
		sniff = guard
	}

	mt, err := in.detector.Detect(sniff, name)
	if err != nil {
		return nil, &PathError{Op: "detect", Path: name, Err: err}
	}
	logger.Debug("media type detected", zap.Stringer("media_type", mt))

	acc := acceptance{registry: in.registry, accepted: in.accepted}
	if len(opts.AcceptedTypes) > 0 {
		acc.accepted = opts.AcceptedTypes
	}
	if !acc.allows(mt, name) {
		logger.Warn("media type not accepted", zap.Stringer("media_type", mt))
		return nil, &PathError{
			Op:   "detect",
			Path: name,
			Err:  fmt.Errorf("%w: %s is not accepted; allowed types: %s", ErrNotAllowed, mt, acc.acceptedTypes()),
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(digest)
	if err != nil {
		return nil, &PathError{Op: "read", Path: name, Err: err}
	}

	res := &Result{
		Name:            name,
		MediaType:       mt,
		StoredMediaType: mt,
		Algorithm:       in.algorithm,
		SourceDigest:    digest.DigestHex(),
		SourceSize:      guard.Count(),
	}
	res.Digest = res.SourceDigest
	res.Size = res.SourceSize

	content := body
	if !opts.SkipCompression {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, compressor, err := in.compress(name, body, opts.Compression, logger)
		if err != nil {
			return nil, &PathError{Op: "compress", Path: name, Err: err}
		}
		if compressor != "" {
			content = out
			res.Compressed = true
			res.Compressor = compressor
			res.Size = int64(len(out))
			res.StoredMediaType = mediatype.DetectBytes(out)
			if res.Digest, err = CalculateChecksum(bytes.NewReader(out), in.algorithm); err != nil {
				return nil, &PathError{Op: "digest", Path: name, Err: err}
			}
		}
	}

	if in.store != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := &Document{
			Name:      name,
			MediaType: res.StoredMediaType,
			Algorithm: res.Algorithm,
			Digest:    res.Digest,
			Size:      res.Size,
			Content:   content,
			Created:   time.Now(),
		}
		if err := in.store.Put(ctx, doc); err != nil {
			return nil, err
		}
	}

	logger.Info("document ingested",
		zap.Stringer("media_type", res.MediaType),
		zap.String("digest", res.Digest),
		zap.Int64("size", res.Size),
		zap.Int64("source_size", res.SourceSize),
		zap.String("compressor", res.Compressor),
		zap.Duration("elapsed", time.Since(start)),
	)

	return res, nil
}

// compress runs body through the first compressor that selects name and
// accepts the content. It returns an empty compressor name when the body is
// kept as received.
func (in *Ingester) compress(name string, body []byte, params []imagecompress.Option, logger *zap.Logger) ([]byte, string, error) {
	for _, entry := range in.compressors {
		if !entry.Selector.Match(name) {
			continue
		}

		r := stream.NewMarkableReader(bytes.NewReader(body), 0)
		ok, err := entry.Compressor.CanCompress(name, int64(len(body)), r)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			logger.Debug("compressor declined", zap.String("compressor", entry.Name))
			continue
		}

		compressed, err := entry.Compressor.Compress(name, r, params...)
		if err != nil {
			return nil, "", err
		}
		out, err := io.ReadAll(compressed)
		if err != nil {
			return nil, "", err
		}
		if bytes.Equal(out, body) {
			logger.Debug("compression left document unchanged", zap.String("compressor", entry.Name))
			return body, "", nil
		}

		logger.Debug("document compressed",
			zap.String("compressor", entry.Name),
			zap.Int("size_before", len(body)),
			zap.Int("size_after", len(out)),
		)
		return out, entry.Name, nil
	}
	return body, "", nil
}
