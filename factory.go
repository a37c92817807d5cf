package ingestkit

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gobeaver/ingestkit/imagecompress"
	"github.com/gobeaver/ingestkit/mediatype"
	"go.uber.org/zap"
)

// CompressorFactory is a function that creates a Compressor from a config
type CompressorFactory func(cfg *Config, logger *zap.Logger) (imagecompress.Compressor, error)

var (
	compressorFactories = make(map[string]CompressorFactory)
	factoryMutex        sync.RWMutex
)

func init() {
	RegisterCompressor("image", func(cfg *Config, logger *zap.Logger) (imagecompress.Compressor, error) {
		return imagecompress.NewImageCompressor(compressorOptions(cfg, logger)...), nil
	})
	RegisterCompressor("pdf", func(cfg *Config, logger *zap.Logger) (imagecompress.Compressor, error) {
		return imagecompress.NewPDFCompressor(compressorOptions(cfg, logger)...), nil
	})
}

// RegisterCompressor registers a compressor factory function
func RegisterCompressor(name string, factory CompressorFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	compressorFactories[name] = factory
}

// CreateCompressor creates the named compressor from config
func CreateCompressor(name string, cfg *Config, logger *zap.Logger) (imagecompress.Compressor, error) {
	factoryMutex.RLock()
	factory, exists := compressorFactories[name]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("compressor %s not registered", name)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return factory(cfg, logger)
}

// RegisteredCompressors returns the registered compressor names, sorted.
func RegisteredCompressors() []string {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()

	names := make([]string, 0, len(compressorFactories))
	for name := range compressorFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func compressorRegistered(name string) bool {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()
	_, ok := compressorFactories[name]
	return ok
}

// compressorOptions maps config onto the built-in compressors. They sniff
// with the plain magic detector, so signed envelopes are never compressed.
func compressorOptions(cfg *Config, logger *zap.Logger) []imagecompress.CompressorOption {
	return []imagecompress.CompressorOption{
		imagecompress.WithDefaults(cfg.Parameters()),
		imagecompress.WithMinSize(cfg.MinCompressibleFileSize),
		imagecompress.WithDetector(mediatype.NewMagicDetector()),
		imagecompress.WithLogger(logger.Named("compress")),
	}
}
