package ingestkit

import (
	"fmt"
	"sync"

	"github.com/gobeaver/beaver-kit/config"
)

// Global instance
var (
	defaultIngester *Ingester
	defaultOnce     sync.Once
	defaultErr      error
)

// Builder provides a way to create Ingester instances with custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global Ingester instance using the builder's prefix
func (b *Builder) Init(options ...Option) error {
	cfg, err := b.Config()
	if err != nil {
		return err
	}
	return Init(cfg, options...)
}

// New creates a new Ingester instance using the builder's prefix
func (b *Builder) New(options ...Option) (*Ingester, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return New(cfg, options...)
}

// Config loads the configuration using the builder's prefix
func (b *Builder) Config() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init initializes the global ingester. A nil cfg loads it from the
// environment.
func Init(cfg *Config, options ...Option) error {
	defaultOnce.Do(func() {
		if cfg == nil {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultIngester, defaultErr = New(cfg, options...)
	})

	return defaultErr
}

// New creates a new ingester with given config
func New(cfg *Config, options ...Option) (*Ingester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return newIngester(cfg, options...)
}

// Default returns the global instance, initializing it from the environment
// if needed
func Default() (*Ingester, error) {
	if defaultIngester == nil {
		if err := Init(nil); err != nil {
			return nil, err
		}
	}
	return defaultIngester, nil
}

// NewFromEnv creates an ingester from environment variables
func NewFromEnv(options ...Option) (*Ingester, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, options...)
}

// Reset clears the global instance (for testing)
func Reset() {
	defaultIngester = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}
