package imagecompress

import "image/jpeg"

// Unset marks a quality that was not specified.
const Unset = -1

// DefaultQuality is used for JPEG output when a resize is requested without
// an explicit quality.
const DefaultQuality = jpeg.DefaultQuality

// Parameters are resolved compression settings. MaxWidth and MaxHeight of 0
// leave that dimension unconstrained. A negative Quality means unspecified.
type Parameters struct {
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
	Quality   int `yaml:"quality"`
}

// DefaultParameters constrain nothing.
func DefaultParameters() Parameters {
	return Parameters{Quality: Unset}
}

// IsIdentity reports whether p leaves images untouched.
func (p Parameters) IsIdentity() bool {
	return p.MaxWidth <= 0 && p.MaxHeight <= 0 && p.Quality < 0
}

// Overrides holds per-call values. Nil fields keep the compressor default.
type Overrides struct {
	MaxWidth  *int `yaml:"max_width"`
	MaxHeight *int `yaml:"max_height"`
	Quality   *int `yaml:"quality"`
}

// Option sets a per-call override.
type Option func(*Overrides)

// WithMaxWidth overrides the maximum width.
func WithMaxWidth(w int) Option {
	return func(o *Overrides) {
		o.MaxWidth = &w
	}
}

// WithMaxHeight overrides the maximum height.
func WithMaxHeight(h int) Option {
	return func(o *Overrides) {
		o.MaxHeight = &h
	}
}

// WithQuality overrides the output quality (0-100).
func WithQuality(q int) Option {
	return func(o *Overrides) {
		o.Quality = &q
	}
}

// WithOverrides applies every non-nil field of ov.
func WithOverrides(ov Overrides) Option {
	return func(o *Overrides) {
		if ov.MaxWidth != nil {
			o.MaxWidth = ov.MaxWidth
		}
		if ov.MaxHeight != nil {
			o.MaxHeight = ov.MaxHeight
		}
		if ov.Quality != nil {
			o.Quality = ov.Quality
		}
	}
}

// Resolve applies opts on top of p.
func (p Parameters) Resolve(opts ...Option) Parameters {
	var ov Overrides
	for _, opt := range opts {
		opt(&ov)
	}

	if ov.MaxWidth != nil {
		p.MaxWidth = *ov.MaxWidth
	}
	if ov.MaxHeight != nil {
		p.MaxHeight = *ov.MaxHeight
	}
	if ov.Quality != nil {
		p.Quality = *ov.Quality
	}

	if p.MaxWidth < 0 {
		p.MaxWidth = 0
	}
	if p.MaxHeight < 0 {
		p.MaxHeight = 0
	}
	if p.Quality > 100 {
		p.Quality = 100
	}
	return p
}
