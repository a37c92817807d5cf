package ingestkit

import (
	"fmt"
	"strings"

	"github.com/gobeaver/beaver-kit/config"
	"github.com/gobeaver/ingestkit/imagecompress"
	"github.com/gobeaver/ingestkit/mediatype"
	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
)

// Defaults for the list settings. Their values contain commas, so they are
// applied in code instead of in the struct tags.
const (
	DefaultCompressors   = "image,pdf"
	DefaultImagePatterns = "*.{jpg,jpeg,jpe,png,gif,bmp,tif,tiff,webp}"
	DefaultPDFPatterns   = "*.pdf"
)

// Config defines ingest configuration
type Config struct {
	// Image compression defaults
	ImageMaxWidth           int   `env:"INGESTKIT_IMAGE_MAX_WIDTH,default:1920"`
	ImageMaxHeight          int   `env:"INGESTKIT_IMAGE_MAX_HEIGHT,default:1920"`
	CompressionQuality      int   `env:"INGESTKIT_COMPRESSION_QUALITY,default:80"`
	MinCompressibleFileSize int64 `env:"INGESTKIT_MIN_COMPRESSIBLE_FILE_SIZE,default:102400"` // 100KB

	// Upload limits and integrity
	MaxUploadSize     int64  `env:"INGESTKIT_MAX_UPLOAD_SIZE,default:52428800"` // 50MB, 0 = unlimited
	ChecksumAlgorithm string `env:"INGESTKIT_CHECKSUM_ALGORITHM,default:sha256"`

	// Signed envelope detection
	EnvelopeHeaderSize int `env:"INGESTKIT_ENVELOPE_HEADER_SIZE,default:1024"`

	// Compressor selection, comma-separated
	Compressors   string `env:"INGESTKIT_COMPRESSORS"`
	ImagePatterns string `env:"INGESTKIT_IMAGE_PATTERNS"`
	PDFPatterns   string `env:"INGESTKIT_PDF_PATTERNS"`

	// Media types admitted by Ingest, comma-separated. Empty admits all.
	AcceptedTypes string `env:"INGESTKIT_ACCEPTED_TYPES"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parameters returns the image compression defaults as compressor
// parameters.
func (c *Config) Parameters() imagecompress.Parameters {
	return imagecompress.Parameters{
		MaxWidth:  c.ImageMaxWidth,
		MaxHeight: c.ImageMaxHeight,
		Quality:   c.CompressionQuality,
	}
}

// CompressorNames returns the enabled compressor names in order.
func (c *Config) CompressorNames() []string {
	return splitList(c.Compressors, DefaultCompressors)
}

// Patterns returns the filename globs routed to the named compressor. Names
// without configured patterns match every file.
func (c *Config) Patterns(name string) []string {
	switch name {
	case "image":
		return splitList(c.ImagePatterns, DefaultImagePatterns)
	case "pdf":
		return splitList(c.PDFPatterns, DefaultPDFPatterns)
	default:
		return []string{"*"}
	}
}

// AcceptedMediaTypes parses AcceptedTypes. Wildcards such as "image/*" are
// kept as given.
func (c *Config) AcceptedMediaTypes() ([]mediatype.MediaType, error) {
	var types []mediatype.MediaType
	for _, item := range splitList(c.AcceptedTypes, "") {
		mt, err := mediatype.Parse(item)
		if err != nil {
			return nil, err
		}
		types = append(types, mt)
	}
	return types, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.ImageMaxWidth < 0 {
		result = multierror.Append(result, fmt.Errorf("image max width must not be negative: %d", c.ImageMaxWidth))
	}
	if c.ImageMaxHeight < 0 {
		result = multierror.Append(result, fmt.Errorf("image max height must not be negative: %d", c.ImageMaxHeight))
	}
	if c.CompressionQuality > 100 {
		result = multierror.Append(result, fmt.Errorf("compression quality must be at most 100: %d", c.CompressionQuality))
	}
	if c.MinCompressibleFileSize < 0 {
		result = multierror.Append(result, fmt.Errorf("min compressible file size must not be negative: %d", c.MinCompressibleFileSize))
	}
	if c.MaxUploadSize < 0 {
		result = multierror.Append(result, fmt.Errorf("max upload size must not be negative: %d", c.MaxUploadSize))
	}
	if c.EnvelopeHeaderSize < 0 {
		result = multierror.Append(result, fmt.Errorf("envelope header size must not be negative: %d", c.EnvelopeHeaderSize))
	}
	if _, err := NewHasher(ChecksumAlgorithm(c.ChecksumAlgorithm)); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := c.AcceptedMediaTypes(); err != nil {
		result = multierror.Append(result, fmt.Errorf("accepted types: %w", err))
	}

	for _, name := range c.CompressorNames() {
		if !compressorRegistered(name) {
			result = multierror.Append(result, fmt.Errorf("%w: compressor %q", ErrNotSupported, name))
			continue
		}
		for _, pattern := range c.Patterns(name) {
			if _, err := glob.Compile(pattern); err != nil {
				result = multierror.Append(result, fmt.Errorf("invalid %s pattern %q: %w", name, pattern, err))
			}
		}
	}

	return result.ErrorOrNil()
}

// splitList splits a comma-separated setting, leaving commas inside glob
// braces alone. An empty setting yields the split of def.
func splitList(s, def string) []string {
	if strings.TrimSpace(s) == "" {
		s = def
	}

	var (
		items []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				items = appendItem(items, s[start:i])
				start = i + 1
			}
		}
	}
	return appendItem(items, s[start:])
}

func appendItem(items []string, item string) []string {
	if item = strings.TrimSpace(item); item != "" {
		items = append(items, item)
	}
	return items
}
