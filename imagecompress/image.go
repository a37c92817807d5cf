package imagecompress

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/gobeaver/ingestkit/mediatype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageCompressor resizes and re-encodes standalone raster images.
type ImageCompressor struct {
	base
}

// NewImageCompressor returns a compressor for JPEG, PNG, GIF, BMP, TIFF and
// WebP images.
func NewImageCompressor(opts ...CompressorOption) *ImageCompressor {
	return &ImageCompressor{
		base: base{
			settings: newSettings(opts),
			supported: []mediatype.MediaType{
				mediatype.JPEG,
				mediatype.PNG,
				mediatype.GIF,
				mediatype.BMP,
				mediatype.TIFF,
				mediatype.WebP,
			},
		},
	}
}

// Compress decodes the image in r, fits it within the resolved bounds and
// re-encodes it. Decode and encode failures are returned as *CompressionError.
func (c *ImageCompressor) Compress(filename string, r io.Reader, opts ...Option) (io.Reader, error) {
	p := c.defaults.Resolve(opts...)
	if p.IsIdentity() {
		return r, nil
	}

	img, format, err := image.Decode(r)
	if err != nil {
		return nil, &CompressionError{Filename: filename, Op: "decode", Err: err}
	}

	var buf bytes.Buffer
	out, err := Transform(&buf, img, p)
	if err != nil {
		return nil, &CompressionError{Filename: filename, Op: "encode", Err: err}
	}

	b := img.Bounds()
	c.logger.Debug("image compressed",
		zap.String("filename", filename),
		zap.String("input_format", format),
		zap.String("output_format", string(out)),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("size", buf.Len()),
	)

	return &buf, nil
}
