package imagecompress

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// Format is an output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Encode writes img to w. Images with an alpha channel are written as PNG and
// quality is ignored. Other images are flattened onto white and written as
// JPEG at quality, or DefaultQuality when quality is negative.
func Encode(w io.Writer, img image.Image, quality int) (Format, error) {
	return encode(w, img, HasAlpha(img), quality)
}

func encode(w io.Writer, img image.Image, alpha bool, quality int) (Format, error) {
	if alpha {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return FormatPNG, enc.Encode(w, img)
	}
	return FormatJPEG, encodeJPEG(w, img, quality)
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	switch img.(type) {
	case *image.Gray, *image.YCbCr, *image.CMYK:
		// nothing to flatten
	default:
		img = flatten(img)
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality(quality)})
}

// Transform resizes img according to p and encodes the result. The output
// format follows the source image, since resampling always yields NRGBA.
func Transform(w io.Writer, img image.Image, p Parameters) (Format, error) {
	return encode(w, Resize(img, p), HasAlpha(img), p.Quality)
}

// flatten draws img onto an opaque white canvas.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// QualityFactor maps a 0-100 quality onto 0.0-1.0.
func QualityFactor(quality int) float64 {
	if quality < 0 {
		quality = DefaultQuality
	}
	return math.Min(float64(quality), 100) / 100
}

func jpegQuality(quality int) int {
	q := int(math.Round(QualityFactor(quality) * 100))
	return min(max(q, 1), 100)
}

// HasAlpha reports whether img has an alpha channel. Non-premultiplied
// models always do, even when every pixel is opaque. Decoders return
// *image.RGBA for sources without alpha, so premultiplied images count only
// when a pixel is translucent.
func HasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return true
	case *image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK:
		return false
	case *image.RGBA:
		return !m.Opaque()
	case *image.RGBA64:
		return !m.Opaque()
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	}

	switch img.ColorModel() {
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel, color.AlphaModel, color.Alpha16Model:
		return true
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
