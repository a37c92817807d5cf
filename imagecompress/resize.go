package imagecompress

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// FitDimensions scales width x height down to fit within maxWidth x maxHeight,
// keeping the aspect ratio. A bound of 0 or less is ignored. Width is fitted
// before height.
func FitDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	fitsWidth := maxWidth <= 0 || width <= maxWidth
	fitsHeight := maxHeight <= 0 || height <= maxHeight
	if fitsWidth && fitsHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	newWidth, newHeight := width, height

	if maxWidth > 0 && width > maxWidth {
		newWidth = maxWidth
		newHeight = int(math.Round(float64(newWidth) / ratio))
	}
	if maxHeight > 0 && newHeight > maxHeight {
		newHeight = maxHeight
		newWidth = int(math.Round(float64(newHeight) * ratio))
	}

	return max(newWidth, 1), max(newHeight, 1)
}

// Resize scales img to fit the bounds in p. It returns img itself when no
// scaling is needed.
func Resize(img image.Image, p Parameters) image.Image {
	b := img.Bounds()
	w, h := FitDimensions(b.Dx(), b.Dy(), p.MaxWidth, p.MaxHeight)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
