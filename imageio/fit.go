package imageio

import (
	"image"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/disintegration/gift"
	"github.com/svanichkin/quad"
)

// FitMode selects how a raster is turned into a square power-of-two one.
type FitMode string

const (
	// FitPad replicates the right and bottom edges out to the next power of
	// two. Restore crops the padding off again.
	FitPad FitMode = "pad"

	// FitScale resamples the whole image to the next power of two. Restore
	// resamples it back.
	FitScale FitMode = "scale"
)

// ErrTypeInvalidFitMode is reported for unknown fit modes.
const ErrTypeInvalidFitMode = "imageio_invalid_fit_mode"

// ParseFitMode validates s.
func ParseFitMode(s string) (FitMode, error) {
	switch m := FitMode(s); m {
	case FitPad, FitScale:
		return m, nil
	default:
		return "", errors.New("unknown fit mode").
			WithType(ErrTypeInvalidFitMode).
			WithTag("mode", s)
	}
}

// Side returns the smallest power of two that covers both dimensions.
func Side(width, height int) int {
	side := 1
	for side < width || side < height {
		side <<= 1
	}
	return side
}

// Fit returns g as a square buffer whose side is a power of two. A buffer
// that already has that shape is returned as is.
func Fit(g *quad.Gray, mode FitMode) (*quad.Gray, error) {
	w, h := g.Width(), g.Height()
	side := Side(w, h)
	if w == side && h == side {
		return g, nil
	}

	switch mode {
	case FitPad:
		dst := quad.NewGray(side, side)
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				dst.Set(x, y, g.At(min(x, w-1), min(y, h-1)))
			}
		}
		return dst, nil

	case FitScale:
		return resize(g, side, side), nil

	default:
		return nil, errors.New("unknown fit mode").
			WithType(ErrTypeInvalidFitMode).
			WithTag("mode", string(mode))
	}
}

// Restore undoes Fit, returning a width×height buffer.
func Restore(g *quad.Gray, width, height int, mode FitMode) (*quad.Gray, error) {
	if g.Width() == width && g.Height() == height {
		return g, nil
	}

	switch mode {
	case FitPad:
		dst := quad.NewGray(width, height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dst.Set(x, y, g.At(x, y))
			}
		}
		return dst, nil

	case FitScale:
		return resize(g, width, height), nil

	default:
		return nil, errors.New("unknown fit mode").
			WithType(ErrTypeInvalidFitMode).
			WithTag("mode", string(mode))
	}
}

// resize resamples through an 8-bit image, or a 16-bit one when g holds
// samples above 255.
func resize(g *quad.Gray, width, height int) *quad.Gray {
	f := gift.New(gift.Resize(width, height, gift.LanczosResampling))
	bounds := f.Bounds(image.Rect(0, 0, g.Width(), g.Height()))

	if g.Max() <= 0xff {
		dst := image.NewGray(bounds)
		f.Draw(dst, g.ToImage())
		return quad.GrayFromImage(dst)
	}

	dst := image.NewGray16(bounds)
	f.Draw(dst, g.ToImage16())
	return quad.GrayFromImage16(dst)
}
