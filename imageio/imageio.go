// Package imageio loads and saves the images fed to the quadtree, and fits
// arbitrary rasters to the square power-of-two regions it works on.
package imageio

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/disintegration/gift"
	"github.com/svanichkin/quad"
	"github.com/svanichkin/quad/pgm"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrTypeUnsupportedFormat is reported when a file extension or image
// format is not handled.
const ErrTypeUnsupportedFormat = "imageio_unsupported_format"

// Load reads the image at path as grayscale. PGM files (optionally zstd
// compressed) keep their raw sample values; every other format goes through
// a luminance conversion.
//
// The second result is the largest value a sample of the source can hold:
// the PGM maxval, 65535 for 16-bit grayscale images and 255 otherwise. Pass
// it to Save to keep the source depth.
func Load(path string) (*quad.Gray, int, error) {
	if pgm.IsPGMPath(path) {
		g, h, err := pgm.ReadFile(path)
		return g, h.MaxVal, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.New("opening image failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	g, maxVal, err := Decode(f)
	if err != nil {
		return nil, 0, errors.New("decoding image failed").
			WithTag("path", path).
			Wrap(err)
	}
	return g, maxVal, nil
}

// Decode decodes any registered image format into a grayscale buffer. It
// returns the sample range like Load.
func Decode(r io.Reader) (*quad.Gray, int, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, 0, errors.New("unknown image format").
			WithType(ErrTypeUnsupportedFormat).
			Wrap(err)
	}
	if gray16, ok := img.(*image.Gray16); ok {
		return quad.GrayFromImage16(gray16), 0xffff, nil
	}
	if isGray(img) {
		return quad.GrayFromImage(img), 0xff, nil
	}

	g := gift.New(gift.Grayscale())
	gray := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(gray, img)

	return quad.GrayFromImage(gray), 0xff, nil
}

// Save writes g to path, choosing the encoder from the file extension.
//
// maxVal is the largest sample value of g; zero means 255. PGM output uses
// it as the header maxval. Above 255, PNG and TIFF are written with 16 bits
// per sample and the other formats are scaled down to 8 bits.
func Save(path string, g *quad.Gray, maxVal int) error {
	if pgm.IsPGMPath(path) {
		return pgm.WriteFile(path, g, pgm.Options{MaxVal: maxVal})
	}

	encode, err := encoderFor(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.New("creating image failed").
			WithTag("path", path).
			Wrap(err)
	}

	if err := encode(f, toImage(g, maxVal, has16Bit(path))); err != nil {
		f.Close()
		return errors.New("encoding image failed").
			WithTag("path", path).
			Wrap(err)
	}
	return f.Close()
}

// toImage returns g as an 8-bit image. When maxVal is above 255, samples
// are stretched from [0, maxVal] to 16 bits if deep is set, and scaled down
// to 8 bits otherwise.
func toImage(g *quad.Gray, maxVal int, deep bool) image.Image {
	if maxVal <= 0xff {
		return g.ToImage()
	}

	scale := func(v, to int) int {
		v = min(max(v, 0), maxVal)
		return (v*to + maxVal/2) / maxVal
	}

	bounds := image.Rect(0, 0, g.Width(), g.Height())
	if !deep {
		img := image.NewGray(bounds)
		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(scale(g.At(x, y), 0xff))})
			}
		}
		return img
	}

	img := image.NewGray16(bounds)
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(scale(g.At(x, y), 0xffff))})
		}
	}
	return img
}

// has16Bit reports whether the format of path stores 16-bit gray samples.
func has16Bit(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

type encodeFunc func(io.Writer, image.Image) error

func encoderFor(path string) (encodeFunc, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return png.Encode, nil

	case ".jpg", ".jpeg":
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
		}, nil

	case ".gif":
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, toPaletted(img), nil)
		}, nil

	case ".bmp":
		return bmp.Encode, nil

	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil

	default:
		return nil, errors.New("unsupported output format").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("ext", ext)
	}
}

// isGray reports whether img only holds gray levels, in which case the
// standard library conversion is exact.
func isGray(img image.Image) bool {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return true

	case *image.Paletted:
		for _, c := range m.Palette {
			r, g, b, _ := c.RGBA()
			if r != g || g != b {
				return false
			}
		}
		return true

	default:
		return false
	}
}

var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// toPaletted maps a gray image onto a 256 level gray palette so GIF output
// stays lossless.
func toPaletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(b, grayPalette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetColorIndex(x, y, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return dst
}
