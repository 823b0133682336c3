package quad

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Buffer is a rectangular grid of intensity samples.
//
// x selects the column and y the row. Implementations are expected to be
// row-major, but the quadtree code only goes through At and Set.
type Buffer interface {
	Width() int
	Height() int
	At(x, y int) int
	Set(x, y, v int)
}

// Gray is a row-major Buffer backed by an int slice with an explicit stride.
type Gray struct {
	pix    []int
	width  int
	height int
	stride int
}

// NewGray allocates a zeroed width×height buffer.
func NewGray(width, height int) *Gray {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Gray{
		pix:    make([]int, width*height),
		width:  width,
		height: height,
		stride: width,
	}
}

// NewGrayFromData wraps pix without copying. Sample (x, y) lives at
// pix[y*stride+x].
func NewGrayFromData(pix []int, width, height, stride int) (*Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("buffer dimensions must be positive").
			WithType(ErrTypeInvalidParam).
			WithTag("width", width).
			WithTag("height", height)
	}
	if stride < width {
		return nil, errors.New("stride is smaller than width").
			WithType(ErrTypeInvalidParam).
			WithTag("width", width).
			WithTag("stride", stride)
	}
	if need := (height-1)*stride + width; len(pix) < need {
		return nil, errors.New("sample slice is too small").
			WithType(ErrTypeInvalidParam).
			WithTag("len", len(pix)).
			WithTag("need", need)
	}
	return &Gray{pix: pix, width: width, height: height, stride: stride}, nil
}

// GrayFromRows builds a buffer from a slice of rows. All rows must have the
// same length.
func GrayFromRows(rows [][]int) (*Gray, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("rows must not be empty").
			WithType(ErrTypeInvalidParam)
	}
	g := NewGray(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.width {
			return nil, errors.New("ragged rows").
				WithType(ErrTypeInvalidParam).
				WithTag("row", y).
				WithTag("len", len(row)).
				WithTag("width", g.width)
		}
		copy(g.pix[y*g.stride:], row)
	}
	return g, nil
}

func (g *Gray) Width() int  { return g.width }
func (g *Gray) Height() int { return g.height }
func (g *Gray) Stride() int { return g.stride }

// Pix returns the backing slice.
func (g *Gray) Pix() []int { return g.pix }

// At returns the sample at (x, y), or 0 outside the buffer.
func (g *Gray) At(x, y int) int {
	if !g.inside(x, y) {
		return 0
	}
	return g.pix[y*g.stride+x]
}

// Set writes v at (x, y). Writes outside the buffer are dropped.
func (g *Gray) Set(x, y, v int) {
	if !g.inside(x, y) {
		return
	}
	g.pix[y*g.stride+x] = v
}

// Fill sets every sample to v.
func (g *Gray) Fill(v int) {
	for y := 0; y < g.height; y++ {
		row := g.pix[y*g.stride : y*g.stride+g.width]
		for i := range row {
			row[i] = v
		}
	}
}

// Clone returns a compact deep copy.
func (g *Gray) Clone() *Gray {
	c := NewGray(g.width, g.height)
	for y := 0; y < g.height; y++ {
		copy(c.pix[y*c.stride:(y+1)*c.stride], g.pix[y*g.stride:y*g.stride+g.width])
	}
	return c
}

// Equal reports whether both buffers have the same size and samples.
// Stride padding is ignored.
func (g *Gray) Equal(o *Gray) bool {
	if g.width != o.width || g.height != o.height {
		return false
	}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.pix[y*g.stride+x] != o.pix[y*o.stride+x] {
				return false
			}
		}
	}
	return true
}

// Rows returns a copy of the samples as a slice of rows.
func (g *Gray) Rows() [][]int {
	rows := make([][]int, g.height)
	for y := range rows {
		rows[y] = append([]int(nil), g.pix[y*g.stride:y*g.stride+g.width]...)
	}
	return rows
}

// ToImage converts the buffer to an 8-bit image, clamping to [0, 255].
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			img.Pix[y*img.Stride+x] = clamp8(g.pix[y*g.stride+x])
		}
	}
	return img
}

// ToImage16 converts the buffer to a 16-bit image, clamping to [0, 65535].
func (g *Gray) ToImage16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: clamp16(g.pix[y*g.stride+x])})
		}
	}
	return img
}

// GrayFromImage16 copies the 16-bit samples of src unchanged.
func GrayFromImage16(src *image.Gray16) *Gray {
	b := src.Bounds()
	g := NewGray(b.Dx(), b.Dy())
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			g.pix[y*g.stride+x] = int(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	return g
}

// Max returns the largest sample, or 0 for an empty buffer.
func (g *Gray) Max() int {
	if g.width == 0 || g.height == 0 {
		return 0
	}
	m := g.pix[0]
	for y := 0; y < g.height; y++ {
		for _, v := range g.pix[y*g.stride : y*g.stride+g.width] {
			if v > m {
				m = v
			}
		}
	}
	return m
}

// GrayFromImage copies any image into a buffer with bounds starting at
// (0, 0), converting through color.GrayModel.
func GrayFromImage(src image.Image) *Gray {
	b := src.Bounds()
	gray, ok := src.(*image.Gray)
	if !ok || b.Min != (image.Point{}) {
		gray = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	}

	g := NewGray(b.Dx(), b.Dy())
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			g.pix[y*g.stride+x] = int(gray.Pix[y*gray.Stride+x])
		}
	}
	return g
}

func (g *Gray) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func clamp16(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
