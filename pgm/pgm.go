// Package pgm reads and writes Netpbm grayscale images.
//
// Both the plain (P2) and raw (P5) variants are supported, with a maxval of
// up to 65535. Raw images with a maxval above 255 store two big-endian bytes
// per sample. ReadFile and WriteFile compress transparently with zstd when
// the path ends in ".zst".
package pgm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/svanichkin/quad"
)

// Error types reported through errors.Type.
const (
	ErrTypeInvalidHeader = "pgm_invalid_header"
	ErrTypeUnsupported   = "pgm_unsupported"
	ErrTypeTruncated     = "pgm_truncated"
	ErrTypeInvalidSample = "pgm_invalid_sample"
)

// MaxPixels caps width*height for decoded images, so a corrupt or hostile
// header cannot trigger a huge allocation.
var MaxPixels = 1 << 28

const (
	Plain = '2'
	Raw   = '5'

	maxMaxVal = 65535
)

// Header describes a PGM image.
type Header struct {
	Format byte
	Width  int
	Height int
	MaxVal int
}

func (h Header) bytesPerSample() int {
	if h.MaxVal > 255 {
		return 2
	}
	return 1
}

// ReadHeader parses the magic number, dimensions and maxval. It consumes the
// single whitespace byte that separates the header from a raw raster.
func ReadHeader(r *bufio.Reader) (Header, error) {
	var h Header

	magic := make([]byte, 2)
	if _, err := io.ReadFull(r, magic); err != nil {
		return h, errors.New("reading magic number failed").
			WithType(ErrTypeInvalidHeader).
			Wrap(err)
	}
	if magic[0] != 'P' || (magic[1] != Plain && magic[1] != Raw) {
		return h, errors.New("unsupported magic number").
			WithType(ErrTypeUnsupported).
			WithTag("magic", string(magic))
	}
	h.Format = magic[1]

	fields := []struct {
		name string
		dst  *int
		max  int
	}{
		{name: "width", dst: &h.Width},
		{name: "height", dst: &h.Height},
		{name: "maxval", dst: &h.MaxVal, max: maxMaxVal},
	}
	for _, f := range fields {
		v, err := readInt(r)
		if err != nil {
			return h, errors.Newf("reading %s failed", f.name).
				WithType(ErrTypeInvalidHeader).
				Wrap(err)
		}
		if v <= 0 || (f.max > 0 && v > f.max) {
			return h, errors.Newf("invalid %s", f.name).
				WithType(ErrTypeInvalidHeader).
				WithTag(f.name, v)
		}
		*f.dst = v
	}

	if h.Width > MaxPixels/h.Height {
		return h, errors.New("image is too large").
			WithType(ErrTypeInvalidHeader).
			WithTag("width", h.Width).
			WithTag("height", h.Height).
			WithTag("max_pixels", MaxPixels)
	}
	return h, nil
}

// WriteHeader writes h followed by a single newline.
func WriteHeader(w io.Writer, h Header) error {
	_, err := fmt.Fprintf(w, "P%c\n%d %d\n%d\n", h.Format, h.Width, h.Height, h.MaxVal)
	return err
}

// Decode reads a whole PGM image.
func Decode(r io.Reader) (*quad.Gray, Header, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	h, err := ReadHeader(br)
	if err != nil {
		return nil, h, err
	}

	g := quad.NewGray(h.Width, h.Height)
	if h.Format == Plain {
		err = decodePlain(br, h, g)
	} else {
		err = decodeRaw(br, h, g)
	}
	if err != nil {
		return nil, h, err
	}
	return g, h, nil
}

func decodePlain(r *bufio.Reader, h Header, g *quad.Gray) error {
	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			v, err := readInt(r)
			if err != nil {
				return errors.New("reading sample failed").
					WithType(ErrTypeTruncated).
					WithTag("x", x).
					WithTag("y", y).
					Wrap(err)
			}
			if v > h.MaxVal {
				return invalidSample(x, y, v, h.MaxVal)
			}
			g.Set(x, y, v)
		}
	}
	return nil
}

func decodeRaw(r *bufio.Reader, h Header, g *quad.Gray) error {
	bps := h.bytesPerSample()
	row := make([]byte, h.Width*bps)

	for y := 0; y < h.Height; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return errors.New("reading raster row failed").
				WithType(ErrTypeTruncated).
				WithTag("y", y).
				Wrap(err)
		}
		for x := 0; x < h.Width; x++ {
			v := int(row[x])
			if bps == 2 {
				v = int(binary.BigEndian.Uint16(row[2*x:]))
			}
			if v > h.MaxVal {
				return invalidSample(x, y, v, h.MaxVal)
			}
			g.Set(x, y, v)
		}
	}
	return nil
}

func invalidSample(x, y, v, maxVal int) error {
	return errors.New("sample exceeds maxval").
		WithType(ErrTypeInvalidSample).
		WithTag("x", x).
		WithTag("y", y).
		WithTag("value", v).
		WithTag("maxval", maxVal)
}

// Options controls Encode.
type Options struct {
	// Format is Plain or Raw. Zero means Raw.
	Format byte

	// MaxVal is the maximum sample value. Zero means 255. Samples are
	// clamped to [0, MaxVal].
	MaxVal int
}

// Encode writes g as a PGM image.
func Encode(w io.Writer, g *quad.Gray, opts Options) error {
	h := Header{
		Format: opts.Format,
		Width:  g.Width(),
		Height: g.Height(),
		MaxVal: opts.MaxVal,
	}
	if h.Format == 0 {
		h.Format = Raw
	}
	if h.MaxVal == 0 {
		h.MaxVal = 255
	}
	if h.Format != Plain && h.Format != Raw {
		return errors.New("unsupported format").
			WithType(ErrTypeUnsupported).
			WithTag("format", string(h.Format))
	}
	if h.MaxVal < 0 || h.MaxVal > maxMaxVal || h.Width <= 0 || h.Height <= 0 {
		return errors.New("invalid header").
			WithType(ErrTypeInvalidHeader).
			WithTag("width", h.Width).
			WithTag("height", h.Height).
			WithTag("maxval", h.MaxVal)
	}

	bw := bufio.NewWriter(w)
	if err := WriteHeader(bw, h); err != nil {
		return err
	}

	var err error
	if h.Format == Plain {
		err = encodePlain(bw, h, g)
	} else {
		err = encodeRaw(bw, h, g)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

func encodePlain(w *bufio.Writer, h Header, g *quad.Gray) error {
	buf := make([]byte, 0, 8)
	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			buf = strconv.AppendInt(buf[:0], int64(clamp(g.At(x, y), h.MaxVal)), 10)
			if x == h.Width-1 {
				buf = append(buf, '\n')
			} else {
				buf = append(buf, ' ')
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeRaw(w *bufio.Writer, h Header, g *quad.Gray) error {
	bps := h.bytesPerSample()
	row := make([]byte, h.Width*bps)

	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			v := clamp(g.At(x, y), h.MaxVal)
			if bps == 2 {
				binary.BigEndian.PutUint16(row[2*x:], uint16(v))
			} else {
				row[x] = byte(v)
			}
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// readInt skips whitespace and comments, then reads a decimal token. The
// byte that ends the token is consumed unless it starts a comment.
func readInt(r *bufio.Reader) (int, error) {
	var digits []byte

	for {
		c, err := r.ReadByte()
		if err == io.EOF && len(digits) > 0 {
			break
		}
		if err != nil {
			return 0, err
		}

		switch {
		case c == '#':
			if len(digits) > 0 {
				if err := r.UnreadByte(); err != nil {
					return 0, err
				}
				return parseInt(digits)
			}
			if _, err := r.ReadString('\n'); err != nil && err != io.EOF {
				return 0, err
			}

		case isSpace(c):
			if len(digits) > 0 {
				return parseInt(digits)
			}

		case c >= '0' && c <= '9':
			digits = append(digits, c)

		default:
			return 0, errors.Newf("unexpected byte %q", c).
				WithType(ErrTypeInvalidHeader)
		}
	}
	return parseInt(digits)
}

func parseInt(digits []byte) (int, error) {
	return strconv.Atoi(string(digits))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func clamp(v, maxVal int) int {
	if v < 0 {
		return 0
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
