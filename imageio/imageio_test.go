package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/svanichkin/quad"
	"github.com/svanichkin/quad/pgm"
)

func makeTestImage(t *testing.T, w, h int) *quad.Gray {
	t.Helper()
	g := quad.NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, (x*40+y*7)%256)
		}
	}
	return g
}

func TestDecode(t *testing.T) {
	t.Run("gray png keeps samples", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 2, 1))
		img.Pix = []uint8{12, 200}

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		g, maxVal, err := Decode(&buf)
		require.NoError(t, err)
		require.Equal(t, 255, maxVal)
		require.Equal(t, [][]int{{12, 200}}, g.Rows())
	})

	t.Run("color png is converted", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 2, 1))
		img.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		img.SetRGBA(1, 0, color.RGBA{A: 255})

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		g, _, err := Decode(&buf)
		require.NoError(t, err)
		require.Equal(t, 2, g.Width())
		require.InDelta(t, 255, g.At(0, 0), 1)
		require.Equal(t, 0, g.At(1, 0))
	})

	t.Run("16 bit png keeps samples", func(t *testing.T) {
		img := image.NewGray16(image.Rect(0, 0, 2, 1))
		img.SetGray16(0, 0, color.Gray16{Y: 300})
		img.SetGray16(1, 0, color.Gray16{Y: 65000})

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		g, maxVal, err := Decode(&buf)
		require.NoError(t, err)
		require.Equal(t, 65535, maxVal)
		require.Equal(t, [][]int{{300, 65000}}, g.Rows())
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := Decode(bytes.NewReader([]byte("not an image")))
		require.Equal(t, ErrTypeUnsupportedFormat, errors.Type(err))
	})
}

func TestSaveLoad(t *testing.T) {
	g := makeTestImage(t, 5, 3)
	dir := t.TempDir()

	for _, name := range []string{"out.png", "out.pgm", "out.pgm.zst", "out.bmp", "out.tiff", "out.gif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, g, 0))

			got, maxVal, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, 255, maxVal)
			require.True(t, got.Equal(g), "got %v", got.Rows())
		})
	}

	t.Run("jpeg is lossy", func(t *testing.T) {
		path := filepath.Join(dir, "out.jpg")
		require.NoError(t, Save(path, g, 0))

		got, _, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, g.Width(), got.Width())
		require.Equal(t, g.Height(), got.Height())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		err := Save(filepath.Join(dir, "out.xyz"), g, 0)
		require.Equal(t, ErrTypeUnsupportedFormat, errors.Type(err))

		_, err = os.Stat(filepath.Join(dir, "out.xyz"))
		require.True(t, os.IsNotExist(err))
	})

	t.Run("missing input", func(t *testing.T) {
		_, _, err := Load(filepath.Join(dir, "missing.png"))
		require.Error(t, err)
	})
}

func TestSaveLoad16Bit(t *testing.T) {
	dir := t.TempDir()

	src := quad.NewGray(2, 2)
	src.Fill(40000)
	src.Set(1, 1, 65535)

	input := filepath.Join(dir, "deep.pgm")
	require.NoError(t, pgm.WriteFile(input, src, pgm.Options{MaxVal: 65535}))

	g, maxVal, err := Load(input)
	require.NoError(t, err)
	require.Equal(t, 65535, maxVal)
	require.Equal(t, 40000, g.At(0, 0))

	for _, name := range []string{"out.pgm", "out.pgm.zst", "out.png", "out.tiff"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, g, maxVal))

			got, gotMax, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, 65535, gotMax)
			require.True(t, got.Equal(src), "got %v", got.Rows())
		})
	}

	t.Run("pgm keeps a smaller maxval", func(t *testing.T) {
		ten, err := quad.GrayFromRows([][]int{{0, 1000, 1023}})
		require.NoError(t, err)

		path := filepath.Join(dir, "ten.pgm")
		require.NoError(t, Save(path, ten, 1023))

		got, h, err := pgm.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, 1023, h.MaxVal)
		require.True(t, got.Equal(ten))
	})

	t.Run("png stretches to 16 bits", func(t *testing.T) {
		ten, err := quad.GrayFromRows([][]int{{0, 1023}})
		require.NoError(t, err)

		path := filepath.Join(dir, "ten.png")
		require.NoError(t, Save(path, ten, 1023))

		got, gotMax, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 65535, gotMax)
		require.Equal(t, [][]int{{0, 65535}}, got.Rows())
	})

	t.Run("8 bit formats scale down", func(t *testing.T) {
		path := filepath.Join(dir, "deep.bmp")
		require.NoError(t, Save(path, g, maxVal))

		got, _, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, [][]int{{156, 156}, {156, 255}}, got.Rows())
	})
}
