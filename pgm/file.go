package pgm

import (
	"bufio"
	"os"
	"runtime"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/svanichkin/quad"
)

// ZstdExt is the suffix that turns on transparent compression.
const ZstdExt = ".zst"

// ReadFile decodes the PGM image at path.
func ReadFile(path string) (*quad.Gray, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, errors.New("opening pgm file failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	if !isZstd(path) {
		return Decode(bufio.NewReader(f))
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, Header{}, errors.New("creating zstd reader failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer dec.Close()

	return Decode(bufio.NewReader(dec))
}

// WriteFile encodes g to path, replacing any existing file.
func WriteFile(path string, g *quad.Gray, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New("creating pgm file failed").
			WithTag("path", path).
			Wrap(err)
	}

	if err := writeFile(f, path, g, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeFile(f *os.File, path string, g *quad.Gray, opts Options) error {
	if !isZstd(path) {
		return Encode(f, g, opts)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return errors.New("creating zstd writer failed").
			WithTag("path", path).
			Wrap(err)
	}
	if err := Encode(enc, g, opts); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// IsPGMPath reports whether path names a PGM file, compressed or not.
func IsPGMPath(path string) bool {
	p := strings.TrimSuffix(strings.ToLower(path), ZstdExt)
	return strings.HasSuffix(p, ".pgm")
}

func isZstd(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ZstdExt)
}
