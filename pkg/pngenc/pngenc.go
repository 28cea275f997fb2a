// Package pngenc writes uncompressed ARGB pixel buffers as minimal PNG files:
// one IHDR, one IDAT and one IEND chunk, 8-bit truecolor with alpha, no
// filtering and no interlacing.
package pngenc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math/bits"

	"github.com/klauspost/compress/zlib"
)

// ErrEncoding is returned when the pixel buffer does not match the image
// dimensions.
var ErrEncoding = errors.New("pngenc: invalid pixel buffer")

var signature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const (
	bitDepth      = 8
	colorRGBA     = 6 // truecolor with alpha
	bytesPerPixel = 4
	filterNone    = 0

	// PNG stores dimensions as 31-bit unsigned values.
	maxDimension = 1<<31 - 1
)

// Options controls the deflate stream. The zero value stores the rows
// uncompressed.
type Options struct {
	// Level is a zlib compression level: 0 stores, 1-9 trade speed for size.
	Level int
}

// Encode converts width*height ARGB pixels into a PNG file.
func Encode(width, height int, argb []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, width, height, argb, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes the PNG encoding of width*height ARGB pixels to w. The
// buffer holds one byte per channel in alpha, red, green, blue order.
func EncodeTo(w io.Writer, width, height int, argb []byte, opts Options) error {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return fmt.Errorf("%w: dimensions %dx%d", ErrEncoding, width, height)
	}
	hi, want := bits.Mul64(uint64(width)*bytesPerPixel, uint64(height))
	if hi != 0 || uint64(len(argb)) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrEncoding, width, height, want, len(argb))
	}
	if opts.Level < zlib.NoCompression || opts.Level > zlib.BestCompression {
		return fmt.Errorf("pngenc: compression level %d out of range 0-9", opts.Level)
	}

	idat, err := compressRows(width, height, argb, opts.Level)
	if err != nil {
		return err
	}

	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = bitDepth
	ihdr[9] = colorRGBA
	// compression, filter and interlace methods are all 0.

	if _, err := w.Write(signature[:]); err != nil {
		return err
	}
	if err := writeChunk(w, "IHDR", ihdr[:]); err != nil {
		return err
	}
	if err := writeChunk(w, "IDAT", idat); err != nil {
		return err
	}
	return writeChunk(w, "IEND", nil)
}

// compressRows emits each scanline as a filter byte followed by RGBA pixels,
// moving alpha from the first channel to the last, through zlib.
func compressRows(width, height int, argb []byte, level int) ([]byte, error) {
	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, level)
	if err != nil {
		return nil, err
	}

	stride := width * bytesPerPixel
	row := make([]byte, 1+stride)
	row[0] = filterNone
	for y := 0; y < height; y++ {
		src := argb[y*stride : (y+1)*stride]
		dst := row[1:]
		for x := 0; x < stride; x += bytesPerPixel {
			dst[x+0] = src[x+1]
			dst[x+1] = src[x+2]
			dst[x+2] = src[x+3]
			dst[x+3] = src[x+0]
		}
		if _, err := zw.Write(row); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// writeChunk frames data as length, type, data, CRC-32 of type and data.
func writeChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(data)))
	copy(hdr[4:8], typ)

	crc := crc32.NewIEEE()
	_, _ = crc.Write(hdr[4:8])
	_, _ = crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	_, err := w.Write(sum[:])
	return err
}
