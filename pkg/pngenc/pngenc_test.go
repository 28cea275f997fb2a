package pngenc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
)

type chunk struct {
	typ  string
	data []byte
	crc  uint32
}

func splitChunks(t *testing.T, file []byte) []chunk {
	t.Helper()
	if !bytes.Equal(file[:8], signature[:]) {
		t.Fatalf("missing PNG signature: %x", file[:8])
	}
	var out []chunk
	p := 8
	for p < len(file) {
		if p+12 > len(file) {
			t.Fatalf("trailing bytes after chunk at %d", p)
		}
		n := int(binary.BigEndian.Uint32(file[p:]))
		c := chunk{
			typ:  string(file[p+4 : p+8]),
			data: file[p+8 : p+8+n],
			crc:  binary.BigEndian.Uint32(file[p+8+n:]),
		}
		out = append(out, c)
		p += 12 + n
	}
	return out
}

func TestEncodeSingleRedPixel(t *testing.T) {
	t.Parallel()

	file, err := Encode(1, 1, []byte{0xFF, 0xFF, 0x00, 0x00}, Options{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	chunks := splitChunks(t, file)
	if len(chunks) != 3 {
		t.Fatalf("chunks: got %d want 3", len(chunks))
	}
	for i, want := range []string{"IHDR", "IDAT", "IEND"} {
		if chunks[i].typ != want {
			t.Fatalf("chunk %d: got %s want %s", i, chunks[i].typ, want)
		}
		sum := crc32.ChecksumIEEE(append([]byte(chunks[i].typ), chunks[i].data...))
		if sum != chunks[i].crc {
			t.Fatalf("chunk %s crc: got %08x want %08x", chunks[i].typ, chunks[i].crc, sum)
		}
	}

	ihdr := chunks[0].data
	if len(ihdr) != 13 {
		t.Fatalf("IHDR length: got %d want 13", len(ihdr))
	}
	if w, h := binary.BigEndian.Uint32(ihdr[0:4]), binary.BigEndian.Uint32(ihdr[4:8]); w != 1 || h != 1 {
		t.Fatalf("IHDR dimensions: got %dx%d", w, h)
	}
	if ihdr[8] != 8 || ihdr[9] != 6 {
		t.Fatalf("IHDR depth/color: got %d/%d want 8/6", ihdr[8], ihdr[9])
	}
	if ihdr[10] != 0 || ihdr[11] != 0 || ihdr[12] != 0 {
		t.Fatalf("IHDR methods: got %v", ihdr[10:13])
	}

	zr, err := zlib.NewReader(bytes.NewReader(chunks[1].data))
	if err != nil {
		t.Fatalf("zlib reader: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if want := []byte{0x00, 0xFF, 0x00, 0x00, 0xFF}; !bytes.Equal(raw, want) {
		t.Fatalf("IDAT rows: got %x want %x", raw, want)
	}

	if len(chunks[2].data) != 0 {
		t.Fatalf("IEND should be empty")
	}
}

func TestEncodeDecodesWithImagePNG(t *testing.T) {
	t.Parallel()

	const w, h = 3, 2
	argb := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		argb[i*4+0] = byte(200 + i)
		argb[i*4+1] = byte(i * 10)
		argb[i*4+2] = byte(i * 20)
		argb[i*4+3] = byte(i * 30)
	}

	for _, level := range []int{0, 1, 9} {
		file, err := Encode(w, h, argb, Options{Level: level})
		if err != nil {
			t.Fatalf("level %d: encode: %v", level, err)
		}
		img, err := png.Decode(bytes.NewReader(file))
		if err != nil {
			t.Fatalf("level %d: decode: %v", level, err)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				want := color.NRGBA{R: argb[i+1], G: argb[i+2], B: argb[i+3], A: argb[i]}
				got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				if got != want {
					t.Fatalf("level %d: pixel (%d,%d): got %+v want %+v", level, x, y, got, want)
				}
			}
		}
	}
}

func TestEncodeRejectsWrongBufferSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		width, height int
		argb          []byte
	}{
		{"short buffer", 2, 2, make([]byte, 10)},
		{"long buffer", 1, 1, make([]byte, 8)},
		{"zero width", 0, 4, nil},
		{"negative height", 4, -1, nil},
		{"product wraps to zero", 1 << 31, 1 << 31, nil},
		{"width beyond png limit", 1 << 31, 1, make([]byte, 1<<3)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Encode(tc.width, tc.height, tc.argb, Options{}); !errors.Is(err, ErrEncoding) {
				t.Fatalf("got %v, want ErrEncoding", err)
			}
		})
	}
}

func TestEncodeRejectsBadLevel(t *testing.T) {
	t.Parallel()

	if _, err := Encode(1, 1, make([]byte, 4), Options{Level: 12}); err == nil {
		t.Fatalf("expected an error for compression level 12")
	}
}
