package itc

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/samcharles93/artcache/pkg/pngenc"
)

// ExportOptions controls how payloads are written out.
type ExportOptions struct {
	// Compression is the zlib level used when raw ARGB payloads are converted
	// to PNG. 0 stores the pixel rows uncompressed.
	Compression int
}

// ExportRecord writes the image held by rec to w. PNG and JPEG payloads are
// copied verbatim; raw ARGB payloads are encoded as PNG.
func ExportRecord(w io.Writer, rec *Record, opts ExportOptions) error {
	if rec.Payload == nil {
		return fmt.Errorf("%w: image has no data (container read metadata-only?)", ErrValidation)
	}
	if rec.Encoding == EncodingARGB {
		return pngenc.EncodeTo(w, int(rec.Width), int(rec.Height), rec.Payload, pngenc.Options{Level: opts.Compression})
	}
	return writeFull(w, rec.Payload)
}

// ExportFile writes the image held by rec to path.
func ExportFile(path string, rec *Record, opts ExportOptions) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(out)
	if err := ExportRecord(bw, rec, opts); err != nil {
		return err
	}
	return bw.Flush()
}

// ExportName is the file name used for image n: prefix, a dash, the two-digit
// image number and the extension for the record encoding.
func ExportName(prefix string, n int, enc Encoding) string {
	return fmt.Sprintf("%s-%02d%s", prefix, n, enc.Extension())
}

// ExportImage writes image n (1-based) to ExportName(prefix, n, ...) and
// returns the path written.
func (f *File) ExportImage(n int, prefix string, opts ExportOptions) (string, error) {
	rec, err := f.Record(n)
	if err != nil {
		return "", err
	}
	path := ExportName(prefix, n, rec.Encoding)
	if err := ExportFile(path, rec, opts); err != nil {
		return "", fmt.Errorf("export image %02d: %w", n, err)
	}
	return path, nil
}

// ExportAll writes every image in the container and returns the paths
// written, in image order. It stops at the first failure.
func (f *File) ExportAll(prefix string, opts ExportOptions) ([]string, error) {
	paths := make([]string, 0, len(f.Records))
	for n := 1; n <= len(f.Records); n++ {
		path, err := f.ExportImage(n, prefix, opts)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
