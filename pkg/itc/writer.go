package itc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Fixed words of the root frame, as written by iTunes.
var rootFixed = [4]uint32{2, 2, 2, 0}

// maxItemHeaderSize covers size, tag, offset, the longest preamble, the id
// block, 4 reserved bytes and the dimension block.
const maxItemHeaderSize = 12 + 20 + idBlockSize + 4 + 19

// Write serialises f to w. Every record is validated before any byte is
// written: records need a payload and a known encoding and storage method.
func Write(w io.Writer, f *File) error {
	if err := f.validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := writeRoot(bw); err != nil {
		return err
	}
	for i := range f.Records {
		if err := f.writeRecord(bw, &f.Records[i]); err != nil {
			return fmt.Errorf("image %02d: %w", i+1, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes f to path by way of a temporary file in the same
// directory, replacing path only once the new container is complete.
func WriteFile(path string, f *File) (err error) {
	if err := f.validate(); err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if st, statErr := os.Stat(path); statErr == nil {
		mode = st.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	tmpPath := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = Write(out, f); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func (f *File) validate() error {
	for i := range f.Records {
		rec := &f.Records[i]
		if rec.Payload == nil {
			return fmt.Errorf("%w: image %02d has no data and cannot be written", ErrValidation, i+1)
		}
		if uint64(len(rec.Payload)) > maxPayload {
			return fmt.Errorf("%w: image %02d payload of %d bytes exceeds the container limit", ErrValidation, i+1, len(rec.Payload))
		}
		if int(rec.PayloadLength) != len(rec.Payload) {
			return fmt.Errorf("%w: image %02d declares %d bytes but holds %d", ErrValidation, i+1, rec.PayloadLength, len(rec.Payload))
		}
		if _, _, err := rec.wireTags(); err != nil {
			return fmt.Errorf("image %02d: %w", i+1, err)
		}
	}
	return nil
}

func writeRoot(w io.Writer) error {
	buf := make([]byte, 0, frameHeaderSize+rootFixedSize+4)
	buf = binary.BigEndian.AppendUint32(buf, rootFrameSize)
	buf = append(buf, TagItch[:]...)
	for _, v := range rootFixed {
		buf = binary.BigEndian.AppendUint32(buf, v)
	}
	buf = append(buf, TagArtw[:]...)
	if err := writeFull(w, buf); err != nil {
		return err
	}
	return writeZeros(w, artwRegionSize)
}

func (f *File) writeRecord(w io.Writer, rec *Record) error {
	variant := rec.Variant
	if variant == VariantUnknown {
		variant = f.currentVariant()
	}
	offset := variant.ImageOffset()

	storage, format, err := rec.wireTags()
	if err != nil {
		return err
	}

	hdr := make([]byte, 0, maxItemHeaderSize)
	hdr = binary.BigEndian.AppendUint32(hdr, rec.PayloadLength+offset)
	hdr = append(hdr, TagItem[:]...)
	hdr = binary.BigEndian.AppendUint32(hdr, offset)
	if len(rec.preamble) == variant.PreambleSize() {
		hdr = append(hdr, rec.preamble...)
	} else {
		hdr = append(hdr, make([]byte, variant.PreambleSize())...)
	}
	hdr = binary.BigEndian.AppendUint64(hdr, f.libraryID)
	hdr = binary.BigEndian.AppendUint64(hdr, f.trackID)
	hdr = append(hdr, storage[:]...)
	hdr = append(hdr, format[:]...)
	hdr = append(hdr, 0, 0, 0, 0)
	hdr = binary.BigEndian.AppendUint32(hdr, rec.Width)
	hdr = binary.BigEndian.AppendUint32(hdr, rec.Height)
	hdr = append(hdr, 0, 0, 0)
	hdr = binary.BigEndian.AppendUint32(hdr, rec.Width)
	hdr = binary.BigEndian.AppendUint32(hdr, rec.Height)

	if err := writeFull(w, hdr); err != nil {
		return err
	}
	// Pad so the "data" tag ends exactly at the image offset.
	if err := writeZeros(w, int(offset)-len(hdr)-4); err != nil {
		return err
	}
	if err := writeFull(w, TagData[:]); err != nil {
		return err
	}
	if err := writeZeros(w, variant.dataPadSize()); err != nil {
		return err
	}
	return writeFull(w, rec.Payload)
}
