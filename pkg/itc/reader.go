package itc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ReadOptions controls how a container is decoded.
type ReadOptions struct {
	// MetadataOnly skips payload bytes instead of loading them. Records keep
	// their declared PayloadLength but have a nil Payload.
	MetadataOnly bool

	// Variant is the layout new records use when the container holds no items.
	Variant Variant
}

// Open maps the container at path read-only and decodes it.
// If mmap is unavailable, it falls back to positioned reads on the file.
// The file is released before Open returns; records own their payloads.
func Open(path string, opts ReadOptions) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, formatErrorf("%s: unsupported file size %d", path, size64)
	}

	if size64 > 0 {
		data, err := unix.Mmap(int(f.Fd()), 0, int(size64), unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			defer func() { _ = unix.Munmap(data) }()
			out, err := Read(bytes.NewReader(data), opts)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return out, nil
		}
	}

	out, err := Read(io.NewSectionReader(f, 0, size64), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// CanHandle reports whether r starts with an ITC root frame.
func CanHandle(r io.ReaderAt) bool {
	var tag Tag
	if _, err := r.ReadAt(tag[:], 4); err != nil {
		return false
	}
	return tag == TagItch
}

// Read decodes a container starting at the current position of rs.
//
// Reading stops cleanly when fewer than 8 bytes remain for a frame header. A
// truncated item frame, or an item with an unrecognised image offset, fails
// the whole read with an error wrapping ErrFormat.
func Read(rs io.ReadSeeker, opts ReadOptions) (*File, error) {
	cur, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(cur, io.SeekStart); err != nil {
		return nil, err
	}

	d := &decoder{
		rs:   rs,
		off:  cur,
		size: end,
		opts: opts,
		f:    NewFile(opts.Variant),
	}
	for {
		done, err := d.next()
		if err != nil {
			return nil, err
		}
		if done {
			return d.f, nil
		}
	}
}

type decoder struct {
	rs   io.ReadSeeker
	off  int64
	size int64
	opts ReadOptions
	f    *File
	buf  [idBlockSize]byte
}

func (d *decoder) read(n int) ([]byte, error) {
	b := d.buf[:n]
	if _, err := io.ReadFull(d.rs, b); err != nil {
		return nil, err
	}
	d.off += int64(n)
	return b, nil
}

func (d *decoder) seek(abs int64) error {
	if abs > d.size {
		return io.ErrUnexpectedEOF
	}
	off, err := d.rs.Seek(abs, io.SeekStart)
	if err != nil {
		return err
	}
	d.off = off
	return nil
}

// skipRegion skips a fixed region of the root frame. Running out of bytes
// here ends the stream rather than failing it.
func (d *decoder) skipRegion(n int64) (bool, error) {
	if d.off+n > d.size {
		return true, d.seek(d.size)
	}
	return false, d.seek(d.off + n)
}

// next reads one frame header and dispatches on its tag.
func (d *decoder) next() (bool, error) {
	hdr, err := d.read(frameHeaderSize)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return true, nil
		}
		return false, err
	}
	size := binary.BigEndian.Uint32(hdr[0:4])
	var tag Tag
	copy(tag[:], hdr[4:8])
	return d.dispatch(tag, size, frameHeaderSize)
}

// dispatch handles a frame whose first consumed bytes have been read.
func (d *decoder) dispatch(tag Tag, size uint32, consumed int64) (bool, error) {
	switch kindOf(tag) {
	case frameRoot:
		return d.parseRoot(size)
	case frameArtwork:
		return d.skipRegion(artwRegionSize)
	case frameItem:
		return false, d.parseItem(size)
	default:
		// Unknown frames are ignored. Skip the declared body when there is one
		// so the next header is read from the right place.
		if int64(size) > consumed {
			return d.skipRegion(int64(size) - consumed)
		}
		return false, nil
	}
}

// parseRoot handles "itch": 16 fixed bytes, then exactly one nested frame that
// shares the root's declared size.
func (d *decoder) parseRoot(size uint32) (bool, error) {
	if done, err := d.skipRegion(rootFixedSize); done || err != nil {
		return done, err
	}
	b, err := d.read(4)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return true, nil
		}
		return false, err
	}
	var sub Tag
	copy(sub[:], b)
	return d.dispatch(sub, size, frameHeaderSize+rootFixedSize+4)
}

func (d *decoder) parseItem(size uint32) error {
	n := len(d.f.Records) + 1
	recordStart := d.off

	b, err := d.read(4)
	if err != nil {
		return d.truncated(n, err)
	}
	offset := binary.BigEndian.Uint32(b)
	variant, ok := VariantForOffset(offset)
	if !ok {
		return fmt.Errorf("%w: image %02d has image offset %d at byte %d", ErrUnknownVariant, n, offset, recordStart)
	}

	preamble := make([]byte, variant.PreambleSize())
	if _, err := io.ReadFull(d.rs, preamble); err != nil {
		return d.truncated(n, err)
	}
	d.off += int64(len(preamble))

	b, err = d.read(idBlockSize)
	if err != nil {
		return d.truncated(n, err)
	}
	library := binary.BigEndian.Uint64(b[0:8])
	track := binary.BigEndian.Uint64(b[8:16])
	var storageTag, formatTag Tag
	copy(storageTag[:], b[16:20])
	copy(formatTag[:], b[20:24])
	d.f.reconcileIDs(n, library, track)

	if err := d.seek(d.off + 4); err != nil {
		return d.truncated(n, err)
	}
	b, err = d.read(8)
	if err != nil {
		return d.truncated(n, err)
	}
	width := binary.BigEndian.Uint32(b[0:4])
	height := binary.BigEndian.Uint32(b[4:8])

	if size < offset {
		return formatErrorf("image %02d declares frame size %d, smaller than its image offset %d", n, size, offset)
	}
	dataSize := int64(size - offset)
	imagePos := recordStart + int64(offset) - frameHeaderSize
	if pad := int64(variant.dataPadSize()); pad > 0 && imagePos+pad+dataSize <= d.size {
		// Padded old-layout items carry 4 zero bytes after "data". A final
		// item that only fits without them starts at the image offset.
		imagePos += pad
	}
	if imagePos+dataSize > d.size {
		return formatErrorf("image %02d payload truncated: need %d bytes at byte %d, file is %d bytes",
			n, dataSize, imagePos, d.size)
	}
	if err := d.seek(imagePos); err != nil {
		return d.truncated(n, err)
	}

	rec := Record{
		Width:         width,
		Height:        height,
		Encoding:      encodingForTag(formatTag),
		Storage:       storageForTag(storageTag),
		PayloadLength: uint32(dataSize),
		Variant:       variant,
		preamble:      preamble,
		storageTag:    storageTag,
		formatTag:     formatTag,
		haveTags:      true,
	}
	if d.opts.MetadataOnly {
		if err := d.seek(imagePos + dataSize); err != nil {
			return d.truncated(n, err)
		}
	} else {
		rec.Payload = make([]byte, dataSize)
		if _, err := io.ReadFull(d.rs, rec.Payload); err != nil {
			return d.truncated(n, err)
		}
		d.off += dataSize
	}

	d.f.Records = append(d.f.Records, rec)
	d.f.Variant = variant
	return nil
}

func (d *decoder) truncated(n int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return formatErrorf("image %02d truncated at byte %d", n, d.off)
	}
	return err
}
