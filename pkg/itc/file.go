package itc

import (
	"fmt"
	"math"
	"os"
)

// maxPayload keeps PayloadLength + image offset inside the 32-bit frame size.
const maxPayload = math.MaxUint32 - uint64(OffsetITunesOld) - 4

// File is an in-memory ITC container.
//
// A File is not safe for concurrent mutation; callers sharing one must
// serialise access themselves.
type File struct {
	// Records holds the images in file order. User-facing numbering is 1-based;
	// use Record to translate.
	Records []Record

	// Warnings collects identifier conflicts found while reading.
	Warnings []ConsistencyWarning

	// Variant is the layout of the most recently read item, or the default
	// supplied to NewFile. Newly added records use it.
	Variant Variant

	libraryID   uint64
	trackID     uint64
	haveLibrary bool
	haveTrack   bool
}

// NewFile returns an empty container that writes new items with variant v.
func NewFile(v Variant) *File {
	if v == VariantUnknown {
		v = Variant9
	}
	return &File{Variant: v}
}

// LibraryID returns the container library identifier, if one is known.
func (f *File) LibraryID() (uint64, bool) {
	return f.libraryID, f.haveLibrary
}

// TrackID returns the container track identifier, if one is known.
func (f *File) TrackID() (uint64, bool) {
	return f.trackID, f.haveTrack
}

// SetIDs overrides the library and track identifiers written for every item.
func (f *File) SetIDs(library, track uint64) {
	f.libraryID, f.haveLibrary = library, true
	f.trackID, f.haveTrack = track, true
}

// Len returns the number of images in the container.
func (f *File) Len() int {
	return len(f.Records)
}

// Record returns image n, numbered from 1.
func (f *File) Record(n int) (*Record, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: image number must be >= 1", ErrRecordIndex)
	}
	if n > len(f.Records) {
		return nil, fmt.Errorf("%w: invalid image number %d, container only holds %d image(s)",
			ErrRecordIndex, n, len(f.Records))
	}
	return &f.Records[n-1], nil
}

// SetPayload replaces the payload of image n and updates its declared length.
func (f *File) SetPayload(n int, data []byte) error {
	rec, err := f.Record(n)
	if err != nil {
		return err
	}
	if uint64(len(data)) > maxPayload {
		return validationErrorf("payload of %d bytes exceeds the container limit", len(data))
	}
	rec.Payload = data
	rec.PayloadLength = uint32(len(data))
	return nil
}

// AddImage appends the image file at path as a locally stored record. The
// encoding is taken from the file extension (.jpg or .png). On error the
// container is left unchanged.
func (f *File) AddImage(path string, width, height uint32) error {
	enc, err := EncodingForPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image %s: %w", path, err)
	}
	return f.AddImageData(data, enc, width, height)
}

// AddImageData appends an in-memory image as a locally stored record.
func (f *File) AddImageData(data []byte, enc Encoding, width, height uint32) error {
	if enc == EncodingUnknown {
		return ErrUnsupportedFormat
	}
	if data == nil {
		return validationErrorf("image has no data")
	}
	if uint64(len(data)) > maxPayload {
		return validationErrorf("image of %d bytes exceeds the container limit", len(data))
	}
	f.Records = append(f.Records, Record{
		Width:         width,
		Height:        height,
		Encoding:      enc,
		Storage:       StorageLocal,
		Payload:       data,
		PayloadLength: uint32(len(data)),
		Variant:       f.currentVariant(),
	})
	return nil
}

func (f *File) currentVariant() Variant {
	if f.Variant == VariantUnknown {
		return Variant9
	}
	return f.Variant
}

// reconcileIDs records the identifiers of item n (1-based). The first value
// seen wins; later disagreements are kept as warnings.
func (f *File) reconcileIDs(n int, library, track uint64) {
	if !f.haveLibrary {
		f.libraryID, f.haveLibrary = library, true
	} else if f.libraryID != library {
		f.Warnings = append(f.Warnings, ConsistencyWarning{Field: "library", Record: n, Kept: f.libraryID, Found: library})
	}

	if !f.haveTrack {
		f.trackID, f.haveTrack = track, true
	} else if f.trackID != track {
		f.Warnings = append(f.Warnings, ConsistencyWarning{Field: "track", Record: n, Kept: f.trackID, Found: track})
	}
}
