package itc

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Encoding is the format of an item payload.
type Encoding uint8

const (
	EncodingUnknown Encoding = iota
	EncodingPNG
	EncodingJPEG
	// EncodingARGB is uncompressed 8-bit ARGB pixel data, alpha first.
	EncodingARGB
)

func (e Encoding) String() string {
	switch e {
	case EncodingPNG:
		return "PNG"
	case EncodingJPEG:
		return "JPEG"
	case EncodingARGB:
		return "ARGB"
	default:
		return "unknown"
	}
}

// Extension is the file extension used when exporting a payload of this
// encoding. Raw ARGB payloads are exported as PNG.
func (e Encoding) Extension() string {
	switch e {
	case EncodingPNG, EncodingARGB:
		return ".png"
	case EncodingJPEG:
		return ".jpg"
	default:
		return ""
	}
}

func encodingForTag(t Tag) Encoding {
	switch t {
	case tagPNG, tagPNGAlt:
		return EncodingPNG
	case tagJPEG:
		return EncodingJPEG
	case tagARGB:
		return EncodingARGB
	default:
		return EncodingUnknown
	}
}

func (e Encoding) tag() (Tag, bool) {
	switch e {
	case EncodingPNG:
		return tagPNG, true
	case EncodingJPEG:
		return tagJPEG, true
	case EncodingARGB:
		return tagNoFormat, true
	default:
		return Tag{}, false
	}
}

// EncodingForPath infers the payload encoding of an image file from its
// extension. Only .jpg and .png are accepted.
func EncodingForPath(path string) (Encoding, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jpg":
		return EncodingJPEG, nil
	case ".png":
		return EncodingPNG, nil
	default:
		return EncodingUnknown, validationExt(ext)
	}
}

func validationExt(ext string) error {
	if ext == "" {
		return fmt.Errorf("%w: missing file extension, must be .jpg or .png", ErrUnsupportedFormat)
	}
	return fmt.Errorf("%w: extension %q, must be .jpg or .png", ErrUnsupportedFormat, ext)
}

// Storage records whether an image was supplied locally or downloaded.
type Storage uint8

const (
	StorageUnknown Storage = iota
	StorageLocal
	StorageDownloaded
)

func (s Storage) String() string {
	switch s {
	case StorageLocal:
		return "local"
	case StorageDownloaded:
		return "download"
	default:
		return "unknown"
	}
}

func storageForTag(t Tag) Storage {
	switch t {
	case tagLocal:
		return StorageLocal
	case tagDownloaded:
		return StorageDownloaded
	default:
		return StorageUnknown
	}
}

func (s Storage) tag() (Tag, bool) {
	switch s {
	case StorageLocal:
		return tagLocal, true
	case StorageDownloaded:
		return tagDownloaded, true
	default:
		return Tag{}, false
	}
}

// Record is one image stored in a container.
type Record struct {
	Width  uint32
	Height uint32

	Encoding Encoding
	Storage  Storage

	// Payload is nil when the container was read metadata-only.
	Payload []byte
	// PayloadLength is the payload size declared by the item frame.
	PayloadLength uint32

	// Variant is the item layout the record was read with, or the container's
	// current variant for newly added records.
	Variant Variant

	preamble   []byte
	storageTag Tag
	formatTag  Tag
	haveTags   bool
}

// Preamble returns the opaque block captured when the record was read. It is
// nil for records added in memory.
func (r *Record) Preamble() []byte {
	return r.preamble
}

// FormatTag returns the raw format tag the record was read with.
func (r *Record) FormatTag() (Tag, bool) {
	return r.formatTag, r.haveTags
}

// wireTags returns the storage and format tags to write. Tags captured at read
// time are reused when they still describe the record, so an unmodified
// container is reproduced byte for byte.
func (r *Record) wireTags() (storage, format Tag, err error) {
	if r.haveTags && storageForTag(r.storageTag) == r.Storage && r.Storage != StorageUnknown {
		storage = r.storageTag
	} else if t, ok := r.Storage.tag(); ok {
		storage = t
	} else {
		return Tag{}, Tag{}, validationErrorf("unclassified storage method")
	}

	if r.haveTags && encodingForTag(r.formatTag) == r.Encoding && r.Encoding != EncodingUnknown {
		format = r.formatTag
	} else if t, ok := r.Encoding.tag(); ok {
		format = t
	} else {
		return Tag{}, Tag{}, validationErrorf("unclassified image format")
	}
	return storage, format, nil
}
