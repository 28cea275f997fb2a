// Package itc implements the iTunes artwork cache (.itc) container format.
//
// An .itc file is a sequence of big-endian frames. Each frame starts with a
// 32-bit size (covering the frame header) followed by a 4-byte tag. The root
// "itch" frame wraps a legacy "artw" placeholder; every embedded image is an
// "item" frame carrying library/track identifiers, dimensions, the storage
// method, the payload format and the image bytes.
package itc

import "fmt"

// Known frame layouts, identified by the image offset stored in each item.
const (
	// OffsetITunes9 is the item image offset written by iTunes 9 and later.
	OffsetITunes9 uint32 = 208

	// OffsetITunesOld is the item image offset written by earlier releases.
	OffsetITunesOld uint32 = 216
)

const (
	frameHeaderSize = 8

	// itch: size, tag, 16 fixed bytes, nested tag.
	rootFixedSize = 16

	// The artw placeholder is never populated by any known writer.
	artwRegionSize = 256

	// Declared size of the root frame: header, fixed bytes, nested tag, artw region.
	rootFrameSize = frameHeaderSize + rootFixedSize + 4 + artwRegionSize

	// libraryID, trackID, storage tag, format tag.
	idBlockSize = 24
)

// Tag is a 4-byte frame, storage or format identifier. Tags are compared as
// raw bytes and never interpreted as text.
type Tag [4]byte

func (t Tag) String() string {
	for _, b := range t {
		if b < 0x20 || b > 0x7e {
			return fmt.Sprintf("0x%X", t[:])
		}
	}
	return string(t[:])
}

var (
	TagItch = Tag{'i', 't', 'c', 'h'}
	TagArtw = Tag{'a', 'r', 't', 'w'}
	TagItem = Tag{'i', 't', 'e', 'm'}
	TagData = Tag{'d', 'a', 't', 'a'}

	tagLocal      = Tag{'l', 'o', 'c', 'l'}
	tagDownloaded = Tag{'d', 'o', 'w', 'n'}

	tagPNG      = Tag{'P', 'N', 'G', 'f'}
	tagPNGAlt   = Tag{0, 0, 0, 0x0e}
	tagJPEG     = Tag{0, 0, 0, 0x0d}
	tagARGB     = Tag{'A', 'R', 'G', 'b'}
	tagNoFormat = Tag{}
)

// Variant is the item layout generation, selected by the item image offset.
type Variant uint8

const (
	VariantUnknown Variant = iota
	Variant9
	VariantOld
)

// VariantForOffset maps an item image offset to its layout variant.
func VariantForOffset(offset uint32) (Variant, bool) {
	switch offset {
	case OffsetITunes9:
		return Variant9, true
	case OffsetITunesOld:
		return VariantOld, true
	default:
		return VariantUnknown, false
	}
}

// ImageOffset is the offset of the image payload from the start of the item frame.
func (v Variant) ImageOffset() uint32 {
	switch v {
	case VariantOld:
		return OffsetITunesOld
	default:
		return OffsetITunes9
	}
}

// PreambleSize is the length of the opaque block following the image offset.
func (v Variant) PreambleSize() int {
	if v == VariantOld {
		return 20
	}
	return 16
}

// dataPadSize is the number of zero bytes between the "data" tag and the payload.
func (v Variant) dataPadSize() int {
	if v == VariantOld {
		return 4
	}
	return 0
}

func (v Variant) String() string {
	switch v {
	case Variant9:
		return "itunes9"
	case VariantOld:
		return "old"
	default:
		return "unknown"
	}
}

// ParseVariant accepts the names produced by Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "itunes9", "9":
		return Variant9, nil
	case "old":
		return VariantOld, nil
	default:
		return VariantUnknown, fmt.Errorf("itc: unknown layout variant %q", s)
	}
}

type frameKind uint8

const (
	frameUnknown frameKind = iota
	frameRoot
	frameArtwork
	frameItem
)

func kindOf(tag Tag) frameKind {
	switch tag {
	case TagItch:
		return frameRoot
	case TagArtw:
		return frameArtwork
	case TagItem:
		return frameItem
	default:
		return frameUnknown
	}
}
