// Package catalog summarises the images held in .itc containers for display.
package catalog

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/zeebo/blake3"

	"github.com/samcharles93/artcache/pkg/itc"
)

// Entry describes one image in a container.
type Entry struct {
	Index    int    `json:"index"`
	Width    uint32 `json:"width"`
	Height   uint32 `json:"height"`
	Encoding string `json:"encoding"`

	// Tag is the raw format tag, for records read from disk.
	Tag     string `json:"format_tag,omitempty"`
	Storage string `json:"storage"`
	Variant string `json:"variant"`
	Length  uint32 `json:"length"`
	Digest  string `json:"digest,omitempty"`
}

// Listing is the summary of one container.
type Listing struct {
	Path      string   `json:"path"`
	LibraryID string   `json:"library_id,omitempty"`
	TrackID   string   `json:"track_id,omitempty"`
	Entries   []Entry  `json:"images"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Build summarises f, read from path. Digests are computed only when
// withDigest is set and the payloads were loaded.
func Build(path string, f *itc.File, withDigest bool) Listing {
	l := Listing{
		Path:    path,
		Entries: make([]Entry, 0, f.Len()),
	}
	if id, ok := f.LibraryID(); ok {
		l.LibraryID = formatID(id)
	}
	if id, ok := f.TrackID(); ok {
		l.TrackID = formatID(id)
	}

	for i := range f.Records {
		rec := &f.Records[i]
		e := Entry{
			Index:    i + 1,
			Width:    rec.Width,
			Height:   rec.Height,
			Encoding: rec.Encoding.String(),
			Storage:  rec.Storage.String(),
			Variant:  rec.Variant.String(),
			Length:   rec.PayloadLength,
		}
		if tag, ok := rec.FormatTag(); ok {
			e.Tag = tag.String()
		}
		if withDigest && rec.Payload != nil {
			sum := blake3.Sum256(rec.Payload)
			e.Digest = hex.EncodeToString(sum[:])
		}
		l.Entries = append(l.Entries, e)
	}

	for _, w := range f.Warnings {
		l.Warnings = append(l.Warnings, w.Error())
	}
	return l
}

// TotalLength is the sum of the payload lengths in l.
func (l Listing) TotalLength() uint64 {
	var total uint64
	for _, e := range l.Entries {
		total += uint64(e.Length)
	}
	return total
}

// WriteText writes a heading followed by the table for each listing.
func WriteText(w io.Writer, listings []Listing) error {
	for i, l := range listings {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s: %d image(s), %s\n", l.Path, len(l.Entries), humanize.IBytes(l.TotalLength())); err != nil {
			return err
		}
		if l.LibraryID != "" || l.TrackID != "" {
			if _, err := fmt.Fprintf(w, "library %s  track %s\n", orDash(l.LibraryID), orDash(l.TrackID)); err != nil {
				return err
			}
		}
		if len(l.Entries) == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, l.Table()); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes listings as an indented JSON array.
func WriteJSON(w io.Writer, listings []Listing) error {
	if listings == nil {
		listings = []Listing{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listings)
}

func formatID(id uint64) string {
	return fmt.Sprintf("%016X", id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
