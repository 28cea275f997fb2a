package catalog

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// digestWidth is how much of the hex digest the table shows.
const digestWidth = 16

// Table renders l as a human-readable table. The digest column appears only
// when at least one entry carries a digest.
func (l Listing) Table() string {
	withDigest := false
	for _, e := range l.Entries {
		if e.Digest != "" {
			withDigest = true
			break
		}
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"#", "Size", "Encoding", "Tag", "Storage", "Layout", "Bytes"}
	if withDigest {
		header = append(header, "BLAKE3")
	}
	tw.AppendHeader(header)

	for _, e := range l.Entries {
		row := table.Row{
			e.Index,
			fmt.Sprintf("%dx%d", e.Width, e.Height),
			e.Encoding,
			e.Tag,
			e.Storage,
			e.Variant,
			humanize.IBytes(uint64(e.Length)),
		}
		if withDigest {
			d := e.Digest
			if len(d) > digestWidth {
				d = d[:digestWidth]
			}
			row = append(row, d)
		}
		tw.AppendRow(row)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
