package database

import "github.com/crateindex/exportdb/internal/xerrors"

// maxRowGroupSlots is the fixed number of 2-byte offset slots reserved per
// row group regardless of how many of them are actually occupied (§3.1:
// "up to some fixed number of rows, e.g. 16").
const maxRowGroupSlots = 16

// RawRow is a decoded row's location: enough for a table-specific decoder
// in the models package to read its fields via the shared byte source.
type RawRow struct {
	Page      Page
	Slot      int
	Offset    uint16
	AbsOffset int64
}

// rowGroupSpan locates one row group's offset table and presence bitmap
// within a page, both given as byte offsets relative to the page start.
type rowGroupSpan struct {
	offsetsBase   int64
	presenceBase  int64
	presenceBytes int
	rowCount      uint32
}

// rowGroupSpans reproduces the page-tail layout from §6.2 by walking
// backward from page_size-4: first the last group's row count and the
// free-space offset (four bytes, ignored beyond the row count), then for
// each row group — starting with the last and working toward the first —
// sixteen 2-byte offsets followed by a bit-packed presence vector whose
// length in bits equals that group's row count.
func (f *DBFile) rowGroupSpans(p Page) ([]rowGroupSpan, error) {
	if p.NumRowGroups == 0 {
		return nil, nil
	}

	tailRowCount, err := f.src.ReadU16LE(p.AbsOffset + p.Size - 2)
	if err != nil {
		return nil, err
	}
	// The preceding two bytes are a free-space offset the decoder does not
	// need for traversal; still validated for truncation.
	if _, err := f.src.ReadU16LE(p.AbsOffset + p.Size - 4); err != nil {
		return nil, err
	}

	spans := make([]rowGroupSpan, p.NumRowGroups)
	cursor := p.Size - 4

	for g := int(p.NumRowGroups) - 1; g >= 0; g-- {
		rowCount := p.RowGroupCount
		if g == int(p.NumRowGroups)-1 {
			rowCount = uint32(tailRowCount)
		}
		if rowCount > maxRowGroupSlots {
			return nil, xerrors.MalformedPage(f.Path, p.Index, "row group count exceeds slot capacity")
		}

		presenceBytes := int((rowCount + 7) / 8)
		cursor -= int64(presenceBytes)
		presenceBase := cursor

		cursor -= maxRowGroupSlots * 2
		offsetsBase := cursor

		if offsetsBase < int64(pageHeaderSize) {
			return nil, xerrors.MalformedPage(f.Path, p.Index, "row group table overruns page header")
		}

		spans[g] = rowGroupSpan{
			offsetsBase:   offsetsBase,
			presenceBase:  presenceBase,
			presenceBytes: presenceBytes,
			rowCount:      rowCount,
		}
	}

	return spans, nil
}

// ForEachRow enumerates every present row of a data page, in ascending
// group index and then ascending slot index (§4.3's tie-breaking rule).
// Non-data pages yield nothing. A row offset at or past the end of the page
// is a fatal error. A row's length is not checked here: a row that runs
// into the next row or into the row-group tables is not detected.
func (f *DBFile) ForEachRow(p Page, fn func(RawRow) error) error {
	if !p.IsDataPage() {
		return nil
	}

	spans, err := f.rowGroupSpans(p)
	if err != nil {
		return err
	}

	for _, span := range spans {
		for slot := 0; slot < int(span.rowCount); slot++ {
			bit, err := f.src.ReadBits(p.AbsOffset+span.presenceBase, uint(slot), 1)
			if err != nil {
				return err
			}
			if bit == 0 {
				continue
			}

			offset, err := f.src.ReadU16LE(p.AbsOffset + span.offsetsBase + int64(slot)*2)
			if err != nil {
				return err
			}
			if int64(offset) >= p.Size {
				return xerrors.MalformedRow(f.Path, p.Index, offset, "row offset outside page bounds")
			}

			row := RawRow{
				Page:      p,
				Slot:      slot,
				Offset:    offset,
				AbsOffset: p.AbsOffset + int64(offset),
			}
			if err := fn(row); err != nil {
				return err
			}
		}
	}
	return nil
}
