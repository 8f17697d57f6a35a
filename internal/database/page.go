package database

import "github.com/crateindex/exportdb/internal/xerrors"

// pageHeaderSize is the fixed length of the six named page-header fields
// (§4.3): page_index, next_page, page_type, num_row_groups,
// row_group_count, page_flags, each a little-endian uint32.
const pageHeaderSize = 24

// Page is one fixed-size block of the database file.
type Page struct {
	Index         uint32
	NextPage      uint32
	PageType      uint32
	NumRowGroups  uint32
	RowGroupCount uint32
	PageFlags     uint32

	// AbsOffset is this page's byte offset within the file, and Size its
	// declared length (the header's page_size).
	AbsOffset int64
	Size      int64
}

// IsDataPage reports whether the page's flags mark it as containing rows;
// non-data pages are skipped during row enumeration (§3.1).
func (p Page) IsDataPage() bool { return p.PageFlags&dataPageFlag != 0 }

// readPage parses the page-header fields of the page at absolute file
// offset abs.
func (f *DBFile) readPage(abs int64) (Page, error) {
	pageSize := int64(f.Header.PageSize)
	if abs < 0 || abs+pageSize > f.src.Len() {
		return Page{}, xerrors.MalformedPage(f.Path, uint32(abs/pageSize), "page extends past end of file")
	}

	readU32 := func(off int64) (uint32, error) { return f.src.ReadU32LE(abs + off) }

	index, err := readU32(0)
	if err != nil {
		return Page{}, err
	}
	next, err := readU32(4)
	if err != nil {
		return Page{}, err
	}
	pageType, err := readU32(8)
	if err != nil {
		return Page{}, err
	}
	numRowGroups, err := readU32(12)
	if err != nil {
		return Page{}, err
	}
	rowGroupCount, err := readU32(16)
	if err != nil {
		return Page{}, err
	}
	flags, err := readU32(20)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Index:         index,
		NextPage:      next,
		PageType:      pageType,
		NumRowGroups:  numRowGroups,
		RowGroupCount: rowGroupCount,
		PageFlags:     flags,
		AbsOffset:     abs,
		Size:          pageSize,
	}, nil
}

// ForEachPage walks t's page chain from FirstPage to LastPage (inclusive),
// invoking fn for every page in order. Traversal stops when the current
// page's index equals t.LastPage, per §3.1. A chain that visits more pages
// than exist in the file is treated as a cycle and reported fatally.
func (f *DBFile) ForEachPage(t Table, fn func(Page) error) error {
	maxPages := f.src.Len() / int64(f.Header.PageSize)
	visited := make(map[uint32]bool)

	pageIndex := t.FirstPage
	for {
		if visited[pageIndex] {
			return xerrors.MalformedPage(f.Path, pageIndex, "cyclic next_page chain")
		}
		visited[pageIndex] = true
		if int64(len(visited)) > maxPages+1 {
			return xerrors.MalformedPage(f.Path, pageIndex, "next_page chain exceeds file size")
		}

		abs := int64(pageIndex) * int64(f.Header.PageSize)
		page, err := f.readPage(abs)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if pageIndex == t.LastPage {
			return nil
		}
		pageIndex = page.NextPage
	}
}
