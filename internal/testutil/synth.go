// Package testutil builds minimal, valid database and analysis-file byte
// buffers in memory so decoder tests never need binary fixture files on
// disk, mirroring how the teacher's own testutil package synthesizes
// fixtures for its binary-ish formats instead of shipping sample files.
package testutil

import "encoding/binary"

// PageBuilder assembles one fixed-size database page: a header plus rows
// packed from the tail, matching §3.1/§6.2's row-group layout.
type PageBuilder struct {
	size          int
	index         uint32
	nextPage      uint32
	pageType      uint32
	flags         uint32
	rowGroupCount uint32
	rows          [][]byte // row payload bytes, in the order they should be written
}

// NewPage starts a page of size bytes.
func NewPage(size int, index, nextPage, pageType uint32) *PageBuilder {
	return &PageBuilder{size: size, index: index, nextPage: nextPage, pageType: pageType, rowGroupCount: 16}
}

// AsDataPage marks the page as a data page (page_flags bit 0).
func (p *PageBuilder) AsDataPage() *PageBuilder {
	p.flags |= 0x1
	return p
}

// AddRow appends one row's raw bytes; its slot presence bit will be set.
func (p *PageBuilder) AddRow(data []byte) *PageBuilder {
	p.rows = append(p.rows, data)
	return p
}

// Build serializes the page, writing rows from the tail backward and the
// row-group offset/presence tables per §6.2.
func (p *PageBuilder) Build() []byte {
	buf := make([]byte, p.size)

	numRowGroups := uint32(1)
	if len(p.rows) > 16 {
		numRowGroups = uint32((len(p.rows) + 15) / 16)
	}

	binary.LittleEndian.PutUint32(buf[0:], p.index)
	binary.LittleEndian.PutUint32(buf[4:], p.nextPage)
	binary.LittleEndian.PutUint32(buf[8:], p.pageType)
	binary.LittleEndian.PutUint32(buf[12:], numRowGroups)
	binary.LittleEndian.PutUint32(buf[16:], p.rowGroupCount)
	binary.LittleEndian.PutUint32(buf[20:], p.flags)

	// Write row payloads from the tail of the free area backward, tracking
	// each row's offset from the page start. The free area ends below the
	// page-tail tables: four bytes of counters plus, per row group, sixteen
	// 2-byte offsets and at most two presence bytes.
	offsets := make([]uint16, len(p.rows))
	cursor := p.size - 4 - int(numRowGroups)*(16*2+2)
	for i, row := range p.rows {
		cursor -= len(row)
		copy(buf[cursor:], row)
		offsets[i] = uint16(cursor)
	}

	lastGroupRows := len(p.rows) % 16
	if lastGroupRows == 0 && len(p.rows) > 0 {
		lastGroupRows = 16
	}

	binary.LittleEndian.PutUint16(buf[p.size-2:], uint16(lastGroupRows))
	binary.LittleEndian.PutUint16(buf[p.size-4:], uint16(cursor))

	tail := int64(p.size) - 4
	for g := int(numRowGroups) - 1; g >= 0; g-- {
		rowsInGroup := 16
		if g == int(numRowGroups)-1 {
			rowsInGroup = lastGroupRows
		}
		presenceBytes := (rowsInGroup + 7) / 8
		tail -= int64(presenceBytes)
		presenceBase := tail
		tail -= 32
		offsetsBase := tail

		presence := make([]byte, presenceBytes)
		for slot := 0; slot < rowsInGroup; slot++ {
			rowIdx := g*16 + slot
			if rowIdx >= len(p.rows) {
				continue
			}
			presence[slot/8] |= 1 << uint(slot%8)
			binary.LittleEndian.PutUint16(buf[int(offsetsBase)+slot*2:], offsets[rowIdx])
		}
		copy(buf[presenceBase:presenceBase+int64(presenceBytes)], presence)
	}

	return buf
}

// DatabaseBuilder assembles a minimal, valid database file: header, table
// pointers, and a page area.
type DatabaseBuilder struct {
	pageSize uint32
	sequence uint32
	tables   []tableEntry
	pages    [][]byte
}

type tableEntry struct {
	Type      uint32
	FirstPage uint32
	LastPage  uint32
}

// NewDatabase starts a database file with the given page size.
func NewDatabase(pageSize uint32) *DatabaseBuilder {
	return &DatabaseBuilder{pageSize: pageSize, sequence: 1}
}

// AddTable registers a table pointer.
func (d *DatabaseBuilder) AddTable(tableType uint32, firstPage, lastPage uint32) *DatabaseBuilder {
	d.tables = append(d.tables, tableEntry{Type: tableType, FirstPage: firstPage, LastPage: lastPage})
	return d
}

// AddPage appends a fully-built page (see PageBuilder.Build) at the next
// page index; pages must be appended in index order starting at 1, since
// page 0 holds the header and table pointers (see PageIndexForSlot).
func (d *DatabaseBuilder) AddPage(page []byte) *DatabaseBuilder {
	d.pages = append(d.pages, page)
	return d
}

// Build serializes the whole file.
func (d *DatabaseBuilder) Build() []byte {
	headerSize := 28
	tableAreaSize := len(d.tables) * 16
	// Reserve at least one full page for the header/table area so page 0
	// (if used for a real table) does not collide with it.
	headerPages := 1
	dataStart := headerPages * int(d.pageSize)

	total := dataStart + len(d.pages)*int(d.pageSize)
	buf := make([]byte, total)

	binary.LittleEndian.PutUint32(buf[0:], 0) // magic
	binary.LittleEndian.PutUint32(buf[4:], d.pageSize)
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(d.tables)))
	binary.LittleEndian.PutUint32(buf[12:], 0)
	binary.LittleEndian.PutUint32(buf[16:], 0)
	binary.LittleEndian.PutUint32(buf[20:], d.sequence)

	if headerSize+tableAreaSize > int(d.pageSize) {
		panic("testutil: table area does not fit in header page")
	}
	for i, t := range d.tables {
		base := headerSize + i*16
		binary.LittleEndian.PutUint32(buf[base:], t.Type)
		binary.LittleEndian.PutUint32(buf[base+4:], 0)
		binary.LittleEndian.PutUint32(buf[base+8:], t.FirstPage)
		binary.LittleEndian.PutUint32(buf[base+12:], t.LastPage)
	}

	for i, page := range d.pages {
		copy(buf[dataStart+i*int(d.pageSize):], page)
	}

	return buf
}

// PageIndexForSlot returns the absolute page index (accounting for the
// reserved header page) of the i-th page appended via AddPage.
func PageIndexForSlot(i int) uint32 { return uint32(i + 1) }
