// Package database implements the paginated collection-database format:
// the root header, the page/table/row-group layout, and the row-presence
// bit-vector walk described in §3.1, §3.2, §4.3 and §6.2 of the decoder's
// format notes. It never interprets row payloads; that is the models
// package's job.
package database

import (
	"fmt"

	"github.com/crateindex/exportdb/internal/bytesource"
	"github.com/crateindex/exportdb/internal/xerrors"
)

// TableType identifies one of the closed set of logical tables a database
// or extension file can contain (§3.1). Numeric values are this decoder's
// own fixed assignment — spec.md names the set but not the wire codes, so
// the values below are a recorded Open Question decision (see DESIGN.md).
type TableType uint32

const (
	TypeTracks           TableType = 0
	TypeGenres           TableType = 1
	TypeArtists          TableType = 2
	TypeAlbums           TableType = 3
	TypeLabels           TableType = 4
	TypeKeys             TableType = 5
	TypeColors           TableType = 6
	TypePlaylistTree     TableType = 7
	TypePlaylistEntries  TableType = 8
	TypeArtwork          TableType = 13
	TypeHistoryPlaylists TableType = 17
	TypeHistoryEntries   TableType = 18
	TypeTags             TableType = 20 // extension file only
	TypeTagTracks        TableType = 21 // extension file only
)

var tableTypeNames = map[TableType]string{
	TypeTracks:           "tracks",
	TypeGenres:           "genres",
	TypeArtists:          "artists",
	TypeAlbums:           "albums",
	TypeLabels:           "labels",
	TypeKeys:             "keys",
	TypeColors:           "colors",
	TypePlaylistTree:     "playlist_tree",
	TypePlaylistEntries:  "playlist_entries",
	TypeArtwork:          "artwork",
	TypeHistoryPlaylists: "history_playlists",
	TypeHistoryEntries:   "history_entries",
	TypeTags:             "tags",
	TypeTagTracks:        "tag_tracks",
}

// String returns the table's canonical lowercase name, or "unknown_<n>"
// for a type code this decoder doesn't recognize.
func (t TableType) String() string {
	if name, ok := tableTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown_%d", uint32(t))
}

// headerSize is the fixed length, in bytes, of the file header preceding
// the table-pointer array (§3.1: "a fixed-size header ... followed by a
// sequence of fixed-size pages").
const headerSize = 28

// tablePointerSize is the fixed length of each table descriptor entry
// immediately following the header.
const tablePointerSize = 16

// dataPageFlag is the page_flags bit that marks a page as a data page
// (§3.1: "A page is a 'data page' only when a specific flag bit is set").
const dataPageFlag = 0x1

// Table is one table descriptor: a type code plus the first/last page of
// its page chain (§3.1).
type Table struct {
	Type      TableType
	FirstPage uint32
	LastPage  uint32
}

// Header holds the parsed root header of a database or extension file.
type Header struct {
	PageSize  uint32
	NumTables uint32
	Sequence  uint32
}

// DBFile is an opened collection-database file: its header plus the table
// descriptors that follow it.
type DBFile struct {
	Path   string
	Header Header
	src    bytesource.Source
	tables []Table
}

// Open parses the root header and table-pointer array of src. It performs
// the single magic check the format defines (the reserved header field must
// be zero) and enumerates the file's tables; duplicate table types are a
// fatal error per §3.4.
func Open(path string, src bytesource.Source) (*DBFile, error) {
	magic, err := src.ReadU32LE(0)
	if err != nil {
		return nil, err
	}
	if magic != 0 {
		return nil, xerrors.BadMagic(path, 0, "0x00000000", fmt.Sprintf("0x%08x", magic))
	}

	pageSize, err := src.ReadU32LE(4)
	if err != nil {
		return nil, err
	}
	numTables, err := src.ReadU32LE(8)
	if err != nil {
		return nil, err
	}
	sequence, err := src.ReadU32LE(20)
	if err != nil {
		return nil, err
	}

	f := &DBFile{
		Path: path,
		Header: Header{
			PageSize:  pageSize,
			NumTables: numTables,
			Sequence:  sequence,
		},
		src: src,
	}

	seen := make(map[TableType]bool, numTables)
	for i := uint32(0); i < numTables; i++ {
		base := int64(headerSize) + int64(i)*tablePointerSize
		typeCode, err := src.ReadU32LE(base)
		if err != nil {
			return nil, err
		}
		firstPage, err := src.ReadU32LE(base + 8)
		if err != nil {
			return nil, err
		}
		lastPage, err := src.ReadU32LE(base + 12)
		if err != nil {
			return nil, err
		}
		t := Table{Type: TableType(typeCode), FirstPage: firstPage, LastPage: lastPage}
		if seen[t.Type] {
			return nil, xerrors.DuplicateTable(path, typeCode)
		}
		seen[t.Type] = true
		f.tables = append(f.tables, t)
	}

	return f, nil
}

// Source returns the underlying byte source, for row decoders that need to
// read string payloads beyond a row's fixed fields.
func (f *DBFile) Source() bytesource.Source { return f.src }

// Tables returns every table descriptor found in the header.
func (f *DBFile) Tables() []Table { return f.tables }

// Table returns the descriptor for t, if present.
func (f *DBFile) Table(t TableType) (Table, bool) {
	for _, tbl := range f.tables {
		if tbl.Type == t {
			return tbl, true
		}
	}
	return Table{}, false
}
