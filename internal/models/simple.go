package models

import "github.com/crateindex/exportdb/internal/bytesource"

// NamedEntity is the shared shape of the small lookup tables that carry
// little more than an ID and a display name (§4.4): Artist, Album, Label,
// Key, Genre and Color rows all follow this layout, differing only in
// whether a second, optional name slot is populated.
type NamedEntity struct {
	ID       uint32
	Name     string
	LongName string // populated only for tables that carry it (Artist, Album)
}

// Artist, Album, Label, Key, Genre and Color are all decoded identically;
// the type aliases keep call sites self-documenting.
type (
	Artist = NamedEntity
	Album  = NamedEntity
	Label  = NamedEntity
	Key    = NamedEntity
	Genre  = NamedEntity
	Color  = NamedEntity
)

const (
	namedEntitySlotName = iota
	namedEntitySlotLongName
)

const namedEntityFixedSize = 6

// DecodeNamedEntity reads the common id/name(/long-name) layout: a 4-byte
// ID, a 2-byte string-slot count, then the string-offset table itself.
func DecodeNamedEntity(src bytesource.Source, rowStart int64) (NamedEntity, []error, error) {
	var e NamedEntity
	var warnings []error

	id, err := src.ReadU32LE(rowStart)
	if err != nil {
		return NamedEntity{}, nil, err
	}
	e.ID = id

	numSlots, err := src.ReadU16LE(rowStart + 4)
	if err != nil {
		return NamedEntity{}, nil, err
	}

	offsets, err := readStringOffsets(src, rowStart, namedEntityFixedSize, numSlots)
	if err != nil {
		return NamedEntity{}, nil, err
	}

	e.Name = stringAt(src, rowStart, offsets, namedEntitySlotName, &warnings)
	e.LongName = stringAt(src, rowStart, offsets, namedEntitySlotLongName, &warnings)

	return e, warnings, nil
}
