package models

import "github.com/crateindex/exportdb/internal/bytesource"

const artworkFixedSize = 6

// Artwork is a decoded artwork row: an ID and the on-disk path to the
// cached artwork file.
type Artwork struct {
	ID   uint32
	Path string
}

// DecodeArtwork reads an Artwork row.
func DecodeArtwork(src bytesource.Source, rowStart int64) (Artwork, []error, error) {
	var a Artwork
	var warnings []error

	id, err := src.ReadU32LE(rowStart)
	if err != nil {
		return Artwork{}, nil, err
	}
	a.ID = id

	numSlots, err := src.ReadU16LE(rowStart + 4)
	if err != nil {
		return Artwork{}, nil, err
	}

	offsets, err := readStringOffsets(src, rowStart, artworkFixedSize, numSlots)
	if err != nil {
		return Artwork{}, nil, err
	}

	a.Path = stringAt(src, rowStart, offsets, 0, &warnings)
	return a, warnings, nil
}
