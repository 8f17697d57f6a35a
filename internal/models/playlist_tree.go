package models

import "github.com/crateindex/exportdb/internal/bytesource"

const playlistTreeFixedSize = 16

// PlaylistTree is one node in the playlist folder/list tree: a folder if
// IsFolder is set, otherwise a leaf playlist whose entries live in the
// playlist-entries table keyed by ID (§4.5).
type PlaylistTree struct {
	ID        uint32
	ParentID  uint32
	SortOrder uint32
	IsFolder  bool
	Name      string
}

// DecodePlaylistTree reads a PlaylistTree row.
func DecodePlaylistTree(src bytesource.Source, rowStart int64) (PlaylistTree, []error, error) {
	var t PlaylistTree
	var warnings []error

	id, err := src.ReadU32LE(rowStart)
	if err != nil {
		return PlaylistTree{}, nil, err
	}
	parentID, err := src.ReadU32LE(rowStart + 4)
	if err != nil {
		return PlaylistTree{}, nil, err
	}
	sortOrder, err := src.ReadU32LE(rowStart + 8)
	if err != nil {
		return PlaylistTree{}, nil, err
	}
	isFolder, err := src.ReadU8(rowStart + 12)
	if err != nil {
		return PlaylistTree{}, nil, err
	}
	numSlots, err := src.ReadU16LE(rowStart + 14)
	if err != nil {
		return PlaylistTree{}, nil, err
	}

	offsets, err := readStringOffsets(src, rowStart, playlistTreeFixedSize, numSlots)
	if err != nil {
		return PlaylistTree{}, nil, err
	}

	t.ID = id
	t.ParentID = parentID
	t.SortOrder = sortOrder
	t.IsFolder = isFolder != 0
	t.Name = stringAt(src, rowStart, offsets, 0, &warnings)

	return t, warnings, nil
}
