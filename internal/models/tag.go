package models

import "github.com/crateindex/exportdb/internal/bytesource"

const tagFixedSize = 16

// Tag is a user-defined "MyTag" node: either a category (a grouping with
// no track associations of its own) or a leaf tag within one, ordered by
// CategoryPos within its CategoryID (§4.4, §4.5).
type Tag struct {
	ID          uint32
	CategoryID  uint32
	CategoryPos uint32
	IsCategory  bool
	Name        string
}

// TagTrack links a Tag to a Track; the pair has no independent ordering.
type TagTrack struct {
	TagID   uint32
	TrackID uint32
}

// DecodeTag reads a Tag row.
func DecodeTag(src bytesource.Source, rowStart int64) (Tag, []error, error) {
	var t Tag
	var warnings []error

	id, err := src.ReadU32LE(rowStart)
	if err != nil {
		return Tag{}, nil, err
	}
	categoryID, err := src.ReadU32LE(rowStart + 4)
	if err != nil {
		return Tag{}, nil, err
	}
	categoryPos, err := src.ReadU32LE(rowStart + 8)
	if err != nil {
		return Tag{}, nil, err
	}
	isCategory, err := src.ReadU8(rowStart + 12)
	if err != nil {
		return Tag{}, nil, err
	}
	numSlots, err := src.ReadU16LE(rowStart + 14)
	if err != nil {
		return Tag{}, nil, err
	}

	offsets, err := readStringOffsets(src, rowStart, tagFixedSize, numSlots)
	if err != nil {
		return Tag{}, nil, err
	}

	t.ID = id
	t.CategoryID = categoryID
	t.CategoryPos = categoryPos
	t.IsCategory = isCategory != 0
	t.Name = stringAt(src, rowStart, offsets, 0, &warnings)

	return t, warnings, nil
}

// DecodeTagTrack reads a fixed 8-byte tag/track link row.
func DecodeTagTrack(src bytesource.Source, rowStart int64) (TagTrack, []error, error) {
	tagID, err := src.ReadU32LE(rowStart)
	if err != nil {
		return TagTrack{}, nil, err
	}
	trackID, err := src.ReadU32LE(rowStart + 4)
	if err != nil {
		return TagTrack{}, nil, err
	}
	return TagTrack{TagID: tagID, TrackID: trackID}, nil, nil
}
