package models

import "github.com/crateindex/exportdb/internal/bytesource"

const historyPlaylistFixedSize = 6

// HistoryPlaylist names one recorded playback session; its ordered track
// list lives in the history-entries table keyed by ID (§4.5).
type HistoryPlaylist struct {
	ID   uint32
	Name string
}

// DecodeHistoryPlaylist reads a HistoryPlaylist row.
func DecodeHistoryPlaylist(src bytesource.Source, rowStart int64) (HistoryPlaylist, []error, error) {
	var h HistoryPlaylist
	var warnings []error

	id, err := src.ReadU32LE(rowStart)
	if err != nil {
		return HistoryPlaylist{}, nil, err
	}
	numSlots, err := src.ReadU16LE(rowStart + 4)
	if err != nil {
		return HistoryPlaylist{}, nil, err
	}

	offsets, err := readStringOffsets(src, rowStart, historyPlaylistFixedSize, numSlots)
	if err != nil {
		return HistoryPlaylist{}, nil, err
	}

	h.ID = id
	h.Name = stringAt(src, rowStart, offsets, 0, &warnings)
	return h, warnings, nil
}
