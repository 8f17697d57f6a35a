package models

import "github.com/crateindex/exportdb/internal/bytesource"

// PlaylistEntry links a track into a playlist at a given position. History
// playlists reuse the exact same layout (§4.4), so HistoryEntry is an alias.
type PlaylistEntry struct {
	PlaylistID uint32
	EntryIndex uint32
	TrackID    uint32
}

// HistoryEntry rows share PlaylistEntry's layout.
type HistoryEntry = PlaylistEntry

// DecodePlaylistEntry reads a fixed 12-byte playlist/history entry row.
func DecodePlaylistEntry(src bytesource.Source, rowStart int64) (PlaylistEntry, []error, error) {
	var e PlaylistEntry

	playlistID, err := src.ReadU32LE(rowStart)
	if err != nil {
		return PlaylistEntry{}, nil, err
	}
	entryIndex, err := src.ReadU32LE(rowStart + 4)
	if err != nil {
		return PlaylistEntry{}, nil, err
	}
	trackID, err := src.ReadU32LE(rowStart + 8)
	if err != nil {
		return PlaylistEntry{}, nil, err
	}

	e.PlaylistID = playlistID
	e.EntryIndex = entryIndex
	e.TrackID = trackID
	return e, nil, nil
}

// DecodeHistoryEntry reads a history-playlist entry row (identical layout
// to DecodePlaylistEntry).
func DecodeHistoryEntry(src bytesource.Source, rowStart int64) (HistoryEntry, []error, error) {
	return DecodePlaylistEntry(src, rowStart)
}
