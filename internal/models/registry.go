package models

import (
	"github.com/crateindex/exportdb/internal/bytesource"
	"github.com/crateindex/exportdb/internal/database"
)

// Row is a decoded row of any table type, tagged so an Indexer can type-
// switch on it without knowing the table code up front.
type Row struct {
	Type     database.TableType
	Track    *Track
	Entity   *NamedEntity
	Artwork  *Artwork
	Playlist *PlaylistTree
	Entry    *PlaylistEntry
	History  *HistoryPlaylist
	Tag      *Tag
	TagLink  *TagTrack
}

// Decoder decodes one row of a known table type starting at rowStart.
type Decoder func(src bytesource.Source, rowStart int64) (Row, []error, error)

// Decoders maps every table type this package knows how to decode to its
// decoder function. Table types absent from this map are skipped by
// callers rather than treated as an error (§4.3: unknown table types are
// legitimately encountered on newer database revisions).
var Decoders = map[database.TableType]Decoder{
	database.TypeTracks:           wrapTrack,
	database.TypeArtists:          wrapEntityAs(database.TypeArtists),
	database.TypeAlbums:           wrapEntityAs(database.TypeAlbums),
	database.TypeLabels:           wrapEntityAs(database.TypeLabels),
	database.TypeKeys:             wrapEntityAs(database.TypeKeys),
	database.TypeGenres:           wrapEntityAs(database.TypeGenres),
	database.TypeColors:           wrapEntityAs(database.TypeColors),
	database.TypeArtwork:          wrapArtwork,
	database.TypePlaylistTree:     wrapPlaylistTree,
	database.TypePlaylistEntries:  wrapPlaylistEntry,
	database.TypeHistoryPlaylists: wrapHistoryPlaylist,
	database.TypeHistoryEntries:   wrapHistoryEntry,
	database.TypeTags:             wrapTag,
	database.TypeTagTracks:        wrapTagTrack,
}

func wrapTrack(src bytesource.Source, off int64) (Row, []error, error) {
	v, w, err := DecodeTrack(src, off)
	if err != nil {
		return Row{}, w, err
	}
	return Row{Type: database.TypeTracks, Track: &v}, w, nil
}

// wrapEntityAs closes over which logical table a NamedEntity row belongs
// to, since a single decoder shape serves artists, albums, labels, keys,
// genres, and colors.
func wrapEntityAs(t database.TableType) Decoder {
	return func(src bytesource.Source, off int64) (Row, []error, error) {
		v, w, err := DecodeNamedEntity(src, off)
		if err != nil {
			return Row{}, w, err
		}
		return Row{Type: t, Entity: &v}, w, nil
	}
}

func wrapArtwork(src bytesource.Source, off int64) (Row, []error, error) {
	v, w, err := DecodeArtwork(src, off)
	if err != nil {
		return Row{}, w, err
	}
	return Row{Type: database.TypeArtwork, Artwork: &v}, w, nil
}

func wrapPlaylistTree(src bytesource.Source, off int64) (Row, []error, error) {
	v, w, err := DecodePlaylistTree(src, off)
	if err != nil {
		return Row{}, w, err
	}
	return Row{Type: database.TypePlaylistTree, Playlist: &v}, w, nil
}

func wrapPlaylistEntry(src bytesource.Source, off int64) (Row, []error, error) {
	v, w, err := DecodePlaylistEntry(src, off)
	if err != nil {
		return Row{}, w, err
	}
	return Row{Type: database.TypePlaylistEntries, Entry: &v}, w, nil
}

func wrapHistoryPlaylist(src bytesource.Source, off int64) (Row, []error, error) {
	v, w, err := DecodeHistoryPlaylist(src, off)
	if err != nil {
		return Row{}, w, err
	}
	return Row{Type: database.TypeHistoryPlaylists, History: &v}, w, nil
}

func wrapHistoryEntry(src bytesource.Source, off int64) (Row, []error, error) {
	v, w, err := DecodeHistoryEntry(src, off)
	if err != nil {
		return Row{}, w, err
	}
	return Row{Type: database.TypeHistoryEntries, Entry: &v}, w, nil
}

func wrapTag(src bytesource.Source, off int64) (Row, []error, error) {
	v, w, err := DecodeTag(src, off)
	if err != nil {
		return Row{}, w, err
	}
	return Row{Type: database.TypeTags, Tag: &v}, w, nil
}

func wrapTagTrack(src bytesource.Source, off int64) (Row, []error, error) {
	v, w, err := DecodeTagTrack(src, off)
	if err != nil {
		return Row{}, w, err
	}
	return Row{Type: database.TypeTagTracks, TagLink: &v}, w, nil
}
