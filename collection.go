package exportdb

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/crateindex/exportdb/internal/bytesource"
	"github.com/crateindex/exportdb/internal/cache"
	"github.com/crateindex/exportdb/internal/database"
	"github.com/crateindex/exportdb/internal/metrics"
	"github.com/crateindex/exportdb/internal/models"
	"github.com/crateindex/exportdb/internal/playlist"
	"github.com/crateindex/exportdb/internal/warnlog"
	"github.com/crateindex/exportdb/internal/xerrors"
)

// DanglingFK records a foreign key that does not resolve in its target
// table's primary index (§3.4: "recorded as non-fatal").
type DanglingFK struct {
	Table   string
	Field   string
	RowID   uint32
	FKValue uint32
}

// Collection is the fully indexed, immutable view of an opened database
// file (§6.4's open_database contract). Every map is a primary index keyed
// by row ID; TrackTitleIndex is the one secondary index spec.md names
// explicitly (§4.5's "case-folded title lookup").
type Collection struct {
	Path string

	Tracks    map[uint32]models.Track
	Artists   map[uint32]models.NamedEntity
	Albums    map[uint32]models.NamedEntity
	Labels    map[uint32]models.NamedEntity
	Keys      map[uint32]models.NamedEntity
	Genres    map[uint32]models.NamedEntity
	Colors    map[uint32]models.NamedEntity
	Artwork   map[uint32]models.Artwork
	Tags      map[uint32]models.Tag
	Playlists map[uint32]models.PlaylistTree
	History   map[uint32]models.HistoryPlaylist

	TrackTitleIndex map[string][]uint32

	PlaylistTree       *playlist.Node
	PlaylistTrackLists map[uint32]playlist.TrackList
	HistoryTrackLists  map[uint32]playlist.TrackList
	TagTracks          map[uint32][]uint32

	warnings *warnlog.Log
	dangling []DanglingFK
}

// Warnings returns every recoverable condition logged while decoding,
// oldest first, bounded by Options.WarnBufferSize.
func (c *Collection) Warnings() []error { return c.warnings.All() }

// DanglingForeignKeys returns every non-zero foreign key that failed to
// resolve in its target table's primary index.
func (c *Collection) DanglingForeignKeys() []DanglingFK { return c.dangling }

// collectionSnapshot is the gob-encodable subset of Collection that
// WithPageCache persists: every index built by the page walk, minus the
// warning log and the derived PlaylistTree (rebuilt cheaply from Playlists
// on a cache hit rather than serialized).
type collectionSnapshot struct {
	Tracks    map[uint32]models.Track
	Artists   map[uint32]models.NamedEntity
	Albums    map[uint32]models.NamedEntity
	Labels    map[uint32]models.NamedEntity
	Keys      map[uint32]models.NamedEntity
	Genres    map[uint32]models.NamedEntity
	Colors    map[uint32]models.NamedEntity
	Artwork   map[uint32]models.Artwork
	Tags      map[uint32]models.Tag
	Playlists map[uint32]models.PlaylistTree
	History   map[uint32]models.HistoryPlaylist

	TrackTitleIndex    map[string][]uint32
	PlaylistTrackLists map[uint32]playlist.TrackList
	HistoryTrackLists  map[uint32]playlist.TrackList
	TagTracks          map[uint32][]uint32

	Dangling []DanglingFK
}

func (c *Collection) snapshot() collectionSnapshot {
	return collectionSnapshot{
		Tracks: c.Tracks, Artists: c.Artists, Albums: c.Albums, Labels: c.Labels,
		Keys: c.Keys, Genres: c.Genres, Colors: c.Colors, Artwork: c.Artwork,
		Tags: c.Tags, Playlists: c.Playlists, History: c.History,
		TrackTitleIndex: c.TrackTitleIndex, PlaylistTrackLists: c.PlaylistTrackLists,
		HistoryTrackLists: c.HistoryTrackLists, TagTracks: c.TagTracks, Dangling: c.dangling,
	}
}

func (c *Collection) restore(s collectionSnapshot) {
	c.Tracks, c.Artists, c.Albums, c.Labels = s.Tracks, s.Artists, s.Albums, s.Labels
	c.Keys, c.Genres, c.Colors, c.Artwork = s.Keys, s.Genres, s.Colors, s.Artwork
	c.Tags, c.Playlists, c.History = s.Tags, s.Playlists, s.History
	c.TrackTitleIndex, c.PlaylistTrackLists = s.TrackTitleIndex, s.PlaylistTrackLists
	c.HistoryTrackLists, c.TagTracks = s.HistoryTrackLists, s.TagTracks
	c.dangling = s.Dangling

	trees := make([]models.PlaylistTree, 0, len(c.Playlists))
	for _, p := range c.Playlists {
		trees = append(trees, p)
	}
	c.PlaylistTree = playlist.BuildTree(trees)
}

// fileIdentity reports the (size, mtime) pair a PageCache keys entries by,
// so a modified file never serves a stale cached index.
func fileIdentity(path string) (size, mtimeUnixNano int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, xerrors.IO(path, err)
	}
	return info.Size(), info.ModTime().UnixNano(), nil
}

// OpenDatabase memory-maps path, walks every table's page chain, and
// returns a fully indexed Collection (§6.4). If opts supplies WithPageCache
// and the file's (path, size, mtime) identity matches a prior run's cached
// index, the page walk is skipped entirely.
func OpenDatabase(path string, opts ...Option) (*Collection, error) {
	settings := applyOptions(opts)
	start := time.Now()

	if settings.pageCache == nil && settings.options.CacheDir != "" {
		// A cache that cannot be opened is skipped; it is never required
		// for a correct decode.
		if pc, err := cache.OpenPageCache(settings.options.CacheDir); err == nil {
			defer pc.Close()
			settings.pageCache = pc
		}
	}

	var size, mtime int64
	if settings.pageCache != nil {
		var err error
		size, mtime, err = fileIdentity(path)
		if err != nil {
			return nil, err
		}
		if blob, hit, err := settings.pageCache.Get(path, size, mtime); err == nil && hit {
			var snap collectionSnapshot
			if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&snap); err == nil {
				c := &Collection{Path: path, warnings: warnlog.New(settings.options.WarnBufferSize)}
				c.restore(snap)
				metrics.ObserveOpenDuration(time.Since(start))
				return c, nil
			}
		}
	}

	src, err := bytesource.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	f, err := database.Open(path, src)
	if err != nil {
		metrics.IncFatalAbort(classify(err))
		return nil, err
	}
	if f.Header.PageSize < settings.options.MinPageSize || f.Header.PageSize > settings.options.MaxPageSize {
		return nil, xerrorsBadPageSize(path, f.Header.PageSize)
	}

	c := &Collection{
		Path:      path,
		Tracks:    map[uint32]models.Track{},
		Artists:   map[uint32]models.NamedEntity{},
		Albums:    map[uint32]models.NamedEntity{},
		Labels:    map[uint32]models.NamedEntity{},
		Keys:      map[uint32]models.NamedEntity{},
		Genres:    map[uint32]models.NamedEntity{},
		Colors:    map[uint32]models.NamedEntity{},
		Artwork:   map[uint32]models.Artwork{},
		Tags:      map[uint32]models.Tag{},
		Playlists: map[uint32]models.PlaylistTree{},
		History:   map[uint32]models.HistoryPlaylist{},
		TagTracks: map[uint32][]uint32{},
		warnings:  warnlog.New(settings.options.WarnBufferSize),
	}

	var playlistEntries []models.PlaylistEntry
	var historyEntries []models.HistoryEntry
	seenIDs := map[database.TableType]map[uint32]bool{}

	for _, t := range f.Tables() {
		decode, ok := models.Decoders[t.Type]
		if !ok {
			// Count the present rows of a table with no decoder; a walk error
			// only ends the count, since the table's rows are never used.
			_ = f.ForEachPage(t, func(p database.Page) error {
				return f.ForEachRow(p, func(database.RawRow) error {
					metrics.IncRowsSkipped(t.Type.String())
					return nil
				})
			})
			continue
		}
		seen := seenIDs[t.Type]
		if seen == nil {
			seen = map[uint32]bool{}
			seenIDs[t.Type] = seen
		}

		err := f.ForEachPage(t, func(p database.Page) error {
			return f.ForEachRow(p, func(raw database.RawRow) error {
				row, warnings, err := decode(src, raw.AbsOffset)
				for _, w := range warnings {
					c.warnings.Add(w)
					logWarning("database", w)
					metrics.IncWarning("database")
				}
				if err != nil {
					return err
				}
				id := rowID(row)
				if seen[id] {
					dupWarn := fmt.Errorf("%s: duplicate row id %d in table %v", path, id, t.Type)
					c.warnings.Add(dupWarn)
					logWarning("database", dupWarn)
				}
				seen[id] = true
				c.absorb(row)
				metrics.IncRowsDecoded(t.Type.String())
				if row.Entry != nil {
					if t.Type == database.TypePlaylistEntries {
						playlistEntries = append(playlistEntries, *row.Entry)
					} else {
						historyEntries = append(historyEntries, models.HistoryEntry(*row.Entry))
					}
				}
				return nil
			})
		})
		if err != nil {
			metrics.IncFatalAbort(classify(err))
			return nil, err
		}
	}

	c.buildSecondaryIndexes(playlistEntries, historyEntries)
	c.checkForeignKeys()

	metrics.SetTablesParsed(len(f.Tables()))
	metrics.ObserveOpenDuration(time.Since(start))

	if settings.pageCache != nil {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(c.snapshot()); err == nil {
			putErr := settings.pageCache.Put(path, size, mtime, buf.Bytes())
			if putErr != nil {
				c.warnings.Add(putErr)
				logWarning("cache", putErr)
			}
		}
	}

	return c, nil
}

// absorb files a decoded row into the map matching its Row.Type.
func (c *Collection) absorb(row models.Row) {
	switch row.Type {
	case database.TypeTracks:
		c.Tracks[row.Track.ID] = *row.Track
	case database.TypeArtists:
		c.Artists[row.Entity.ID] = *row.Entity
	case database.TypeAlbums:
		c.Albums[row.Entity.ID] = *row.Entity
	case database.TypeLabels:
		c.Labels[row.Entity.ID] = *row.Entity
	case database.TypeKeys:
		c.Keys[row.Entity.ID] = *row.Entity
	case database.TypeGenres:
		c.Genres[row.Entity.ID] = *row.Entity
	case database.TypeColors:
		c.Colors[row.Entity.ID] = *row.Entity
	case database.TypeArtwork:
		c.Artwork[row.Artwork.ID] = *row.Artwork
	case database.TypePlaylistTree:
		c.Playlists[row.Playlist.ID] = *row.Playlist
	case database.TypeHistoryPlaylists:
		c.History[row.History.ID] = *row.History
	case database.TypeTags:
		c.Tags[row.Tag.ID] = *row.Tag
	case database.TypeTagTracks:
		c.TagTracks[row.TagLink.TagID] = append(c.TagTracks[row.TagLink.TagID], row.TagLink.TrackID)
	}
}

func rowID(row models.Row) uint32 {
	switch {
	case row.Track != nil:
		return row.Track.ID
	case row.Entity != nil:
		return row.Entity.ID
	case row.Artwork != nil:
		return row.Artwork.ID
	case row.Playlist != nil:
		return row.Playlist.ID
	case row.History != nil:
		return row.History.ID
	case row.Tag != nil:
		return row.Tag.ID
	case row.Entry != nil:
		return row.Entry.PlaylistID<<16 ^ row.Entry.EntryIndex
	case row.TagLink != nil:
		return row.TagLink.TagID<<16 ^ row.TagLink.TrackID
	default:
		return 0
	}
}

func (c *Collection) buildSecondaryIndexes(playlistEntries []models.PlaylistEntry, historyEntries []models.HistoryEntry) {
	c.TrackTitleIndex = map[string][]uint32{}
	for id, tr := range c.Tracks {
		key := strings.ToLower(tr.Title)
		c.TrackTitleIndex[key] = append(c.TrackTitleIndex[key], id)
	}

	lists, warnings := playlist.BuildTrackLists(playlistEntries)
	c.PlaylistTrackLists = lists
	for _, w := range warnings {
		c.warnings.Add(w)
		logWarning("playlist", w)
	}

	historyLists, hwarnings := playlist.BuildHistoryLists(historyEntries)
	c.HistoryTrackLists = historyLists
	for _, w := range hwarnings {
		c.warnings.Add(w)
		logWarning("playlist", w)
	}

	trees := make([]models.PlaylistTree, 0, len(c.Playlists))
	for _, p := range c.Playlists {
		trees = append(trees, p)
	}
	c.PlaylistTree = playlist.BuildTree(trees)
}

// checkForeignKeys walks every row's known FK fields and records the ones
// that don't resolve, per §3.4/§8.
func (c *Collection) checkForeignKeys() {
	check := func(table, field string, rowID, fk uint32, resolves bool) {
		if fk == 0 || resolves {
			return
		}
		c.dangling = append(c.dangling, DanglingFK{Table: table, Field: field, RowID: rowID, FKValue: fk})
	}

	for id, tr := range c.Tracks {
		_, hasArtist := c.Artists[tr.ArtistID]
		check("tracks", "artist_id", id, tr.ArtistID, hasArtist)
		_, hasComposer := c.Artists[tr.ComposerID]
		check("tracks", "composer_id", id, tr.ComposerID, hasComposer)
		_, hasOriginal := c.Artists[tr.OriginalArtistID]
		check("tracks", "original_artist_id", id, tr.OriginalArtistID, hasOriginal)
		_, hasRemixer := c.Artists[tr.RemixerID]
		check("tracks", "remixer_id", id, tr.RemixerID, hasRemixer)
		_, hasAlbum := c.Albums[tr.AlbumID]
		check("tracks", "album_id", id, tr.AlbumID, hasAlbum)
		_, hasGenre := c.Genres[tr.GenreID]
		check("tracks", "genre_id", id, tr.GenreID, hasGenre)
		_, hasLabel := c.Labels[tr.LabelID]
		check("tracks", "label_id", id, tr.LabelID, hasLabel)
		_, hasKey := c.Keys[tr.KeyID]
		check("tracks", "key_id", id, tr.KeyID, hasKey)
		_, hasColor := c.Colors[tr.ColorID]
		check("tracks", "color_id", id, tr.ColorID, hasColor)
		_, hasArtwork := c.Artwork[tr.ArtworkID]
		check("tracks", "artwork_id", id, tr.ArtworkID, hasArtwork)
	}

	for playlistID, list := range c.PlaylistTrackLists {
		for _, trackID := range list {
			_, ok := c.Tracks[trackID]
			check("playlist_entries", "track_id", playlistID, trackID, ok)
		}
	}

	for id, tag := range c.Tags {
		_, hasCategory := c.Tags[tag.CategoryID]
		check("tags", "category_id", id, tag.CategoryID, hasCategory)
	}

	for tagID, trackIDs := range c.TagTracks {
		for _, trackID := range trackIDs {
			_, ok := c.Tracks[trackID]
			check("tag_tracks", "track_id", tagID, trackID, ok)
		}
	}
}

// xerrorsBadPageSize reports a header page_size outside the configured
// [MinPageSize, MaxPageSize] sanity bounds, guarding against a corrupt
// header driving an unbounded allocation during the page walk.
func xerrorsBadPageSize(path string, pageSize uint32) error {
	return xerrors.BadMagic(path, 4, "page_size within configured bounds", fmt.Sprintf("%d", pageSize))
}

func classify(err error) string {
	switch {
	case err == nil:
		return "none"
	default:
		return "decode_error"
	}
}
