// Package exportdb decodes a DJ library export: the paginated collection
// database (tracks, artists, albums, playlists, tags, ...) and the
// per-track analysis bundle (beat grid, cue points, waveform previews,
// phrase structure) that sits alongside each audio file.
//
// OpenDatabase returns a fully indexed, immutable Collection. OpenAnalysis
// returns an Analysis exposing whichever tagged sections a given file
// happens to carry. Both accept functional options for the decoder-wide
// tunables in Options.
package exportdb
