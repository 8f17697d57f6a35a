package exportdb_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exportdb "github.com/crateindex/exportdb"
	"github.com/crateindex/exportdb/internal/database"
	"github.com/crateindex/exportdb/internal/dsql"
	"github.com/crateindex/exportdb/internal/testutil"
)

const testPageSize = 1024

func buildRow(fixed []byte, strs ...string) []byte {
	buf := append([]byte{}, fixed...)
	offsetTablePos := len(buf)
	buf = append(buf, make([]byte, len(strs)*2)...)
	for i, s := range strs {
		bodyOffset := len(buf)
		binary.LittleEndian.PutUint16(buf[offsetTablePos+i*2:], uint16(bodyOffset))
		buf = append(buf, dsql.Encode(dsql.KindShortASCII, s)...)
	}
	return buf
}

func writeTempDB(t *testing.T, raw []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "export.pdb")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

// buildOneTrackDB constructs the minimal database from spec's concrete
// scenario 1: one track, ID 42, title "Demo", tempo 128.00 BPM.
func buildOneTrackDB(t *testing.T) string {
	t.Helper()
	fixed := make([]byte, 80)
	binary.LittleEndian.PutUint32(fixed[4:], 42) // ID
	binary.LittleEndian.PutUint16(fixed[48:], 12800)
	binary.LittleEndian.PutUint16(fixed[78:], 1) // numSlots
	row := buildRow(fixed, "Demo")

	page := testutil.NewPage(testPageSize, 1, 1, 0).AsDataPage().AddRow(row).Build()
	raw := testutil.NewDatabase(testPageSize).
		AddTable(uint32(database.TypeTracks), 1, 1).
		AddPage(page).
		Build()
	return writeTempDB(t, raw)
}

func TestOpenDatabaseConcreteScenario1(t *testing.T) {
	path := buildOneTrackDB(t)

	c, err := exportdb.OpenDatabase(path)
	require.NoError(t, err)

	tr, ok := c.Tracks[42]
	require.True(t, ok)
	assert.Equal(t, "Demo", tr.Title)
	assert.Equal(t, 128.0, tr.TempoBPM())
	assert.Equal(t, []uint32{42}, c.TrackTitleIndex["demo"])
}

func TestOpenDatabaseRejectsBadMagic(t *testing.T) {
	raw := make([]byte, testPageSize)
	raw[0] = 0xff
	path := writeTempDB(t, raw)

	_, err := exportdb.OpenDatabase(path)
	require.Error(t, err)
}

func TestOpenDatabaseFlagsDanglingArtist(t *testing.T) {
	fixed := make([]byte, 80)
	binary.LittleEndian.PutUint32(fixed[4:], 1)  // ID
	binary.LittleEndian.PutUint32(fixed[8:], 99) // ArtistID, never defined
	row := buildRow(fixed)

	page := testutil.NewPage(testPageSize, 1, 1, 0).AsDataPage().AddRow(row).Build()
	raw := testutil.NewDatabase(testPageSize).
		AddTable(uint32(database.TypeTracks), 1, 1).
		AddPage(page).
		Build()
	path := writeTempDB(t, raw)

	c, err := exportdb.OpenDatabase(path)
	require.NoError(t, err)

	dangling := c.DanglingForeignKeys()
	require.Len(t, dangling, 1)
	assert.Equal(t, "artist_id", dangling[0].Field)
	assert.EqualValues(t, 99, dangling[0].FKValue)
}

func TestOpenDatabasePlaylistTrackListFillsHoles(t *testing.T) {
	entry0 := make([]byte, 12)
	binary.LittleEndian.PutUint32(entry0[0:], 5)   // playlist id
	binary.LittleEndian.PutUint32(entry0[4:], 0)   // entry index
	binary.LittleEndian.PutUint32(entry0[8:], 100) // track id

	entry1 := make([]byte, 12)
	binary.LittleEndian.PutUint32(entry1[0:], 5)
	binary.LittleEndian.PutUint32(entry1[4:], 2)
	binary.LittleEndian.PutUint32(entry1[8:], 300)

	page := testutil.NewPage(testPageSize, 1, 1, 0).AsDataPage().AddRow(entry0).AddRow(entry1).Build()
	raw := testutil.NewDatabase(testPageSize).
		AddTable(uint32(database.TypePlaylistEntries), 1, 1).
		AddPage(page).
		Build()
	path := writeTempDB(t, raw)

	c, err := exportdb.OpenDatabase(path)
	require.NoError(t, err)

	list, ok := c.PlaylistTrackLists[5]
	require.True(t, ok)
	assert.Equal(t, []uint32{100, 0, 300}, []uint32(list))
}

func TestOpenDatabaseSkipsUnknownTableType(t *testing.T) {
	page := testutil.NewPage(testPageSize, 1, 1, 0).AsDataPage().AddRow([]byte{1, 2, 3, 4}).Build()
	raw := testutil.NewDatabase(testPageSize).
		AddTable(999, 1, 1).
		AddPage(page).
		Build()
	path := writeTempDB(t, raw)

	c, err := exportdb.OpenDatabase(path)
	require.NoError(t, err)
	assert.Empty(t, c.Tracks)
}
