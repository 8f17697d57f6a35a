package models_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateindex/exportdb/internal/bytesource"
	"github.com/crateindex/exportdb/internal/dsql"
	"github.com/crateindex/exportdb/internal/models"
)

// buildRow lays out fixed bytes followed by a string-offset table and the
// string bodies themselves, mirroring how a real row is packed.
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

func TestDecodeTrackMinimal(t *testing.T) {
	fixed := make([]byte, 80)
	binary.LittleEndian.PutUint32(fixed[4:], 42)   // ID
	binary.LittleEndian.PutUint32(fixed[8:], 7)    // ArtistID
	binary.LittleEndian.PutUint16(fixed[48:], 12800) // 128.00 BPM
	binary.LittleEndian.PutUint16(fixed[78:], 1)   // numSlots (Title only)

	row := buildRow(fixed, "Test Track")

	tr, warnings, err := models.DecodeTrack(bytesource.NewBuffer(row), 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.EqualValues(t, 42, tr.ID)
	assert.EqualValues(t, 7, tr.ArtistID)
	assert.Equal(t, 128.0, tr.TempoBPM())
	assert.Equal(t, "Test Track", tr.Title)
	assert.Empty(t, tr.Comment)
}

func TestDecodeTrackTruncated(t *testing.T) {
	_, _, err := models.DecodeTrack(bytesource.NewBuffer(make([]byte, 4)), 0)
	require.Error(t, err)
}

func TestDecodeNamedEntity(t *testing.T) {
	fixed := make([]byte, 6)
	binary.LittleEndian.PutUint32(fixed[0:], 5)
	binary.LittleEndian.PutUint16(fixed[4:], 2)

	row := buildRow(fixed, "Artist Name", "Full Legal Name")

	e, warnings, err := models.DecodeNamedEntity(bytesource.NewBuffer(row), 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.EqualValues(t, 5, e.ID)
	assert.Equal(t, "Artist Name", e.Name)
	assert.Equal(t, "Full Legal Name", e.LongName)
}

func TestDecodePlaylistEntry(t *testing.T) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:], 3)
	binary.LittleEndian.PutUint32(buf[4:], 0)
	binary.LittleEndian.PutUint32(buf[8:], 99)

	e, warnings, err := models.DecodePlaylistEntry(bytesource.NewBuffer(buf), 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.EqualValues(t, 3, e.PlaylistID)
	assert.EqualValues(t, 0, e.EntryIndex)
	assert.EqualValues(t, 99, e.TrackID)
}

func TestDecodePlaylistTree(t *testing.T) {
	fixed := make([]byte, 16)
	binary.LittleEndian.PutUint32(fixed[0:], 1)
	binary.LittleEndian.PutUint32(fixed[4:], 0)
	binary.LittleEndian.PutUint32(fixed[8:], 2)
	fixed[12] = 1 // IsFolder
	binary.LittleEndian.PutUint16(fixed[14:], 1)

	row := buildRow(fixed, "My Folder")

	tr, warnings, err := models.DecodePlaylistTree(bytesource.NewBuffer(row), 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, tr.IsFolder)
	assert.Equal(t, "My Folder", tr.Name)
}

func TestDecodeTag(t *testing.T) {
	fixed := make([]byte, 16)
	binary.LittleEndian.PutUint32(fixed[0:], 10)
	binary.LittleEndian.PutUint32(fixed[4:], 1)
	binary.LittleEndian.PutUint32(fixed[8:], 0)
	fixed[12] = 0
	binary.LittleEndian.PutUint16(fixed[14:], 1)

	row := buildRow(fixed, "Energy")

	tag, warnings, err := models.DecodeTag(bytesource.NewBuffer(row), 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.False(t, tag.IsCategory)
	assert.Equal(t, "Energy", tag.Name)
}

func TestDecodeTagTrack(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:], 10)
	binary.LittleEndian.PutUint32(buf[4:], 42)

	link, warnings, err := models.DecodeTagTrack(bytesource.NewBuffer(buf), 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.EqualValues(t, 10, link.TagID)
	assert.EqualValues(t, 42, link.TrackID)
}

func TestStringAtMissingSlotIsEmpty(t *testing.T) {
	fixed := make([]byte, 6)
	binary.LittleEndian.PutUint32(fixed[0:], 1)
	binary.LittleEndian.PutUint16(fixed[4:], 0) // no string slots at all

	e, warnings, err := models.DecodeNamedEntity(bytesource.NewBuffer(fixed), 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, e.Name)
	assert.Empty(t, e.LongName)
}
