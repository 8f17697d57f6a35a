package anlz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateindex/exportdb/internal/bytesource"
)

func beU32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func beU16Bytes(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func buildEnvelope(sections ...[]byte) []byte {
	total := 0
	for _, s := range sections {
		total += len(s)
	}
	buf := []byte{}
	buf = append(buf, []byte(envelopeMagic)...)
	buf = append(buf, beU32Bytes(envelopeHeaderSize)...)
	buf = append(buf, beU32Bytes(uint32(envelopeHeaderSize+total))...)
	for _, s := range sections {
		buf = append(buf, s...)
	}
	return buf
}

func buildSection(fourcc string, body []byte) []byte {
	lenHeader := uint32(sectionHeaderSize)
	lenTag := lenHeader + uint32(len(body))
	buf := []byte(fourcc)
	buf = append(buf, beU32Bytes(lenHeader)...)
	buf = append(buf, beU32Bytes(lenTag)...)
	buf = append(buf, body...)
	return buf
}

func TestOpenRejectsBadMagic(t *testing.T) {
	_, err := Open("f.dat", bytesource.NewBuffer([]byte("XXXX0000")))
	require.Error(t, err)
}

func TestOpenAndSections(t *testing.T) {
	pathBody := beU32Bytes(uint32(len("/USB/TEST.mp3")*2 + 2))
	var utf16 []byte
	for _, r := range "/USB/TEST.mp3" {
		utf16 = append(utf16, beU16Bytes(uint16(r))...)
	}
	utf16 = append(utf16, 0, 0)
	pathBody = append(pathBody, utf16...)

	raw := buildEnvelope(buildSection(TagPath, pathBody))
	f, err := Open("f.dat", bytesource.NewBuffer(raw))
	require.NoError(t, err)

	sections, err := f.Sections()
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, TagPath, sections[0].FourCC)
	assert.Equal(t, "f.dat", sections[0].Path)

	got, err := DecodePath(sections[0])
	require.NoError(t, err)
	assert.Equal(t, "/USB/TEST.mp3", got)
}

func TestSectionsFatalOnLenTagOverrun(t *testing.T) {
	raw := buildEnvelope()
	raw = append(raw, []byte("PQTZ")...)
	raw = append(raw, beU32Bytes(12)...)
	raw = append(raw, beU32Bytes(1000)...) // len_tag far past end of file

	f, err := Open("f.dat", bytesource.NewBuffer(raw))
	require.NoError(t, err)
	_, err = f.Sections()
	require.Error(t, err)
}

func TestFindMissingReturnsFalse(t *testing.T) {
	raw := buildEnvelope()
	f, err := Open("f.dat", bytesource.NewBuffer(raw))
	require.NoError(t, err)
	_, ok, err := f.Find(TagBeatGrid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func mustSection(t *testing.T, fourcc string, body []byte) Section {
	t.Helper()
	src := bytesource.NewBuffer(body)
	return Section{FourCC: fourcc, Body: src, Path: "f.dat", LenTag: int64(len(body))}
}

func TestDecodeBeatGridMonotonic(t *testing.T) {
	body := beU32Bytes(0)
	body = append(body, beU32Bytes(0)...)
	body = append(body, beU32Bytes(2)...) // len_beats
	body = append(body, beU16Bytes(1)...)
	body = append(body, beU16Bytes(12800)...)
	body = append(body, beU32Bytes(0)...)
	body = append(body, beU16Bytes(2)...)
	body = append(body, beU16Bytes(12800)...)
	body = append(body, beU32Bytes(469)...)

	g, err := DecodeBeatGrid(mustSection(t, TagBeatGrid, body))
	require.NoError(t, err)
	require.Len(t, g.Beats, 2)
	assert.EqualValues(t, 1, g.Beats[0].BeatNumber)
	assert.EqualValues(t, 128.0, float64(g.Beats[1].TempoCenti)/100)
}

func TestDecodeBeatGridRejectsNonMonotonic(t *testing.T) {
	body := beU32Bytes(0)
	body = append(body, beU32Bytes(0)...)
	body = append(body, beU32Bytes(2)...)
	body = append(body, beU16Bytes(1)...)
	body = append(body, beU16Bytes(12800)...)
	body = append(body, beU32Bytes(500)...)
	body = append(body, beU16Bytes(2)...)
	body = append(body, beU16Bytes(12800)...)
	body = append(body, beU32Bytes(100)...) // goes backwards

	_, err := DecodeBeatGrid(mustSection(t, TagBeatGrid, body))
	require.Error(t, err)
}

func buildCuePCP2(hotCue uint16, status, kind byte, timeMS uint32, extra []byte) []byte {
	body := beU16Bytes(hotCue)
	body = append(body, status, kind)
	body = append(body, beU32Bytes(0)...) // unknown
	body = append(body, beU32Bytes(timeMS)...)
	body = append(body, extra...)
	entry := []byte("PCP2")
	entry = append(entry, beU32Bytes(sectionHeaderSize)...)
	entry = append(entry, beU32Bytes(uint32(sectionHeaderSize+len(body)))...)
	entry = append(entry, body...)
	return entry
}

func TestDecodeCueListPCO2TruncatedAfterTimeMS(t *testing.T) {
	entry := buildCuePCP2(1, CueStatusNormal, byte(CueKindPoint), 1000, nil)

	listBody := beU32Bytes(1)                     // type = hot
	listBody = append(listBody, beU16Bytes(0)...) // unknown
	listBody = append(listBody, beU16Bytes(1)...)
	listBody = append(listBody, beU32Bytes(0)...) // memory_count
	listBody = append(listBody, entry...)

	list, err := DecodeCueList(mustSection(t, TagCueListExtended, listBody), true)
	require.NoError(t, err)
	require.Len(t, list.Cues, 1)
	assert.Nil(t, list.Cues[0].Color)
	assert.Empty(t, list.Cues[0].Comment)
	assert.EqualValues(t, 1000, list.Cues[0].TimeMS)
}

func TestDecodeCueListPCO2WithCommentAndColor(t *testing.T) {
	loopTime := beU32Bytes(2000)
	comment := []byte{}
	for _, r := range "verse" {
		comment = append(comment, beU16Bytes(uint16(r))...)
	}
	comment = append(comment, 0, 0)
	extra := append([]byte{}, loopTime...)
	extra = append(extra, beU32Bytes(uint32(len(comment)))...)
	extra = append(extra, comment...)
	extra = append(extra, 0x01, 0xff, 0x00, 0x00) // color

	entry := buildCuePCP2(2, CueStatusNormal, byte(CueKindPoint), 5000, extra)

	listBody := beU32Bytes(1)
	listBody = append(listBody, beU16Bytes(0)...) // unknown
	listBody = append(listBody, beU16Bytes(1)...)
	listBody = append(listBody, beU32Bytes(0)...)
	listBody = append(listBody, entry...)

	list, err := DecodeCueList(mustSection(t, TagCueListExtended, listBody), true)
	require.NoError(t, err)
	require.Len(t, list.Cues, 1)
	assert.Equal(t, "verse", list.Cues[0].Comment)
	require.NotNil(t, list.Cues[0].Color)
	assert.EqualValues(t, 0xff, list.Cues[0].Color.R)
}

func TestDecodeWaveformPreview(t *testing.T) {
	raw := make([]byte, 400)
	raw[0] = 0b101_11111 // whiteness=5, height=31
	g, err := DecodeWaveformPreview(mustSection(t, TagWaveformPreview, raw))
	require.NoError(t, err)
	require.Len(t, g, 400)
	assert.EqualValues(t, 31, g[0].Height)
	assert.EqualValues(t, 5, g[0].Whiteness)
}

func TestDecodeWaveformColorPreview(t *testing.T) {
	header := beU32Bytes(2)
	header = append(header, beU32Bytes(1)...)
	header = append(header, beU32Bytes(0)...)
	entry := beU16Bytes(0b111_010_001_11111_00)
	body := append(header, entry...)

	cols, err := DecodeWaveformColorPreview(mustSection(t, TagWaveformColorSm, body))
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.EqualValues(t, 7, cols[0].R)
	assert.EqualValues(t, 2, cols[0].G)
	assert.EqualValues(t, 1, cols[0].B)
	assert.EqualValues(t, 31, cols[0].Height)
}

func TestDecodeWaveformPreviewVestigialIsEmpty(t *testing.T) {
	cols, err := DecodeWaveformPreview(mustSection(t, TagWaveformPreview, nil))
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestDecodeWaveformPreviewShortIsRejected(t *testing.T) {
	_, err := DecodeWaveformPreview(mustSection(t, TagWaveformPreview, make([]byte, 10)))
	require.Error(t, err)
}

func TestDecodeCueListReadsNumCuesAsSixteenBits(t *testing.T) {
	// Regression: num_cues must be read as a strict 2-byte field even when
	// neighboring bytes would spell 0x00040000 if misread as 4 bytes wide.
	listBody := beU32Bytes(0)
	listBody = append(listBody, 0x00, 0x04) // trailing bytes of the "unknown" field
	listBody = append(listBody, beU16Bytes(4)...)
	listBody = append(listBody, beU32Bytes(0)...)

	list, err := DecodeCueList(mustSection(t, TagCueListLegacy, listBody), false)
	require.NoError(t, err)
	assert.EqualValues(t, 4, list.NumCues)
}

func TestDecodeCueListEmptyIsNotError(t *testing.T) {
	listBody := beU32Bytes(0)
	listBody = append(listBody, beU16Bytes(0)...) // unknown
	listBody = append(listBody, beU16Bytes(0)...)
	listBody = append(listBody, beU32Bytes(0)...)

	list, err := DecodeCueList(mustSection(t, TagCueListLegacy, listBody), false)
	require.NoError(t, err)
	assert.Empty(t, list.Cues)
}

func TestDecodeWaveformDetail(t *testing.T) {
	header := beU32Bytes(1)
	header = append(header, beU32Bytes(2)...) // len_entries
	header = append(header, beU32Bytes(0)...)
	entries := []byte{0b010_00111, 0b000_11111}
	body := append(header, entries...)

	cols, err := DecodeWaveformDetail(mustSection(t, "PWV3", body))
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.EqualValues(t, 7, cols[0].Height)
	assert.EqualValues(t, 2, cols[0].Whiteness)
	assert.EqualValues(t, 31, cols[1].Height)
	assert.EqualValues(t, 0, cols[1].Whiteness)
}

func TestDecodeWaveformColor(t *testing.T) {
	header := beU32Bytes(6) // len_entry_bytes
	header = append(header, beU32Bytes(1)...)
	header = append(header, beU32Bytes(0)...)
	entry := []byte{0x0a, 0x42, 0x01, 0x02, 0x03, 0x04}
	body := append(header, entry...)

	cols, bands, err := DecodeWaveformColor(mustSection(t, "PWV4", body))
	require.NoError(t, err)
	require.Len(t, cols, 1)
	require.Len(t, bands, 1)
	assert.EqualValues(t, 0x0a, cols[0].Height)
	assert.EqualValues(t, 0x42, cols[0].Hue)
	assert.Equal(t, [4]byte{0x01, 0x02, 0x03, 0x04}, bands[0])
}

func TestDecodeWaveform3Band(t *testing.T) {
	header := beU32Bytes(3)
	header = append(header, beU32Bytes(1)...) // len_entries
	header = append(header, beU32Bytes(0)...)
	entry := []byte{5, 9, 20}
	body := append(header, entry...)

	cols, err := DecodeWaveform3Band(mustSection(t, "PWV6", body), false)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.EqualValues(t, 5, cols[0].MidHeight)
	assert.EqualValues(t, 9, cols[0].HighHeight)
	assert.EqualValues(t, 20, cols[0].Height)
}

func TestDecodeWaveform3BandExtendedHeaderOffsetsEntries(t *testing.T) {
	header := beU32Bytes(3)
	header = append(header, beU32Bytes(1)...)
	header = append(header, beU32Bytes(0)...)
	header = append(header, beU32Bytes(0)...) // PWV7 extra 4 bytes
	entry := []byte{1, 2, 3}
	body := append(header, entry...)

	cols, err := DecodeWaveform3Band(mustSection(t, "PWV7", body), true)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.EqualValues(t, 1, cols[0].MidHeight)
}

func TestDecodeVBRPassesThroughRawBytes(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	got, err := DecodeVBR(mustSection(t, TagVBR, raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}
