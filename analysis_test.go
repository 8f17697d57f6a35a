package exportdb_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exportdb "github.com/crateindex/exportdb"
)

const (
	analysisEnvelopeHeaderSize = 12
	analysisSectionHeaderSize  = 12
)

var pssiBaseMask = [19]byte{
	0xCB, 0xE1, 0xEE, 0xFA, 0xE5, 0xEE, 0xAD, 0xEE,
	0xE9, 0xD2, 0xE9, 0xEB, 0xE1, 0xE9, 0xF3, 0xE8,
	0xE9, 0xF4, 0xE1,
}

func abU32(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }
func abU16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func buildAnalysisEnvelope(sections ...[]byte) []byte {
	total := 0
	for _, s := range sections {
		total += len(s)
	}
	buf := []byte("PMAI")
	buf = append(buf, abU32(analysisEnvelopeHeaderSize)...)
	buf = append(buf, abU32(uint32(analysisEnvelopeHeaderSize+total))...)
	for _, s := range sections {
		buf = append(buf, s...)
	}
	return buf
}

func buildAnalysisSection(fourcc string, body []byte) []byte {
	lenHeader := uint32(analysisSectionHeaderSize)
	lenTag := lenHeader + uint32(len(body))
	buf := []byte(fourcc)
	buf = append(buf, abU32(lenHeader)...)
	buf = append(buf, abU32(lenTag)...)
	buf = append(buf, body...)
	return buf
}

func writeTempAnalysis(t *testing.T, raw []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "track.dat")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func buildMaskedPSSIBody(lenEntries uint16, headerAndEntries []byte) []byte {
	out := abU16(12) // len_entry_bytes
	out = append(out, abU16(lenEntries)...)
	rest := append([]byte{}, headerAndEntries...)
	phraseCount := byte(lenEntries)
	for i := range rest {
		rest[i] ^= pssiBaseMask[i%len(pssiBaseMask)] + phraseCount
	}
	return append(out, rest...)
}

func TestOpenAnalysisBeatGridConcreteScenario(t *testing.T) {
	body := abU32(0)
	body = append(body, abU32(0)...)
	body = append(body, abU32(1)...) // len_beats
	body = append(body, abU16(1)...)
	body = append(body, abU16(12800)...) // 128.00 BPM
	body = append(body, abU32(0)...)

	raw := buildAnalysisEnvelope(buildAnalysisSection("PQTZ", body))
	path := writeTempAnalysis(t, raw)

	a, err := exportdb.OpenAnalysis(path)
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Has("PQTZ"))
	grid, ok, err := a.BeatGrid()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, grid.Beats, 1)
	assert.EqualValues(t, 1, grid.Beats[0].BeatNumber)
	assert.Equal(t, 128.0, float64(grid.Beats[0].TempoCenti)/100)
}

func TestOpenAnalysisMissingSectionReportsFalse(t *testing.T) {
	raw := buildAnalysisEnvelope()
	path := writeTempAnalysis(t, raw)

	a, err := exportdb.OpenAnalysis(path)
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Has("PQTZ"))
	_, ok, err := a.BeatGrid()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenAnalysisPhraseTimelineUnmasksByDefault(t *testing.T) {
	header := []byte{
		1,                // mood high
		0, 0, 0, 0, 0, 0, // unknown x6
		0x01, 0x2c, // end_beat = 300
		0, 0, // unknown x2
		3, // bank
		0, // unknown
	}
	entry := []byte{1, 1, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0} // index=1, start_beat=1, kind=2
	plaintext := append(header, entry...)
	body := buildMaskedPSSIBody(1, plaintext)

	raw := buildAnalysisEnvelope(buildAnalysisSection("PSSI", body))
	path := writeTempAnalysis(t, raw)

	a, err := exportdb.OpenAnalysis(path)
	require.NoError(t, err)
	defer a.Close()

	tl, ok, err := a.PhraseTimeline()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, tl.Entries, 1)
	assert.EqualValues(t, 1, tl.Entries[0].Index)
	assert.EqualValues(t, 1, tl.Entries[0].StartBeat)
}

func TestOpenAnalysisRejectsBadMagic(t *testing.T) {
	raw := append([]byte("XXXX"), abU32(12)...)
	raw = append(raw, abU32(12)...)
	path := writeTempAnalysis(t, raw)

	_, err := exportdb.OpenAnalysis(path)
	require.Error(t, err)
}
