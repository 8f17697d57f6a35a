// Package phrase decodes the PSSI song-structure analysis tag: the
// XOR-obfuscated phrase timeline that groups a track into intro/verse/
// chorus-style sections. Files exported by the version-6 library mask
// this tag; files sourced from a shared library sub-folder do not, and
// callers signal that with the unmasked construction flag.
package phrase

import "github.com/crateindex/exportdb/internal/xerrors"

// Mood is the overall energy classification carried in the PSSI header.
type Mood uint8

const (
	MoodHigh Mood = 1
	MoodMid  Mood = 2
	MoodLow  Mood = 3
)

// pssiBaseMask is the fixed 19-byte XOR base pattern used to obfuscate
// PSSI bodies. The per-file key adds len_entries (mod 256) to each byte.
var pssiBaseMask = [19]byte{
	0xCB, 0xE1, 0xEE, 0xFA, 0xE5, 0xEE, 0xAD, 0xEE,
	0xE9, 0xD2, 0xE9, 0xEB, 0xE1, 0xE9, 0xF3, 0xE8,
	0xE9, 0xF4, 0xE1,
}

// unmaskLen is the count of bytes preceding the masked region: the
// two-byte len_entry_bytes field followed by the two-byte len_entries
// field itself.
const unmaskLen = 4

// unmask XOR-decodes raw (everything from unmaskLen to end-of-tag) with
// the key derived from lenEntries.
func unmask(raw []byte, lenEntries uint16) []byte {
	phraseCount := byte(lenEntries)
	out := make([]byte, len(raw))
	for i, b := range raw {
		mask := pssiBaseMask[i%len(pssiBaseMask)] + phraseCount
		out[i] = b ^ mask
	}
	return out
}

// pssiHeaderSize is the total header length: len_entry_bytes, len_entries,
// mood, six unknown bytes, end_beat, two unknown bytes, bank, unknown.
const pssiHeaderSize = 17

// Entry is one phrase-timeline entry.
type Entry struct {
	Index     uint8
	StartBeat uint8
	Kind      uint8
	Flag1     uint8
	Flag2     uint8
	Flag3     uint8
	VariantB  uint8
	Beat2     uint8
	Beat3     uint8
	Beat4     uint8
	FillFlag  uint8
	FillBeat  uint8

	// Label is the human-readable phrase name for (mood, kind), or "" if
	// the combination isn't in the translation table.
	Label string
}

// Timeline is a fully decoded PSSI section.
type Timeline struct {
	Mood      Mood
	EndBeat   uint16
	RawBank   uint8
	BankLabel *string
	Entries   []Entry
}

// Decode parses a PSSI section's raw body. unmasked skips the XOR step
// for files sourced from a shared library folder (§4.7 "Suppression").
func Decode(path string, offset int64, body []byte, unmasked bool) (Timeline, error) {
	if len(body) < unmaskLen {
		return Timeline{}, xerrors.MalformedTag(path, "PSSI", offset, "body shorter than the unmasked header prefix")
	}

	lenEntryBytes := beU16(body[0:2])
	lenEntries := beU16(body[2:4])

	rest := body[unmaskLen:]
	if !unmasked {
		rest = unmask(rest, lenEntries)
	}

	if len(rest) < pssiHeaderSize-unmaskLen {
		return Timeline{}, xerrors.MalformedTag(path, "PSSI", offset, "body shorter than the header")
	}

	mood := Mood(rest[0])
	endBeat := beU16(rest[7:9])
	rawBank := rest[11]

	var t Timeline
	t.Mood = mood
	t.EndBeat = endBeat
	t.RawBank = rawBank
	t.BankLabel = bankLabel(rawBank)

	entriesStart := pssiHeaderSize - unmaskLen
	t.Entries = make([]Entry, 0, lenEntries)
	for i := uint16(0); i < lenEntries; i++ {
		off := entriesStart + int(i)*int(lenEntryBytes)
		if off+int(lenEntryBytes) > len(rest) {
			break
		}
		e := decodeEntry(rest[off : off+int(lenEntryBytes)])
		e.Label = phraseLabel(mood, e.Kind)
		t.Entries = append(t.Entries, e)
	}

	return t, nil
}

func decodeEntry(b []byte) Entry {
	var e Entry
	fields := []*uint8{
		&e.Index, &e.StartBeat, &e.Kind, &e.Flag1, &e.Flag2, &e.Flag3,
		&e.VariantB, &e.Beat2, &e.Beat3, &e.Beat4, &e.FillFlag, &e.FillBeat,
	}
	for i, f := range fields {
		if i >= len(b) {
			break
		}
		*f = b[i]
	}
	return e
}

func beU16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
