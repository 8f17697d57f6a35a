package anlz

import "github.com/crateindex/exportdb/internal/xerrors"

// WaveformColumn is one column of a preview or detail waveform: a bar
// height plus whatever color/whiteness information the tag's format
// carries for that column.
type WaveformColumn struct {
	Height byte
	// Whiteness (PWAV/PWV3), Hue (PWV4), RGB (PWV5), or MidHeight and
	// HighHeight (PWV6/PWV7) populate a subset of these depending on
	// which tag produced the column; zero
	// value means "not carried by this format".
	Whiteness  byte
	Hue        byte
	R, G, B    byte
	MidHeight  byte
	HighHeight byte
}

// waveformPreviewColumns is the fixed column count of a full PWAV section.
const waveformPreviewColumns = 400

// DecodeWaveformPreview parses a PVBR-adjacent PWAV section: 400 fixed
// columns, one byte each, low 5 bits height and high 3 bits whiteness. A
// vestigial (empty) tag is accepted and yields no columns; any other
// length short of the full 400 bytes is rejected.
func DecodeWaveformPreview(s Section) ([]WaveformColumn, error) {
	if s.Body.Len() == 0 {
		return nil, nil
	}
	if s.Body.Len() < waveformPreviewColumns {
		return nil, xerrors.MalformedTag(s.Path, s.FourCC, s.Offset, "PWAV body shorter than 400 bytes")
	}
	raw, err := s.Body.ReadBytes(0, waveformPreviewColumns)
	if err != nil {
		return nil, err
	}
	cols := make([]WaveformColumn, len(raw))
	for i, b := range raw {
		cols[i] = WaveformColumn{Height: b & 0x1f, Whiteness: b >> 5}
	}
	return cols, nil
}

// DecodeWaveformPreviewSmall parses a PWV2 section: 100 fixed columns, one
// byte each, low 4 bits height.
func DecodeWaveformPreviewSmall(s Section) ([]WaveformColumn, error) {
	raw, err := s.Body.ReadBytes(0, 100)
	if err != nil {
		return nil, err
	}
	cols := make([]WaveformColumn, len(raw))
	for i, b := range raw {
		cols[i] = WaveformColumn{Height: b & 0x0f}
	}
	return cols, nil
}

// wavDetailHeaderSize is the PWV3/PWV4/PWV5/PWV6 detail-waveform header:
// len_entry_bytes, len_entries, unknown, each a big-endian uint32.
const wavDetailHeaderSize = 12

// DecodeWaveformDetail parses a PWV3 section: a header followed by
// len_entries bytes, each encoded like a PWAV column.
func DecodeWaveformDetail(s Section) ([]WaveformColumn, error) {
	lenEntries, err := s.Body.ReadU32BE(4)
	if err != nil {
		return nil, err
	}
	raw, err := s.Body.ReadBytes(wavDetailHeaderSize, int(lenEntries))
	if err != nil {
		return nil, err
	}
	cols := make([]WaveformColumn, len(raw))
	for i, b := range raw {
		cols[i] = WaveformColumn{Height: b & 0x1f, Whiteness: b >> 5}
	}
	return cols, nil
}

// DecodeWaveformColor parses a PWV4 section: a header, then len_entries
// columns of 6 bytes each carrying five (height, hue) segments used to
// render the color detail waveform at different vertical bands. The exact
// bit layout of the six bytes is not otherwise constrained by anything
// this package observes elsewhere, so the first byte pair is treated as
// the representative (height, hue) for the column and the remaining four
// bytes are kept as opaque band data.
func DecodeWaveformColor(s Section) ([]WaveformColumn, [][4]byte, error) {
	lenEntryBytes, err := s.Body.ReadU32BE(0)
	if err != nil {
		return nil, nil, err
	}
	lenEntries, err := s.Body.ReadU32BE(4)
	if err != nil {
		return nil, nil, err
	}

	cols := make([]WaveformColumn, 0, lenEntries)
	bands := make([][4]byte, 0, lenEntries)
	for i := uint32(0); i < lenEntries; i++ {
		off := int64(wavDetailHeaderSize) + int64(i)*int64(lenEntryBytes)
		entry, err := s.Body.ReadBytes(off, int(lenEntryBytes))
		if err != nil {
			break
		}
		cols = append(cols, WaveformColumn{Height: entry[0] & 0x1f, Hue: entry[1]})
		var band [4]byte
		copy(band[:], entry[2:])
		bands = append(bands, band)
	}
	return cols, bands, nil
}

// DecodeWaveformColorPreview parses a PWV5 section: a header, then 2-byte
// big-endian entries packing R(3) G(3) B(3) height(5) unused(2).
func DecodeWaveformColorPreview(s Section) ([]WaveformColumn, error) {
	lenEntries, err := s.Body.ReadU32BE(4)
	if err != nil {
		return nil, err
	}
	cols := make([]WaveformColumn, 0, lenEntries)
	for i := uint32(0); i < lenEntries; i++ {
		off := int64(wavDetailHeaderSize) + int64(i)*2
		v, err := s.Body.ReadU16BE(off)
		if err != nil {
			break
		}
		cols = append(cols, WaveformColumn{
			R:      byte(v>>13) & 0x7,
			G:      byte(v>>10) & 0x7,
			B:      byte(v>>7) & 0x7,
			Height: byte(v>>2) & 0x1f,
		})
	}
	return cols, nil
}

// DecodeWaveform3Band parses a PWV6 (three bytes per column: mid, high,
// low band heights) or PWV7 (as PWV6, with an extra 4-byte unknown field
// after the standard header) section body.
func DecodeWaveform3Band(s Section, hasExtraHeader bool) ([]WaveformColumn, error) {
	headerSize := int64(wavDetailHeaderSize)
	if hasExtraHeader {
		headerSize += 4
	}

	lenEntries, err := s.Body.ReadU32BE(4)
	if err != nil {
		return nil, err
	}
	cols := make([]WaveformColumn, 0, lenEntries)
	for i := uint32(0); i < lenEntries; i++ {
		off := headerSize + int64(i)*3
		entry, err := s.Body.ReadBytes(off, 3)
		if err != nil {
			break
		}
		cols = append(cols, WaveformColumn{MidHeight: entry[0], HighHeight: entry[1], Height: entry[2]})
	}
	return cols, nil
}
