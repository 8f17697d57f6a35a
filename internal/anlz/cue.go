package anlz

import "github.com/crateindex/exportdb/internal/bytesource"

// CueKind distinguishes a point cue from a loop cue.
type CueKind uint8

const (
	CueKindPoint CueKind = 1
	CueKindLoop  CueKind = 2
)

// CueStatus values recognized in the status field.
const (
	CueStatusNormal     uint8 = 0
	CueStatusActiveLoop uint8 = 4
)

// Color is a PCP2 hot-cue color, present only when the entry was not
// truncated before it.
type Color struct {
	Palette byte
	R, G, B byte
}

// LoopFraction is a PCP2 quantized-loop numerator/denominator pair.
type LoopFraction struct {
	Numerator   uint16
	Denominator uint16
}

// Cue is one decoded cue-list entry, from either a PCOB (legacy) or PCO2
// (extended) list. Comment, Color and Loop are only populated when the
// underlying PCP2 entry was long enough to carry them (§4.6, §4.7's
// partial-entry tolerance).
type Cue struct {
	HotCue     uint16
	Status     uint8
	Kind       CueKind
	TimeMS     uint32
	LoopTimeMS uint32
	HasLoop    bool

	Comment string
	Color   *Color
	Loop    *LoopFraction
}

// cueListHeaderSize is the fixed PCOB/PCO2 list header: type (4 bytes),
// unknown (2), num_cues (2), memory_count (4).
const cueListHeaderSize = 12

// CueList is a decoded PCOB or PCO2 section.
type CueList struct {
	Type        uint32 // 0=memory, 1=hot
	NumCues     uint16 // declared entry count, read as a strict 16-bit field (§8 scenario 3)
	MemoryCount uint32
	Cues        []Cue
	IsExtended  bool
}

// DecodeCueList parses a PCOB or PCO2 section body; ext selects the
// PCP2 (extended) sub-entry format over the legacy PCPT one.
func DecodeCueList(s Section, ext bool) (CueList, error) {
	var list CueList

	cueType, err := s.Body.ReadU32BE(0)
	if err != nil {
		return CueList{}, err
	}
	numCues, err := s.Body.ReadU16BE(6)
	if err != nil {
		return CueList{}, err
	}
	memoryCount, err := s.Body.ReadU32BE(8)
	if err != nil {
		return CueList{}, err
	}

	list.Type = cueType
	list.NumCues = numCues
	list.MemoryCount = memoryCount
	list.IsExtended = ext
	list.Cues = make([]Cue, 0, numCues)

	offset := int64(cueListHeaderSize)
	for i := uint16(0); i < numCues; i++ {
		if offset+sectionHeaderSize > s.Body.Len() {
			break // malformed individual entry: skip rest of list rather than fail (§8.233)
		}

		lenHeader, err := s.Body.ReadU32BE(offset + 4)
		if err != nil {
			break
		}
		lenTag, err := s.Body.ReadU32BE(offset + 8)
		if err != nil {
			break
		}
		if lenTag < uint32(lenHeader) || offset+int64(lenTag) > s.Body.Len() {
			offset += int64(lenTag)
			continue // malformed entry: skip, continue list (§4.6 Failure)
		}

		entryBody, err := s.Body.Sub(offset+int64(lenHeader), int64(lenTag)-int64(lenHeader))
		if err == nil {
			cue := decodeCueEntry(entryBody, ext)
			list.Cues = append(list.Cues, cue)
		}

		offset += int64(lenTag)
	}

	return list, nil
}

// decodeCueEntry reads as much of one PCPT/PCP2 body as is present,
// tolerating truncation at any point after the base fixed fields.
func decodeCueEntry(body bytesource.Source, ext bool) Cue {
	var c Cue

	read := func(off int64, n int) ([]byte, bool) {
		if off+int64(n) > body.Len() {
			return nil, false
		}
		b, err := body.ReadBytes(off, n)
		return b, err == nil
	}

	if b, ok := read(0, 2); ok {
		c.HotCue = beU16(b)
	}
	if b, ok := read(2, 1); ok {
		c.Status = b[0]
	}
	if b, ok := read(3, 1); ok {
		c.Kind = CueKind(b[0])
	}
	// bytes [4:8) are an unknown field, skipped deliberately.
	if b, ok := read(8, 4); ok {
		c.TimeMS = beU32(b)
	}
	if b, ok := read(12, 4); ok {
		c.LoopTimeMS = beU32(b)
		c.HasLoop = true
	}

	if !ext {
		return c
	}

	cursor := int64(16)
	lenCommentBytes, ok := read(cursor, 4)
	if !ok {
		return c
	}
	lenComment := beU32(lenCommentBytes)
	cursor += 4

	commentBytes, ok := read(cursor, int(lenComment))
	if !ok {
		return c
	}
	c.Comment = decodeUTF16BENulTerminated(commentBytes)
	cursor += int64(lenComment)

	colorBytes, ok := read(cursor, 4)
	if !ok {
		return c
	}
	c.Color = &Color{Palette: colorBytes[0], R: colorBytes[1], G: colorBytes[2], B: colorBytes[3]}
	cursor += 4

	loopBytes, ok := read(cursor, 4)
	if !ok {
		return c
	}
	c.Loop = &LoopFraction{Numerator: beU16(loopBytes[0:2]), Denominator: beU16(loopBytes[2:4])}

	return c
}
