package anlz

import "github.com/crateindex/exportdb/internal/xerrors"

// Beat is one PQTZ beat-grid entry.
type Beat struct {
	BeatNumber uint16 // 1..4, position within the bar
	TempoCenti uint16 // BPM * 100
	TimeMS     uint32
}

// BeatGrid is a decoded PQTZ section.
type BeatGrid struct {
	Unknown1 uint32
	Unknown2 uint32
	Beats    []Beat
}

// DecodeBeatGrid parses a PQTZ section body.
func DecodeBeatGrid(s Section) (BeatGrid, error) {
	var g BeatGrid

	unknown1, err := s.Body.ReadU32BE(0)
	if err != nil {
		return BeatGrid{}, err
	}
	unknown2, err := s.Body.ReadU32BE(4)
	if err != nil {
		return BeatGrid{}, err
	}
	lenBeats, err := s.Body.ReadU32BE(8)
	if err != nil {
		return BeatGrid{}, err
	}

	g.Unknown1 = unknown1
	g.Unknown2 = unknown2
	g.Beats = make([]Beat, 0, lenBeats)

	var prevTime uint32
	base := int64(12)
	for i := uint32(0); i < lenBeats; i++ {
		off := base + int64(i)*8
		beatNumber, err := s.Body.ReadU16BE(off)
		if err != nil {
			return BeatGrid{}, err
		}
		tempo, err := s.Body.ReadU16BE(off + 2)
		if err != nil {
			return BeatGrid{}, err
		}
		timeMS, err := s.Body.ReadU32BE(off + 4)
		if err != nil {
			return BeatGrid{}, err
		}
		if timeMS < prevTime {
			return BeatGrid{}, xerrors.MalformedTag(s.Path, s.FourCC, s.Offset, "beat grid time_ms is not monotonically non-decreasing")
		}
		prevTime = timeMS

		g.Beats = append(g.Beats, Beat{BeatNumber: beatNumber, TempoCenti: tempo, TimeMS: timeMS})
	}

	return g, nil
}
