package models

import "github.com/crateindex/exportdb/internal/bytesource"

// Known string slots in a Track row's string-offset table (§4.4).
const (
	trackSlotTitle = iota
	trackSlotComment
	trackSlotFilePath
	trackSlotAnalysisPath
	trackSlotReleaseDate
	trackSlotFilename
	trackSlotISRC
	trackSlotTexter
	trackSlotMixName
	trackSlotKuvoPublic
	trackSlotDateAdded
	trackKnownSlots
)

// trackFixedSize is the byte length of a Track row's fixed fields, ending
// where its variable-length string-offset table begins.
const trackFixedSize = 80

// Track is a decoded track row: fixed header, foreign-key block, numeric
// metadata, and the known string fields (§4.4).
type Track struct {
	ID    uint32
	Flags uint16

	ArtistID         uint32
	ComposerID       uint32
	OriginalArtistID uint32
	RemixerID        uint32
	AlbumID          uint32
	GenreID          uint32
	LabelID          uint32
	KeyID            uint32
	ColorID          uint32
	ArtworkID        uint32

	TempoCentiBPM   uint16 // BPM * 100, per §4.4
	DurationSeconds uint32
	SampleRate      uint32
	SampleDepth     uint32
	BitRate         uint32
	PlayCount       uint32
	Rating          uint8
	AutoloadHotCues bool
	Year            uint16
	DiscNumber      uint16
	TrackNumber     uint16

	Title        string
	Comment      string
	FilePath     string
	AnalysisPath string
	ReleaseDate  string
	Filename     string
	ISRC         string
	Texter       string
	MixName      string
	KuvoPublic   string
	DateAdded    string
}

// TempoBPM returns the track's tempo as beats per minute.
func (t Track) TempoBPM() float64 { return float64(t.TempoCentiBPM) / 100 }

// DecodeTrack reads a Track row starting at rowStart. Warnings collect
// recoverable string-decode conditions; err is non-nil only for a
// truncated read of the fixed fields or the string-offset table (a fatal
// condition per §4.4).
func DecodeTrack(src bytesource.Source, rowStart int64) (Track, []error, error) {
	var t Track
	var warnings []error

	u32 := func(off int64) (uint32, error) { return src.ReadU32LE(rowStart + off) }
	u16 := func(off int64) (uint16, error) { return src.ReadU16LE(rowStart + off) }
	u8 := func(off int64) (uint8, error) { return src.ReadU8(rowStart + off) }

	var err error
	if t.Flags, err = u16(2); err != nil {
		return Track{}, nil, err
	}
	if t.ID, err = u32(4); err != nil {
		return Track{}, nil, err
	}
	if t.ArtistID, err = u32(8); err != nil {
		return Track{}, nil, err
	}
	if t.ComposerID, err = u32(12); err != nil {
		return Track{}, nil, err
	}
	if t.OriginalArtistID, err = u32(16); err != nil {
		return Track{}, nil, err
	}
	if t.RemixerID, err = u32(20); err != nil {
		return Track{}, nil, err
	}
	if t.AlbumID, err = u32(24); err != nil {
		return Track{}, nil, err
	}
	if t.GenreID, err = u32(28); err != nil {
		return Track{}, nil, err
	}
	if t.LabelID, err = u32(32); err != nil {
		return Track{}, nil, err
	}
	if t.KeyID, err = u32(36); err != nil {
		return Track{}, nil, err
	}
	if t.ColorID, err = u32(40); err != nil {
		return Track{}, nil, err
	}
	if t.ArtworkID, err = u32(44); err != nil {
		return Track{}, nil, err
	}
	if t.TempoCentiBPM, err = u16(48); err != nil {
		return Track{}, nil, err
	}
	if t.DurationSeconds, err = u32(50); err != nil {
		return Track{}, nil, err
	}
	if t.SampleRate, err = u32(54); err != nil {
		return Track{}, nil, err
	}
	if t.SampleDepth, err = u32(58); err != nil {
		return Track{}, nil, err
	}
	if t.BitRate, err = u32(62); err != nil {
		return Track{}, nil, err
	}
	if t.PlayCount, err = u32(66); err != nil {
		return Track{}, nil, err
	}
	if t.Rating, err = u8(70); err != nil {
		return Track{}, nil, err
	}
	autoload, err := u8(71)
	if err != nil {
		return Track{}, nil, err
	}
	t.AutoloadHotCues = autoload != 0
	if t.Year, err = u16(72); err != nil {
		return Track{}, nil, err
	}
	if t.DiscNumber, err = u16(74); err != nil {
		return Track{}, nil, err
	}
	if t.TrackNumber, err = u16(76); err != nil {
		return Track{}, nil, err
	}

	numSlots, err := u16(78)
	if err != nil {
		return Track{}, nil, err
	}

	offsets, err := readStringOffsets(src, rowStart, trackFixedSize, numSlots)
	if err != nil {
		return Track{}, nil, err
	}

	t.Title = stringAt(src, rowStart, offsets, trackSlotTitle, &warnings)
	t.Comment = stringAt(src, rowStart, offsets, trackSlotComment, &warnings)
	t.FilePath = stringAt(src, rowStart, offsets, trackSlotFilePath, &warnings)
	t.AnalysisPath = stringAt(src, rowStart, offsets, trackSlotAnalysisPath, &warnings)
	t.ReleaseDate = stringAt(src, rowStart, offsets, trackSlotReleaseDate, &warnings)
	t.Filename = stringAt(src, rowStart, offsets, trackSlotFilename, &warnings)
	t.ISRC = stringAt(src, rowStart, offsets, trackSlotISRC, &warnings)
	t.Texter = stringAt(src, rowStart, offsets, trackSlotTexter, &warnings)
	t.MixName = stringAt(src, rowStart, offsets, trackSlotMixName, &warnings)
	t.KuvoPublic = stringAt(src, rowStart, offsets, trackSlotKuvoPublic, &warnings)
	t.DateAdded = stringAt(src, rowStart, offsets, trackSlotDateAdded, &warnings)

	return t, warnings, nil
}
