// Package anlz decodes the per-track analysis bundle: a small envelope
// (§3.3) wrapping a sequence of fourcc-tagged sections — beat grid, cue
// lists, waveform previews, and song-structure data. Unlike the database
// package, all multi-byte integers here are big-endian and strings are
// UTF-16BE.
package anlz

import (
	"github.com/crateindex/exportdb/internal/bytesource"
	"github.com/crateindex/exportdb/internal/xerrors"
)

const (
	envelopeMagic      = "PMAI"
	envelopeHeaderSize = 12 // fourcc + len_header + len_file, all 4 bytes
	sectionHeaderSize  = 12 // fourcc + len_header + len_tag
)

// Section is one tagged block: its fourcc, and a view over its body bytes
// (everything past the section's own len_header).
type Section struct {
	FourCC string
	Body   bytesource.Source
	Path   string // path of the owning file, for error messages
	Offset int64  // absolute offset of the section header within the file
	LenTag int64
}

// File is an opened analysis bundle.
type File struct {
	Path       string
	src        bytesource.Source
	LenHeader  uint32
	LenFile    uint32
	firstTagAt int64
}

// Open verifies the PMAI magic and records the file's declared length.
func Open(path string, src bytesource.Source) (*File, error) {
	magic, err := src.ReadBytes(0, 4)
	if err != nil {
		return nil, err
	}
	if string(magic) != envelopeMagic {
		return nil, xerrors.BadMagic(path, 0, envelopeMagic, string(magic))
	}

	lenHeader, err := src.ReadU32BE(4)
	if err != nil {
		return nil, err
	}
	lenFile, err := src.ReadU32BE(8)
	if err != nil {
		return nil, err
	}

	return &File{
		Path:       path,
		src:        src,
		LenHeader:  lenHeader,
		LenFile:    lenFile,
		firstTagAt: int64(lenHeader),
	}, nil
}

// Sections returns every tagged section in file order. A section whose
// len_tag would run past the end of the file is a fatal error (§4.6:
// "Failure"); an unrecognized fourcc is not an error at this layer — it is
// simply returned for the caller to skip.
func (f *File) Sections() ([]Section, error) {
	var sections []Section

	offset := f.firstTagAt
	for offset < f.src.Len() {
		fourccBytes, err := f.src.ReadBytes(offset, 4)
		if err != nil {
			return nil, err
		}
		lenHeader, err := f.src.ReadU32BE(offset + 4)
		if err != nil {
			return nil, err
		}
		lenTag, err := f.src.ReadU32BE(offset + 8)
		if err != nil {
			return nil, err
		}

		if offset+int64(lenTag) > f.src.Len() {
			return nil, xerrors.MalformedTag(f.Path, string(fourccBytes), offset, "len_tag exceeds remaining file")
		}

		bodyOffset := offset + int64(lenHeader)
		bodyLen := int64(lenTag) - int64(lenHeader)
		if bodyLen < 0 {
			bodyLen = 0
		}
		body, err := f.src.Sub(bodyOffset, bodyLen)
		if err != nil {
			return nil, err
		}

		sections = append(sections, Section{
			FourCC: string(fourccBytes),
			Body:   body,
			Path:   f.Path,
			Offset: offset,
			LenTag: int64(lenTag),
		})

		offset += int64(lenTag)
	}

	return sections, nil
}

// Find returns the first section with the given fourcc, if any.
func (f *File) Find(fourcc string) (Section, bool, error) {
	sections, err := f.Sections()
	if err != nil {
		return Section{}, false, err
	}
	for _, s := range sections {
		if s.FourCC == fourcc {
			return s, true, nil
		}
	}
	return Section{}, false, nil
}
