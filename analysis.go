package exportdb

import (
	"github.com/crateindex/exportdb/internal/anlz"
	"github.com/crateindex/exportdb/internal/bytesource"
	"github.com/crateindex/exportdb/internal/metrics"
	"github.com/crateindex/exportdb/internal/phrase"
	"github.com/crateindex/exportdb/internal/warnlog"
)

// Analysis is an opened per-track analysis bundle (§4.6/§6.4's
// open_analysis contract). Sections are located by fourcc when the file is
// opened; each accessor decodes its section on every call, and decoded
// results are not cached.
type Analysis struct {
	Path string

	file     *anlz.File
	src      bytesource.Source
	unmasked bool
	warnings *warnlog.Log

	sections map[string]anlz.Section
}

// OpenAnalysis memory-maps path, verifies the PMAI envelope, and returns an
// Analysis ready to decode whichever tagged sections the file carries.
func OpenAnalysis(path string, opts ...Option) (*Analysis, error) {
	settings := applyOptions(opts)

	src, err := bytesource.OpenFile(path)
	if err != nil {
		return nil, err
	}

	f, err := anlz.Open(path, src)
	if err != nil {
		src.Close()
		metrics.IncFatalAbort(classify(err))
		return nil, err
	}

	sections, err := f.Sections()
	if err != nil {
		src.Close()
		metrics.IncFatalAbort(classify(err))
		return nil, err
	}

	byFourCC := make(map[string]anlz.Section, len(sections))
	for _, s := range sections {
		if _, dup := byFourCC[s.FourCC]; !dup {
			byFourCC[s.FourCC] = s // first-of-kind wins; later duplicates are rare and not authoritative
		}
		metrics.IncAnalysisSectionDecoded(s.FourCC)
	}

	return &Analysis{
		Path:     path,
		file:     f,
		src:      src,
		unmasked: settings.resolveUnmasked(),
		warnings: warnlog.New(settings.options.WarnBufferSize),
		sections: byFourCC,
	}, nil
}

// Close releases the underlying memory-mapped file.
func (a *Analysis) Close() error { return a.src.Close() }

// Warnings returns every recoverable condition logged while decoding.
func (a *Analysis) Warnings() []error { return a.warnings.All() }

// Has reports whether the file carries a section with the given fourcc.
func (a *Analysis) Has(fourcc string) bool {
	_, ok := a.sections[fourcc]
	return ok
}

// BeatGrid decodes the PQTZ section, if present.
func (a *Analysis) BeatGrid() (anlz.BeatGrid, bool, error) {
	s, ok := a.sections[anlz.TagBeatGrid]
	if !ok {
		return anlz.BeatGrid{}, false, nil
	}
	g, err := anlz.DecodeBeatGrid(s)
	return g, true, err
}

// CueList decodes PCO2 if present, falling back to the legacy PCOB.
func (a *Analysis) CueList() (anlz.CueList, bool, error) {
	if s, ok := a.sections[anlz.TagCueListExtended]; ok {
		l, err := anlz.DecodeCueList(s, true)
		return l, true, err
	}
	if s, ok := a.sections[anlz.TagCueListLegacy]; ok {
		l, err := anlz.DecodeCueList(s, false)
		return l, true, err
	}
	return anlz.CueList{}, false, nil
}

// SourcePath returns the decoded PPTH source-file path, if present.
func (a *Analysis) SourcePath() (string, bool, error) {
	s, ok := a.sections[anlz.TagPath]
	if !ok {
		return "", false, nil
	}
	p, err := anlz.DecodePath(s)
	return p, true, err
}

// WaveformPreview decodes PWAV, if present.
func (a *Analysis) WaveformPreview() ([]anlz.WaveformColumn, bool, error) {
	s, ok := a.sections[anlz.TagWaveformPreview]
	if !ok {
		return nil, false, nil
	}
	cols, err := anlz.DecodeWaveformPreview(s)
	return cols, true, err
}

// PhraseTimeline decodes PSSI, if present, applying this Analysis' resolved
// unmasked setting.
func (a *Analysis) PhraseTimeline() (phrase.Timeline, bool, error) {
	s, ok := a.sections[anlz.TagSongStructure]
	if !ok {
		return phrase.Timeline{}, false, nil
	}
	body, err := s.Body.ReadBytes(0, int(s.Body.Len()))
	if err != nil {
		return phrase.Timeline{}, true, err
	}
	tl, err := phrase.Decode(a.Path, s.Offset, body, a.unmasked)
	return tl, true, err
}
