package anlz

// Known analysis-file tag fourccs (§4.6).
const (
	TagBeatGrid        = "PQTZ"
	TagCueListLegacy   = "PCOB"
	TagCueListExtended = "PCO2"
	TagPath            = "PPTH"
	TagVBR             = "PVBR"
	TagWaveformPreview = "PWAV"
	TagWaveformSmall   = "PWV2"
	TagWaveformDetail  = "PWV3"
	TagWaveformColor   = "PWV4"
	TagWaveformColorSm = "PWV5"
	TagWaveform3Band   = "PWV6"
	TagWaveform3BandEx = "PWV7"
	TagSongStructure   = "PSSI"
)

// DecodeVBR returns a PVBR section's body unparsed; its layout is opaque
// to this decoder and callers that need it forward the raw bytes as-is.
func DecodeVBR(s Section) ([]byte, error) {
	return s.Body.ReadBytes(0, int(s.Body.Len()))
}
