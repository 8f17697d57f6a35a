package anlz

// DecodePath parses a PPTH section body: a 4-byte length prefix followed by
// a UTF-16BE, NUL-terminated absolute file path (concrete scenario: "/USB/TEST.mp3").
func DecodePath(s Section) (string, error) {
	lenPath, err := s.Body.ReadU32BE(0)
	if err != nil {
		return "", err
	}
	raw, err := s.Body.ReadBytes(4, int(lenPath))
	if err != nil {
		return "", err
	}
	return decodeUTF16BENulTerminated(raw), nil
}
