package anlz

import "unicode/utf16"

func beU16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// decodeUTF16BENulTerminated decodes a big-endian UTF-16 byte string,
// stopping at the first NUL code unit if one is present.
func decodeUTF16BENulTerminated(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := beU16(b[i : i+2])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}
