// Package dsql decodes and encodes the polymorphic "device SQL string": a
// leading length-and-kind byte selects one of three encodings. See §4.2 and
// §6.3 of the format notes this package implements.
package dsql

import (
	"bytes"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"

	"github.com/crateindex/exportdb/internal/bytesource"
	"github.com/crateindex/exportdb/internal/xerrors"
)

// Kind identifies which of the three DeviceSqlString encodings was used.
type Kind int

const (
	KindShortASCII Kind = iota
	KindLongASCII
	KindLongUTF16LE
	KindUnknown
)

// longHeaderSize is the number of bytes preceding the body in both long
// variants: the kind byte, a 2-byte length, and one unknown pad byte.
const longHeaderSize = 4

// Result is the outcome of decoding one DeviceSqlString.
type Result struct {
	Value    string
	Consumed int64
	Kind     Kind
	// Warning is set for a recoverable condition (unknown length_and_kind
	// byte, or a code unit that had to be downgraded to U+FFFD). It is
	// never returned alongside a non-nil error from Decode.
	Warning error
}

var utf16leDecoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// Decode reads one DeviceSqlString starting at offset. Fatal errors (short
// reads) propagate; unknown variants and encoding slips are reported via
// Result.Warning instead of an error.
func Decode(src bytesource.Source, offset int64) (Result, error) {
	lengthAndKind, err := src.ReadU8(offset)
	if err != nil {
		return Result{}, err
	}

	switch {
	case lengthAndKind&0x01 == 1:
		total := int(lengthAndKind >> 1)
		bodyLen := total - 1
		if bodyLen < 0 {
			bodyLen = 0
		}
		body, err := src.ReadBytes(offset+1, bodyLen)
		if err != nil {
			return Result{}, err
		}
		value, warn := decodeASCII(body)
		return Result{Value: value, Consumed: int64(1 + total), Kind: KindShortASCII, Warning: warn}, nil

	case lengthAndKind == 0x40:
		length, err := src.ReadU16LE(offset + 1)
		if err != nil {
			return Result{}, err
		}
		bodyLen := int(length) - longHeaderSize
		if bodyLen < 0 {
			bodyLen = 0
		}
		body, err := src.ReadBytes(offset+longHeaderSize, bodyLen)
		if err != nil {
			return Result{}, err
		}
		value, warn := decodeASCII(stripTrailingNUL(body, 1))
		return Result{Value: value, Consumed: int64(length), Kind: KindLongASCII, Warning: warn}, nil

	case lengthAndKind == 0x90:
		length, err := src.ReadU16LE(offset + 1)
		if err != nil {
			return Result{}, err
		}
		bodyLen := int(length) - longHeaderSize
		if bodyLen < 0 {
			bodyLen = 0
		}
		body, err := src.ReadBytes(offset+longHeaderSize, bodyLen)
		if err != nil {
			return Result{}, err
		}
		value, warn := decodeUTF16LE(stripTrailingNUL(body, 2))
		return Result{Value: value, Consumed: int64(length), Kind: KindLongUTF16LE, Warning: warn}, nil

	default:
		return Result{
			Value:    "",
			Consumed: 1,
			Kind:     KindUnknown,
			Warning:  xerrors.MalformedRowf("unknown device SQL string length_and_kind byte 0x%02x", lengthAndKind),
		}, nil
	}
}

// stripTrailingNUL cuts body at its first width-byte NUL unit, dropping the
// terminator and anything after it; a body with no NUL is returned whole.
func stripTrailingNUL(body []byte, width int) []byte {
	// Look for an embedded NUL, which is the common case since the long
	// variants' declared body length may include vestigial padding past
	// the terminator.
	for i := 0; i+width <= len(body); i += width {
		allZero := true
		for j := 0; j < width; j++ {
			if body[i+j] != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			return body[:i]
		}
	}
	return body
}

func decodeASCII(body []byte) (string, error) {
	var warn error
	out := make([]byte, len(body))
	for i, b := range body {
		if b > 0x7f {
			out[i] = '?'
			warn = xerrors.MalformedRowf("non-ASCII byte 0x%02x in short/long ASCII string", b)
		} else {
			out[i] = b
		}
	}
	return string(out), warn
}

func decodeUTF16LE(body []byte) (string, error) {
	decoded, err := utf16leDecoder.Bytes(body)
	if err != nil {
		// Fall back to a manual pass that downgrades invalid units to
		// U+FFFD individually rather than failing the whole string.
		units := make([]uint16, len(body)/2)
		for i := range units {
			units[i] = uint16(body[2*i]) | uint16(body[2*i+1])<<8
		}
		runes := utf16.Decode(units)
		return string(runes), xerrors.MalformedRowf("invalid UTF-16LE sequence downgraded to U+FFFD")
	}
	if bytes.ContainsRune(decoded, '�') {
		return string(decoded), xerrors.MalformedRowf("invalid UTF-16LE sequence downgraded to U+FFFD")
	}
	return string(decoded), nil
}

// Encode re-encodes s using the given variant, for round-trip tests (§8):
// decoding Encode(kind, s) must reproduce the original bytes modulo NUL
// normalization.
func Encode(kind Kind, s string) []byte {
	switch kind {
	case KindShortASCII:
		body := []byte(s)
		total := len(body) + 1
		out := make([]byte, 0, 1+len(body)+1)
		out = append(out, byte(total<<1|1))
		out = append(out, body...)
		out = append(out, 0x00)
		return out

	case KindLongASCII:
		body := []byte(s)
		length := longHeaderSize + len(body) + 1
		out := make([]byte, 0, length)
		out = append(out, 0x40)
		out = append(out, byte(length), byte(length>>8))
		out = append(out, 0x00) // pad
		out = append(out, body...)
		out = append(out, 0x00)
		return out

	case KindLongUTF16LE:
		units := utf16.Encode([]rune(s))
		body := make([]byte, 0, len(units)*2+2)
		for _, u := range units {
			body = append(body, byte(u), byte(u>>8))
		}
		body = append(body, 0x00, 0x00)
		length := longHeaderSize + len(body)
		out := make([]byte, 0, length)
		out = append(out, 0x90)
		out = append(out, byte(length), byte(length>>8))
		out = append(out, 0x00) // pad
		out = append(out, body...)
		return out

	default:
		return nil
	}
}
