// Package xerrors defines the fatal-error taxonomy shared by the database
// and analysis-file decoders. Every sentinel here is classifiable with
// errors.Is and carries structured detail via cockroachdb/errors so callers
// get a file path, byte offset, and expected-vs-found context for free.
package xerrors

import (
	"github.com/cockroachdb/errors"
)

// Sentinels matching the fatal categories in the decoder's error taxonomy.
// Recoverable conditions (unknown string variant, unknown tag fourcc, a
// malformed cue entry, ...) are never returned as errors; they are folded
// into a Warning instead. Warnings built with MalformedRowf still carry the
// ErrMalformedRow mark.
var (
	ErrIO             = errors.New("xerrors: io error")
	ErrTruncated      = errors.New("xerrors: truncated read")
	ErrBadMagic       = errors.New("xerrors: bad magic")
	ErrDuplicateTable = errors.New("xerrors: duplicate table")
	ErrMalformedPage  = errors.New("xerrors: malformed page")
	ErrMalformedRow   = errors.New("xerrors: malformed row")
	ErrMalformedTag   = errors.New("xerrors: malformed tag")
)

// Truncated wraps ErrTruncated with the offset and byte count that could not
// be satisfied, matching the single Truncated{at, needed} error kind from
// the decoder's ByteSource contract.
func Truncated(at int64, needed int) error {
	return errors.WithDetailf(errors.Mark(
		errors.Newf("truncated read at offset %d: need %d bytes", at, needed),
		ErrTruncated,
	), "offset=%d needed=%d", at, needed)
}

// BadMagic reports a top-level or section magic mismatch.
func BadMagic(path string, offset int64, want, got string) error {
	return errors.WithDetailf(errors.Mark(
		errors.Newf("%s: bad magic at offset %d: want %q got %q", path, offset, want, got),
		ErrBadMagic,
	), "path=%s offset=%d want=%s got=%s", path, offset, want, got)
}

// DuplicateTable reports a table type appearing more than once in a database file.
func DuplicateTable(path string, tableType uint32) error {
	return errors.WithDetailf(errors.Mark(
		errors.Newf("%s: duplicate table type %d", path, tableType),
		ErrDuplicateTable,
	), "path=%s type=%d", path, tableType)
}

// MalformedPage reports a page-level structural violation (truncated page,
// offset out of bounds, cyclic next_page chain).
func MalformedPage(path string, pageIndex uint32, reason string) error {
	return errors.WithDetailf(errors.Mark(
		errors.Newf("%s: malformed page %d: %s", path, pageIndex, reason),
		ErrMalformedPage,
	), "path=%s page=%d reason=%s", path, pageIndex, reason)
}

// MalformedRow reports a row that overruns its page or a following row.
func MalformedRow(path string, pageIndex uint32, rowOffset uint16, reason string) error {
	return errors.WithDetailf(errors.Mark(
		errors.Newf("%s: malformed row at page %d offset %d: %s", path, pageIndex, rowOffset, reason),
		ErrMalformedRow,
	), "path=%s page=%d row_offset=%d reason=%s", path, pageIndex, rowOffset, reason)
}

// MalformedTag reports an analysis-file section whose declared length
// violates the file's remaining bytes.
func MalformedTag(path string, fourcc string, offset int64, reason string) error {
	return errors.WithDetailf(errors.Mark(
		errors.Newf("%s: malformed tag %q at offset %d: %s", path, fourcc, offset, reason),
		ErrMalformedTag,
	), "path=%s fourcc=%s offset=%d reason=%s", path, fourcc, offset, reason)
}

// IO wraps an underlying I/O error (open, read) encountered for path.
func IO(path string, err error) error {
	return errors.Mark(errors.Wrapf(err, "%s: io error", path), ErrIO)
}

// MalformedRowf reports a row-level decode violation not tied to a specific
// page/offset pair (used by callers below the database package, e.g. the
// bit-reader).
func MalformedRowf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrMalformedRow)
}
