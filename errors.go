package exportdb

import "github.com/crateindex/exportdb/internal/xerrors"

// Sentinel errors classifiable with errors.Is, matching the fatal-error
// taxonomy in §6.4/§7: Io, Truncated, BadMagic, DuplicateTable,
// MalformedPage, MalformedRow, MalformedTag.
var (
	ErrIO             = xerrors.ErrIO
	ErrTruncated      = xerrors.ErrTruncated
	ErrBadMagic       = xerrors.ErrBadMagic
	ErrDuplicateTable = xerrors.ErrDuplicateTable
	ErrMalformedPage  = xerrors.ErrMalformedPage
	ErrMalformedRow   = xerrors.ErrMalformedRow
	ErrMalformedTag   = xerrors.ErrMalformedTag
)
