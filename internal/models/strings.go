// Package models holds the per-table row types and their field-layout
// decoders (§4.4: RowDecoders). Each decoder takes the raw row bytes'
// location plus the enclosing byte source — needed because a variable-length
// row's strings live past its fixed fields, addressed by a small
// string-offset table at a fixed spot in the row.
package models

import (
	"github.com/crateindex/exportdb/internal/bytesource"
	"github.com/crateindex/exportdb/internal/dsql"
)

// readStringOffsets reads n consecutive 2-byte little-endian offsets
// starting at rowStart+tableOffset, each measured from rowStart per §4.4.
func readStringOffsets(src bytesource.Source, rowStart, tableOffset int64, n uint16) ([]int64, error) {
	offsets := make([]int64, n)
	for i := uint16(0); i < n; i++ {
		off, err := src.ReadU16LE(rowStart + tableOffset + int64(i)*2)
		if err != nil {
			return nil, err
		}
		offsets[i] = int64(off)
	}
	return offsets, nil
}

// stringAt decodes the DeviceSqlString at offsets[slot] (relative to
// rowStart). A missing slot, a zero offset, or an offset that fails to
// decode (points past the row into unmapped territory) yields an empty
// string rather than an error, per §4.4's Failure clause; any recoverable
// condition is appended to warnings.
func stringAt(src bytesource.Source, rowStart int64, offsets []int64, slot int, warnings *[]error) string {
	if slot < 0 || slot >= len(offsets) || offsets[slot] == 0 {
		return ""
	}
	res, err := dsql.Decode(src, rowStart+offsets[slot])
	if err != nil {
		*warnings = append(*warnings, err)
		return ""
	}
	if res.Warning != nil {
		*warnings = append(*warnings, res.Warning)
	}
	return res.Value
}
