// Package bytesource provides the random-access, endian-aware byte reader
// that every decoder in this module is built on top of. It backs onto either
// a memory-mapped file (golang.org/x/exp/mmap) or an in-memory buffer behind
// one Source interface, per the ByteSource contract.
package bytesource

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/mmap"

	"github.com/crateindex/exportdb/internal/xerrors"
)

// Source is a seekable, length-known random-access byte range with
// endian-aware primitives and bit-field reads. Implementations never block
// except on the underlying I/O (disk for a mapped file, none for a buffer).
type Source interface {
	// Len returns the total number of bytes available.
	Len() int64

	// ReadU8 reads a single byte at offset.
	ReadU8(offset int64) (uint8, error)
	// ReadU16LE / ReadU32LE / ReadU16BE / ReadU32BE read a little- or
	// big-endian integer at offset.
	ReadU16LE(offset int64) (uint16, error)
	ReadU32LE(offset int64) (uint32, error)
	ReadU16BE(offset int64) (uint16, error)
	ReadU32BE(offset int64) (uint32, error)

	// ReadBytes returns a copy of length bytes starting at offset.
	ReadBytes(offset int64, length int) ([]byte, error)

	// ReadBits reads n bits starting at bitOffset within the byte at
	// offset, LSB-first within each byte, and returns them as an unsigned
	// integer. Used for the page-tail row-presence bitmap.
	ReadBits(offset int64, bitOffset uint, n uint) (uint64, error)

	// Sub returns a zero-copy view restricted to [offset, offset+length).
	Sub(offset int64, length int64) (Source, error)

	// Close releases any resources (file descriptors, mappings) held by
	// the source. A buffer-backed source's Close is a no-op.
	Close() error
}

// mmapSource backs onto a memory-mapped file.
type mmapSource struct {
	r      *mmap.ReaderAt
	base   int64 // offset of this view's 0 within the underlying file
	length int64
}

// OpenFile memory-maps path and returns a Source over its full contents.
func OpenFile(path string) (Source, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, xerrors.IO(path, err)
	}
	return &mmapSource{r: r, base: 0, length: int64(r.Len())}, nil
}

func (m *mmapSource) Len() int64 { return m.length }

func (m *mmapSource) checkBounds(offset int64, n int64) error {
	if offset < 0 || n < 0 || offset+n > m.length {
		need := n
		if need < 0 {
			need = 0
		}
		return xerrors.Truncated(offset, int(need))
	}
	return nil
}

func (m *mmapSource) ReadU8(offset int64) (uint8, error) {
	b, err := m.ReadBytes(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *mmapSource) ReadU16LE(offset int64) (uint16, error) {
	b, err := m.ReadBytes(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *mmapSource) ReadU32LE(offset int64) (uint32, error) {
	b, err := m.ReadBytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *mmapSource) ReadU16BE(offset int64) (uint16, error) {
	b, err := m.ReadBytes(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (m *mmapSource) ReadU32BE(offset int64) (uint32, error) {
	b, err := m.ReadBytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (m *mmapSource) ReadBytes(offset int64, length int) ([]byte, error) {
	if err := m.checkBounds(offset, int64(length)); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	n, err := m.r.ReadAt(out, m.base+offset)
	if err != nil && n != length {
		return nil, xerrors.Truncated(offset, length)
	}
	return out, nil
}

func (m *mmapSource) ReadBits(offset int64, bitOffset uint, n uint) (uint64, error) {
	return readBitsFrom(m, offset, bitOffset, n)
}

func (m *mmapSource) Sub(offset int64, length int64) (Source, error) {
	if err := m.checkBounds(offset, length); err != nil {
		return nil, err
	}
	return &mmapSource{r: m.r, base: m.base + offset, length: length}, nil
}

func (m *mmapSource) Close() error { return m.r.Close() }

// BufferSource backs onto an in-memory byte slice.
type BufferSource struct {
	data []byte
}

// NewBuffer wraps data (not copied) as a Source.
func NewBuffer(data []byte) Source {
	return &BufferSource{data: data}
}

func (b *BufferSource) Len() int64 { return int64(len(b.data)) }

func (b *BufferSource) checkBounds(offset int64, n int64) error {
	if offset < 0 || n < 0 || offset+n > int64(len(b.data)) {
		need := n
		if need < 0 {
			need = 0
		}
		return xerrors.Truncated(offset, int(need))
	}
	return nil
}

func (b *BufferSource) ReadU8(offset int64) (uint8, error) {
	if err := b.checkBounds(offset, 1); err != nil {
		return 0, err
	}
	return b.data[offset], nil
}

func (b *BufferSource) ReadU16LE(offset int64) (uint16, error) {
	if err := b.checkBounds(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b.data[offset:]), nil
}

func (b *BufferSource) ReadU32LE(offset int64) (uint32, error) {
	if err := b.checkBounds(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data[offset:]), nil
}

func (b *BufferSource) ReadU16BE(offset int64) (uint16, error) {
	if err := b.checkBounds(offset, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b.data[offset:]), nil
}

func (b *BufferSource) ReadU32BE(offset int64) (uint32, error) {
	if err := b.checkBounds(offset, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b.data[offset:]), nil
}

func (b *BufferSource) ReadBytes(offset int64, length int) ([]byte, error) {
	if err := b.checkBounds(offset, int64(length)); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, b.data[offset:offset+int64(length)])
	return out, nil
}

func (b *BufferSource) ReadBits(offset int64, bitOffset uint, n uint) (uint64, error) {
	return readBitsFrom(b, offset, bitOffset, n)
}

func (b *BufferSource) Sub(offset int64, length int64) (Source, error) {
	if err := b.checkBounds(offset, length); err != nil {
		return nil, err
	}
	return &BufferSource{data: b.data[offset : offset+length]}, nil
}

func (b *BufferSource) Close() error { return nil }

// readBitsFrom reads n bits starting at the given bit position (byte offset
// plus a sub-byte bitOffset), LSB-first within each byte, common to both
// Source implementations. The buffer is packed into little-endian uint64
// words and handed to a bitset.BitSet so a row's presence bit is a plain
// membership test rather than a hand-rolled shift-and-mask loop.
func readBitsFrom(s Source, offset int64, bitOffset uint, n uint) (uint64, error) {
	if n > 64 {
		return 0, xerrors.MalformedRowf("requested more than 64 bits")
	}
	totalBits := bitOffset + n
	nBytes := int((totalBits + 7) / 8)
	buf, err := s.ReadBytes(offset, nBytes)
	if err != nil {
		return 0, err
	}

	words := make([]uint64, (len(buf)+7)/8)
	for i, byteVal := range buf {
		words[i/8] |= uint64(byteVal) << uint((i%8)*8)
	}
	bits := bitset.From(words)

	var result uint64
	for i := uint(0); i < n; i++ {
		if bits.Test(bitOffset + i) {
			result |= 1 << i
		}
	}
	return result, nil
}
