package sfs

import (
	"encoding/binary"
	"fmt"
)

// BlockID identifies a block by its zero-based index into the data region.
// It doubles as a BAT cell value: a cell either holds the BlockID of the
// next block in a chain, or one of the two sentinels below.
type BlockID uint32

const (
	// CellEmpty marks a BAT cell (and thus the block it corresponds to) as
	// unallocated.
	CellEmpty BlockID = 0xFFFFFFFF
	// CellEnd marks a BAT cell as the last block of an allocated chain.
	CellEnd BlockID = 0xFFFFFFFE
)

// DirectoryFlag, set in an Entry's Size field, marks the entry as a
// subdirectory rather than a regular file. SizeMask recovers the byte
// size of a regular file from Size; for directories those bits are unused
// and written as zero.
const (
	DirectoryFlag uint32 = 0x80000000
	SizeMask      uint32 = 0x7FFFFFFF
)

// Layout describes the on-disk geometry of a mounted image: where the root
// directory, block-allocation table, and data region begin, and how large
// each fixed-size record is. It is a runtime value rather than a set of
// compile-time constants so that images of different sizes can share the
// same code, the way disko.FileSystemImplementer parameterizes over
// FSFeatures instead of hardcoding one format's geometry.
type Layout struct {
	// BlockSize is the size, in bytes, of one data block.
	BlockSize uint32
	// RootOff is the byte offset of the root directory region.
	RootOff int64
	// RootN is the number of directory entry slots in the root directory.
	RootN uint32
	// BatOff is the byte offset of the block-allocation table.
	BatOff int64
	// BatN is the number of cells in the block-allocation table, and thus
	// the number of addressable data blocks.
	BatN uint32
	// DataOff is the byte offset of block 0 of the data region.
	DataOff int64
	// FilenameMax is the size, in bytes, of an entry's name field,
	// including its NUL terminator; a name may use at most FilenameMax-1
	// bytes.
	FilenameMax uint32
}

// EntrySize returns the on-disk size of one directory entry record:
// FilenameMax bytes of name, a 4-byte first-block field, and a 4-byte
// size/flags field. Names may use at most FilenameMax-1 bytes, since the
// field must always retain a NUL terminator.
func (l Layout) EntrySize() uint32 {
	return l.FilenameMax + 8
}

// DirN returns the number of directory entry slots that fit in the
// two-block region used by every subdirectory (root's own capacity is
// RootN and may differ, since the root region is not itself chained
// through the BAT).
func (l Layout) DirN() uint32 {
	return (2 * l.BlockSize) / l.EntrySize()
}

// Validate checks that a Layout is internally consistent: regions don't
// overlap, at least one entry fits in the two-block subdirectory region,
// and the geometry can address at least one data block.
func (l Layout) Validate() error {
	if l.BlockSize == 0 {
		return ErrInvalidArgument.WithMessage("block size must be nonzero")
	}
	if l.FilenameMax == 0 {
		return ErrInvalidArgument.WithMessage("filename max must be nonzero")
	}
	if l.RootN == 0 {
		return ErrInvalidArgument.WithMessage("root directory must have at least one slot")
	}
	if l.BatN == 0 {
		return ErrInvalidArgument.WithMessage("block-allocation table must have at least one cell")
	}
	if l.BatN >= uint32(CellEnd) {
		return ErrInvalidArgument.WithMessage(
			fmt.Sprintf("block-allocation table too large: %d cells collides with sentinel values", l.BatN))
	}
	if l.DirN() == 0 {
		return ErrInvalidArgument.WithMessage("entry size too large: no entries fit in a two-block subdirectory")
	}
	rootSize := int64(l.RootN) * int64(l.EntrySize())
	batSize := int64(l.BatN) * 4
	if l.RootOff < 0 || l.BatOff < l.RootOff+rootSize {
		return ErrInvalidArgument.WithMessage("block-allocation table overlaps root directory")
	}
	if l.DataOff < l.BatOff+batSize {
		return ErrInvalidArgument.WithMessage("data region overlaps block-allocation table")
	}
	return nil
}

// BlockOffset returns the byte offset of the given block within the
// backing device.
func (l Layout) BlockOffset(id BlockID) int64 {
	return l.DataOff + int64(id)*int64(l.BlockSize)
}

// BatCellOffset returns the byte offset of the BAT cell for the given
// block.
func (l Layout) BatCellOffset(id BlockID) int64 {
	return l.BatOff + int64(id)*4
}

// Standard is the canonical default layout used by the worked examples:
// 512-byte blocks, a 128-slot root directory, 32-byte filenames, and a
// 4096-cell allocation table. DirN works out to 25 entries per
// subdirectory (floor(2*512/40)), the two-block subdirectory invariant
// being load-bearing over any particular slot count.
var Standard = Layout{
	BlockSize:   512,
	RootOff:     512,
	RootN:       128,
	FilenameMax: 32,
}.WithBatSize(4096)

// WithBatSize returns a copy of l with BatOff, BatN and DataOff derived
// from a requested BAT size, placing each region immediately after the
// previous one. BlockSize, RootOff, RootN and FilenameMax must already
// be set.
func (l Layout) WithBatSize(batN uint32) Layout {
	rootSize := int64(l.RootN) * int64(l.EntrySize())
	l.BatOff = l.RootOff + rootSize
	l.BatN = batN
	l.DataOff = l.BatOff + int64(batN)*4
	return l
}

// Entry is one fixed-size directory entry record.
type Entry struct {
	Name       string
	FirstBlock BlockID
	// Size is the raw on-disk size/flags field: SizeMask bits give the
	// byte size for a regular file (zero for a directory), DirectoryFlag
	// marks the entry as a subdirectory.
	Size uint32
}

// IsDirectory reports whether the entry names a subdirectory.
func (e Entry) IsDirectory() bool {
	return e.Size&DirectoryFlag != 0
}

// SizeOf returns the Size field with the directory flag masked off: the
// byte size for a regular file, and zero for a directory.
func (e Entry) SizeOf() uint32 {
	return e.Size & SizeMask
}

// Free reports whether this slot is unused. An unused slot is marked by a
// NUL first byte in its name field, mirroring file_systems/fat's
// free-slot convention.
func (e Entry) Free() bool {
	return len(e.Name) == 0 || e.Name[0] == 0
}

// Marshal encodes the entry into a FilenameMax+8 byte buffer per the
// layout's FilenameMax.
func (e Entry) Marshal(l Layout) []byte {
	buf := make([]byte, l.EntrySize())
	copy(buf[:l.FilenameMax], e.Name)
	binary.LittleEndian.PutUint32(buf[l.FilenameMax:], uint32(e.FirstBlock))
	binary.LittleEndian.PutUint32(buf[l.FilenameMax+4:], e.Size)
	return buf
}

// UnmarshalEntry decodes one directory entry record from buf, which must
// be at least l.EntrySize() bytes.
func UnmarshalEntry(l Layout, buf []byte) Entry {
	nameEnd := 0
	for nameEnd < int(l.FilenameMax) && buf[nameEnd] != 0 {
		nameEnd++
	}
	return Entry{
		Name:       string(buf[:nameEnd]),
		FirstBlock: BlockID(binary.LittleEndian.Uint32(buf[l.FilenameMax:])),
		Size:       binary.LittleEndian.Uint32(buf[l.FilenameMax+4:]),
	}
}
