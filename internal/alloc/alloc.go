// Package alloc implements the block-allocation table: a linear array of
// cells, one per data block, each holding either a sentinel (free, or end
// of chain) or the index of the next block in its chain. Chains are walked
// and freed through the on-disk BAT, the way sfs_excerpt.c's
// allocate_block and free_block_chain do. Alongside it the Table keeps a
// github.com/boljen/go-bitmap free-block bitmap, built from the BAT at
// Open and updated on every allocation and free, mirroring
// drivers/common/allocatormap.go's Allocator and drivers/unixv1's
// blockFreeMap. Free-block searches scan that bitmap in ascending index
// order rather than re-reading BAT cells.
package alloc

import (
	"encoding/binary"

	"github.com/boljen/go-bitmap"

	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/blockdev"
)

// Table is the block-allocation table for one mounted image.
type Table struct {
	layout    sfs.Layout
	dev       *blockdev.Device
	free      bitmap.Bitmap
	freeCount uint32
}

// Open reads the on-disk BAT region described by layout from dev and
// builds the in-memory free-block bitmap used for statistics.
func Open(dev *blockdev.Device, layout sfs.Layout) (*Table, error) {
	t := &Table{layout: layout, dev: dev, free: bitmap.New(int(layout.BatN))}
	for i := uint32(0); i < layout.BatN; i++ {
		cell, err := t.readCell(sfs.BlockID(i))
		if err != nil {
			return nil, err
		}
		if cell == sfs.CellEmpty {
			t.free.Set(int(i), true)
			t.freeCount++
		}
	}
	return t, nil
}

func (t *Table) readCell(id sfs.BlockID) (sfs.BlockID, error) {
	buf := make([]byte, 4)
	if err := t.dev.ReadAt(buf, t.layout.BatCellOffset(id)); err != nil {
		return 0, err
	}
	return sfs.BlockID(binary.LittleEndian.Uint32(buf)), nil
}

func (t *Table) writeCell(id sfs.BlockID, value sfs.BlockID) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(value))
	return t.dev.WriteAt(buf, t.layout.BatCellOffset(id))
}

// findAdjacentPair returns the lowest index i such that both i and i+1
// are free.
func (t *Table) findAdjacentPair() (sfs.BlockID, error) {
	if t.layout.BatN < 2 {
		return 0, sfs.ErrNoSpaceOnDevice.WithMessage("no adjacent free block pair")
	}
	for i := uint32(0); i < t.layout.BatN-1; i++ {
		if t.free.Get(int(i)) && t.free.Get(int(i+1)) {
			return sfs.BlockID(i), nil
		}
	}
	return 0, sfs.ErrNoSpaceOnDevice.WithMessage("no adjacent free block pair")
}

// FindFree scans the in-memory free-block bitmap for the first free block,
// in ascending block order, without allocating it. It returns sfs.ErrNoSpaceOnDevice if none
// is free.
func (t *Table) FindFree() (sfs.BlockID, error) {
	for i := uint32(0); i < t.layout.BatN; i++ {
		if t.free.Get(int(i)) {
			return sfs.BlockID(i), nil
		}
	}
	return 0, sfs.ErrNoSpaceOnDevice.WithMessage("no free blocks")
}

// Allocate finds the lowest-indexed free block, marks it CellEnd (a
// singleton chain of length one), and returns it.
func (t *Table) Allocate() (sfs.BlockID, error) {
	id, err := t.FindFree()
	if err != nil {
		return 0, err
	}
	if err := t.writeCell(id, sfs.CellEnd); err != nil {
		return 0, err
	}
	t.free.Set(int(id), false)
	t.freeCount--
	return id, nil
}

// Next returns the block chained after id, or sfs.CellEnd/sfs.CellEmpty
// if id terminates its chain.
func (t *Table) Next(id sfs.BlockID) (sfs.BlockID, error) {
	return t.readCell(id)
}

// Link sets the BAT cell for `from` to point at `to`, extending a chain.
func (t *Table) Link(from, to sfs.BlockID) error {
	return t.writeCell(from, to)
}

// Terminate marks id as the last block of its chain.
func (t *Table) Terminate(id sfs.BlockID) error {
	return t.writeCell(id, sfs.CellEnd)
}

// FreeChain walks the chain starting at start, marking every cell it
// visits empty. It stops at either CellEnd or CellEmpty: a chain that
// already trails into an unallocated cell is not treated as an error,
// matching sfs_excerpt.c's free_block_chain, which checks for both
// sentinels in its loop condition.
func (t *Table) FreeChain(start sfs.BlockID) error {
	current := start
	for current != sfs.CellEnd && current != sfs.CellEmpty {
		next, err := t.readCell(current)
		if err != nil {
			return err
		}
		if err := t.writeCell(current, sfs.CellEmpty); err != nil {
			return err
		}
		if !t.free.Get(int(current)) {
			t.free.Set(int(current), true)
			t.freeCount++
		}
		current = next
	}
	return nil
}

// ReserveTwo allocates a physically adjacent pair of blocks and chains
// the first to the second, terminating the second — the shape every new
// subdirectory needs. The pair must be adjacent because a directory's
// entry array is addressed as one flat byte range spanning both blocks
// (an entry can straddle the boundary between them), not as two
// independently-addressed blocks joined only by the BAT chain. If no
// adjacent pair is free, or the second allocation somehow fails, nothing
// is left allocated (Open Question: mkdir's two-block allocation is
// atomic from the caller's point of view).
func (t *Table) ReserveTwo() (first, second sfs.BlockID, err error) {
	first, err = t.findAdjacentPair()
	if err != nil {
		return 0, 0, err
	}
	if err := t.writeCell(first, sfs.CellEnd); err != nil {
		return 0, 0, err
	}
	t.free.Set(int(first), false)
	t.freeCount--

	second = first + 1
	if err := t.writeCell(second, sfs.CellEnd); err != nil {
		_ = t.FreeChain(first)
		return 0, 0, err
	}
	t.free.Set(int(second), false)
	t.freeCount--

	if err := t.Link(first, second); err != nil {
		_ = t.FreeChain(first)
		return 0, 0, err
	}
	if err := t.Terminate(second); err != nil {
		_ = t.FreeChain(first)
		return 0, 0, err
	}
	return first, second, nil
}

// FreeCount returns the number of unallocated blocks, in O(1), from the
// running tally kept alongside the in-memory bitmap rather than
// re-scanning the on-disk BAT.
func (t *Table) FreeCount() uint32 {
	return t.freeCount
}
