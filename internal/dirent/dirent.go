// Package dirent implements the fixed-slot directory entry arrays used for
// both the root directory and every subdirectory: scanning slots for a
// name, finding the first free slot, and checking whether a directory
// holds any named entries. It follows sfs_excerpt.c's find_free_entry and
// check_dir_empty, using the fixed-record marshal/unmarshal convention
// from file_systems/fat/dirent.go (a NUL first byte in the name field
// marks a slot free).
package dirent

import (
	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/blockdev"
)

// Region describes one directory's entry array: where it starts on disk
// and how many slots it holds. The root directory and every subdirectory
// are both represented this way, differing only in slot count.
type Region struct {
	Offset int64
	Count  uint32
}

// Read returns the entry stored in slot i of the region.
func Read(dev *blockdev.Device, layout sfs.Layout, region Region, i uint32) (sfs.Entry, error) {
	buf := make([]byte, layout.EntrySize())
	if err := dev.ReadAt(buf, region.Offset+int64(i)*int64(layout.EntrySize())); err != nil {
		return sfs.Entry{}, err
	}
	return sfs.UnmarshalEntry(layout, buf), nil
}

// Write stores entry in slot i of the region.
func Write(dev *blockdev.Device, layout sfs.Layout, region Region, i uint32, entry sfs.Entry) error {
	buf := entry.Marshal(layout)
	return dev.WriteAt(buf, region.Offset+int64(i)*int64(layout.EntrySize()))
}

// Clear resets slot i to the free state.
func Clear(dev *blockdev.Device, layout sfs.Layout, region Region, i uint32) error {
	return Write(dev, layout, region, i, sfs.Entry{FirstBlock: sfs.CellEmpty})
}

// Find scans a region for an entry named `name`, returning its slot index.
// It returns sfs.ErrNotFound if no slot matches.
func Find(dev *blockdev.Device, layout sfs.Layout, region Region, name string) (sfs.Entry, uint32, error) {
	for i := uint32(0); i < region.Count; i++ {
		entry, err := Read(dev, layout, region, i)
		if err != nil {
			return sfs.Entry{}, 0, err
		}
		if !entry.Free() && entry.Name == name {
			return entry, i, nil
		}
	}
	return sfs.Entry{}, 0, sfs.ErrNotFound.WithMessage("no such file or directory")
}

// FindFreeSlot returns the index of the first free slot in the region.
func FindFreeSlot(dev *blockdev.Device, layout sfs.Layout, region Region) (uint32, error) {
	for i := uint32(0); i < region.Count; i++ {
		entry, err := Read(dev, layout, region, i)
		if err != nil {
			return 0, err
		}
		if entry.Free() {
			return i, nil
		}
	}
	return 0, sfs.ErrNoSpaceOnDevice.WithMessage("directory is full")
}

// IsEmpty reports whether every slot in the region is free.
func IsEmpty(dev *blockdev.Device, layout sfs.Layout, region Region) (bool, error) {
	for i := uint32(0); i < region.Count; i++ {
		entry, err := Read(dev, layout, region, i)
		if err != nil {
			return false, err
		}
		if !entry.Free() {
			return false, nil
		}
	}
	return true, nil
}

// List returns every named entry in the region, in on-disk slot order.
func List(dev *blockdev.Device, layout sfs.Layout, region Region) ([]sfs.Entry, error) {
	var entries []sfs.Entry
	for i := uint32(0); i < region.Count; i++ {
		entry, err := Read(dev, layout, region, i)
		if err != nil {
			return nil, err
		}
		if !entry.Free() {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
