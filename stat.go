package sfs

import "time"

// FileStat is returned by GetAttr, mirroring disko.FileStat's shape. Most
// multi-device/multi-link fields are always zero-valued here since this
// format has exactly one device and no hard links.
type FileStat struct {
	DeviceID     uint64
	InodeNumber  uint64
	Nlinks       uint32
	ModeFlags    uint32
	Uid          uint32
	Gid          uint32
	Size         uint64
	BlockSize    uint32
	NumBlocks    uint64
	LastAccessed time.Time
	LastModified time.Time
	CreatedAt    time.Time
}

// FSStat aggregates filesystem-wide statistics, returned by Statfs.
type FSStat struct {
	BlockSize      uint32
	TotalBlocks    uint32
	FreeBlocks     uint32
	TotalRootSlots uint32
	FreeRootSlots  uint32
	FilenameMax    uint32
}

// DirEntry is one name returned by ReadDir: the entry's name as it
// appears in its parent directory, plus enough of its Entry record to
// report type without a second lookup.
type DirEntry struct {
	Name        string
	IsDirectory bool
	Size        uint32
}
