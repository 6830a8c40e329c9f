// Package fs implements the mounted filesystem: path resolution, file and
// directory operations, and attribute/listing queries, layered over
// blockdev.Device, internal/alloc, and internal/dirent. It plays the role
// unixv1.UnixV1Driver plays for its own format: one type owning the
// mounted state, with methods for each operation the format supports.
//
// A *FileSystem is not safe for concurrent use from multiple goroutines.
// Every operation reads and writes shared on-disk structures (the BAT, a
// directory's slot array) without internal locking, matching the
// single-threaded, totally-ordered execution model this format assumes.
// Callers needing concurrent access should serialize their own calls, for
// example with Serialize.
package fs

import (
	"io"

	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/blockdev"
	"github.com/dpeckham/sfs/internal/alloc"
	"github.com/dpeckham/sfs/internal/dirent"
)

// FileSystem is a mounted image: a block device plus the layout
// describing how to interpret it.
type FileSystem struct {
	dev    *blockdev.Device
	layout sfs.Layout
	bat    *alloc.Table
}

// Mount opens dev as an SFS image using layout, validating the layout and
// scanning the block-allocation table to build its in-memory free-block
// bitmap; the BAT cells themselves stay on disk. dev must already
// contain a formatted image; Mount does not initialize one (see
// internal/fixture for that).
func Mount(dev *blockdev.Device, layout sfs.Layout) (*FileSystem, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	bat, err := alloc.Open(dev, layout)
	if err != nil {
		return nil, err
	}
	return &FileSystem{dev: dev, layout: layout, bat: bat}, nil
}

// MountStream is a convenience wrapper around Mount for callers holding
// an io.ReadWriteSeeker (such as an in-memory test image built with
// bytesextra.NewReadWriteSeeker, or an *os.File) rather than a
// pre-built *blockdev.Device.
func MountStream(stream io.ReadWriteSeeker, size int64, layout sfs.Layout) (*FileSystem, error) {
	return Mount(blockdev.NewFromSeeker(stream, size), layout)
}

// Layout returns the geometry this filesystem was mounted with.
func (f *FileSystem) Layout() sfs.Layout {
	return f.layout
}

func (f *FileSystem) rootRegion() dirent.Region {
	return dirent.Region{Offset: f.layout.RootOff, Count: f.layout.RootN}
}

func (f *FileSystem) subdirRegion(firstBlock sfs.BlockID) dirent.Region {
	return dirent.Region{Offset: f.layout.BlockOffset(firstBlock), Count: f.layout.DirN()}
}
