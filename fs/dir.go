package fs

import (
	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/internal/dirent"
)

// Mkdir creates a new subdirectory at path. Its two-block chain is
// reserved as one unit: if either block can't be allocated, or the
// parent has no free slot for the new entry, nothing is left allocated.
func (f *FileSystem) Mkdir(path string) error {
	if f.Exists(path) {
		return sfs.ErrExists.WithMessage(path)
	}

	region, name, err := f.resolveParent(path)
	if err != nil {
		return err
	}

	first, _, err := f.bat.ReserveTwo()
	if err != nil {
		return err
	}

	// The pair is guaranteed physically adjacent by ReserveTwo, so the
	// new directory's entry array can be addressed as one flat range
	// spanning both blocks.
	subRegion := f.subdirRegion(first)
	for i := uint32(0); i < subRegion.Count; i++ {
		if err := dirent.Clear(f.dev, f.layout, subRegion, i); err != nil {
			_ = f.bat.FreeChain(first)
			return err
		}
	}

	slot, err := dirent.FindFreeSlot(f.dev, f.layout, region)
	if err != nil {
		_ = f.bat.FreeChain(first)
		return err
	}

	return dirent.Write(f.dev, f.layout, region, slot, sfs.Entry{
		Name:       name,
		FirstBlock: first,
		Size:       sfs.DirectoryFlag,
	})
}

// Rmdir removes an empty subdirectory. Removing the root directory
// always fails with ErrBusy; removing a non-empty directory fails with
// ErrDirectoryNotEmpty.
func (f *FileSystem) Rmdir(path string) error {
	if path == "/" {
		return sfs.ErrBusy.WithMessage("cannot remove the root directory")
	}

	loc, err := f.resolve(path)
	if err != nil {
		return err
	}
	if !loc.entry.IsDirectory() {
		return sfs.ErrNotADirectory.WithMessage(path)
	}

	subRegion := f.subdirRegion(loc.entry.FirstBlock)
	empty, err := dirent.IsEmpty(f.dev, f.layout, subRegion)
	if err != nil {
		return err
	}
	if !empty {
		return sfs.ErrDirectoryNotEmpty.WithMessage(path)
	}

	if err := f.bat.FreeChain(loc.entry.FirstBlock); err != nil {
		return err
	}
	return dirent.Clear(f.dev, f.layout, loc.region, loc.slot)
}
