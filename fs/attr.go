package fs

import (
	"time"

	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/internal/dirent"
)

// GetAttr returns metadata for path, synthesizing the fields this format
// does not persist: LastAccessed/LastModified/CreatedAt all report the
// current time, since no timestamp is stored on disk (see Design Notes).
func (f *FileSystem) GetAttr(path string) (sfs.FileStat, error) {
	loc, err := f.resolve(path)
	if err != nil {
		return sfs.FileStat{}, err
	}

	now := time.Now()
	stat := sfs.FileStat{
		BlockSize:    f.layout.BlockSize,
		LastAccessed: now,
		LastModified: now,
		CreatedAt:    now,
	}

	if loc.isRoot {
		stat.InodeNumber = uint64(f.layout.RootOff)
	} else {
		stat.InodeNumber = uint64(loc.region.Offset) + uint64(loc.slot)*uint64(f.layout.EntrySize())
	}

	if loc.entry.IsDirectory() {
		stat.ModeFlags = sfs.DefaultDirMode
		stat.Nlinks = 2
		stat.NumBlocks = 2
	} else {
		stat.ModeFlags = sfs.DefaultFileMode
		stat.Nlinks = 1
		stat.Size = uint64(loc.entry.SizeOf())
		count, err := f.chainLength(loc.entry.FirstBlock)
		if err != nil {
			return sfs.FileStat{}, err
		}
		stat.NumBlocks = uint64(count)
	}

	return stat, nil
}

func (f *FileSystem) chainLength(start sfs.BlockID) (uint32, error) {
	if start == sfs.CellEnd || start == sfs.CellEmpty {
		return 0, nil
	}
	count := uint32(0)
	current := start
	for current != sfs.CellEnd && current != sfs.CellEmpty {
		count++
		next, err := f.bat.Next(current)
		if err != nil {
			return 0, err
		}
		current = next
	}
	return count, nil
}

// ReadDir lists the names in the directory at path, synthesizing "." and
// ".." first and then listing named entries in on-disk slot order.
func (f *FileSystem) ReadDir(path string) ([]sfs.DirEntry, error) {
	loc, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	if !loc.isRoot && !loc.entry.IsDirectory() {
		return nil, sfs.ErrNotADirectory.WithMessage(path)
	}

	var region dirent.Region
	if loc.isRoot {
		region = f.rootRegion()
	} else {
		region = f.subdirRegion(loc.entry.FirstBlock)
	}

	entries, err := dirent.List(f.dev, f.layout, region)
	if err != nil {
		return nil, err
	}

	out := make([]sfs.DirEntry, 0, len(entries)+2)
	out = append(out, sfs.DirEntry{Name: ".", IsDirectory: true})
	out = append(out, sfs.DirEntry{Name: "..", IsDirectory: true})
	for _, e := range entries {
		out = append(out, sfs.DirEntry{Name: e.Name, IsDirectory: e.IsDirectory(), Size: e.SizeOf()})
	}
	return out, nil
}

// Exists reports whether path names an existing file or directory.
func (f *FileSystem) Exists(path string) bool {
	_, err := f.resolve(path)
	return err == nil
}

// Statfs returns aggregate statistics for the mounted image.
func (f *FileSystem) Statfs() (sfs.FSStat, error) {
	rootEntries, err := dirent.List(f.dev, f.layout, f.rootRegion())
	if err != nil {
		return sfs.FSStat{}, err
	}

	return sfs.FSStat{
		BlockSize:      f.layout.BlockSize,
		TotalBlocks:    f.layout.BatN,
		FreeBlocks:     f.bat.FreeCount(),
		TotalRootSlots: f.layout.RootN,
		FreeRootSlots:  f.layout.RootN - uint32(len(rootEntries)),
		FilenameMax:    f.layout.FilenameMax,
	}, nil
}

// Walk calls fn with each entry's full path and its DirEntry. If path
// names a regular file, fn is called once, for that file; if it names a
// directory, fn is called for every entry beneath it, depth-first, but not
// for the directory at path itself.
// It is read-only: nothing in this package mutates state as a side
// effect of walking, so a caller cannot use it to implement recursive
// delete.
func (f *FileSystem) Walk(path string, fn func(path string, entry sfs.DirEntry) error) error {
	loc, err := f.resolve(path)
	if err != nil {
		return err
	}
	if !loc.isRoot && !loc.entry.IsDirectory() {
		return fn(path, sfs.DirEntry{Name: path, IsDirectory: false, Size: loc.entry.SizeOf()})
	}
	return f.walkDir(path, loc, fn)
}

func (f *FileSystem) walkDir(path string, loc located, fn func(string, sfs.DirEntry) error) error {
	var region dirent.Region
	if loc.isRoot {
		region = f.rootRegion()
	} else {
		region = f.subdirRegion(loc.entry.FirstBlock)
	}

	entries, err := dirent.List(f.dev, f.layout, region)
	if err != nil {
		return err
	}

	for _, e := range entries {
		childPath := joinPath(path, e.Name)
		if err := fn(childPath, sfs.DirEntry{Name: e.Name, IsDirectory: e.IsDirectory(), Size: e.SizeOf()}); err != nil {
			return err
		}
		if e.IsDirectory() {
			if err := f.walkDir(childPath, located{entry: e}, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}
