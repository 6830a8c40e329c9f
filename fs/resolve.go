package fs

import (
	"errors"
	"strings"

	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/internal/dirent"
)

// located pairs a resolved entry with enough information to find and
// rewrite its directory slot, or marks it as the root (which has no slot
// of its own to rewrite).
type located struct {
	entry  sfs.Entry
	region dirent.Region
	slot   uint32
	isRoot bool
}

func splitPath(path string) []string {
	var out []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolve walks path component by component from the root, the way
// get_entry does in the original: for each component it scans the
// current directory's slot array for a matching name, then either
// returns (if this was the last component) or descends into the matching
// subdirectory (if there are more).
//
// Unlike the original, the successful match on the final component
// returns immediately from inside the scan loop instead of falling
// through to the loop's end and returning NOT_FOUND regardless of
// whether anything was found.
func (f *FileSystem) resolve(path string) (located, error) {
	if path == "" {
		return located{}, sfs.ErrInvalidArgument.WithMessage("empty path")
	}

	if path == "/" {
		return located{
			entry:  sfs.Entry{Size: sfs.DirectoryFlag},
			isRoot: true,
		}, nil
	}

	components := splitPath(path)
	if len(components) == 0 {
		return located{}, sfs.ErrNotFound.WithMessage(path)
	}

	region := f.rootRegion()

	for idx, component := range components {
		if len(component) >= int(f.layout.FilenameMax) {
			return located{}, sfs.ErrNameTooLong.WithMessage(component)
		}

		entry, slot, err := dirent.Find(f.dev, f.layout, region, component)
		if err != nil {
			if errors.Is(err, sfs.ErrNotFound) {
				return located{}, sfs.ErrNotFound.WithMessage(path)
			}
			return located{}, err
		}

		if idx == len(components)-1 {
			return located{entry: entry, region: region, slot: slot}, nil
		}

		if !entry.IsDirectory() {
			return located{}, sfs.ErrNotADirectory.WithMessage(component)
		}

		region = f.subdirRegion(entry.FirstBlock)
	}

	// Unreachable: the loop above always returns on its last iteration.
	return located{}, sfs.ErrNotFound.WithMessage(path)
}

// resolveParent resolves the directory containing the final component of
// path, returning that directory's region and the final component's name.
func (f *FileSystem) resolveParent(path string) (dirent.Region, string, error) {
	components := splitPath(path)
	if len(components) == 0 {
		return dirent.Region{}, "", sfs.ErrInvalidArgument.WithMessage("path has no final component")
	}

	name := components[len(components)-1]
	if len(name) >= int(f.layout.FilenameMax) {
		return dirent.Region{}, "", sfs.ErrNameTooLong.WithMessage(name)
	}

	if len(components) == 1 {
		return f.rootRegion(), name, nil
	}

	parentPath := "/" + strings.Join(components[:len(components)-1], "/")
	parent, err := f.resolve(parentPath)
	if err != nil {
		return dirent.Region{}, "", err
	}
	if !parent.isRoot && !parent.entry.IsDirectory() {
		return dirent.Region{}, "", sfs.ErrNotADirectory.WithMessage(parentPath)
	}

	var region dirent.Region
	if parent.isRoot {
		region = f.rootRegion()
	} else {
		region = f.subdirRegion(parent.entry.FirstBlock)
	}
	return region, name, nil
}
