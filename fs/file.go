package fs

import (
	"errors"

	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/internal/dirent"
)

// Read copies up to len(dst) bytes from path starting at offset into dst,
// returning the number of bytes actually copied. Reading at or past the
// end of the file returns 0 and no error, matching sfs_read's early
// return when offset >= file size.
func (f *FileSystem) Read(path string, dst []byte, offset int64) (int, error) {
	loc, err := f.resolve(path)
	if err != nil {
		return 0, err
	}
	if loc.isRoot || loc.entry.IsDirectory() {
		return 0, sfs.ErrIsADirectory.WithMessage(path)
	}

	fileSize := int64(loc.entry.SizeOf())
	if offset >= fileSize {
		return 0, nil
	}

	want := len(dst)
	if offset+int64(want) > fileSize {
		want = int(fileSize - offset)
	}
	if want == 0 {
		return 0, nil
	}

	current := loc.entry.FirstBlock
	remaining := offset
	for remaining >= int64(f.layout.BlockSize) {
		next, err := f.bat.Next(current)
		if err != nil {
			return 0, err
		}
		if next == sfs.CellEnd {
			return 0, nil
		}
		current = next
		remaining -= int64(f.layout.BlockSize)
	}

	read := 0
	blockOffset := remaining
	for read < want {
		canRead := int64(f.layout.BlockSize) - blockOffset
		if canRead > int64(want-read) {
			canRead = int64(want - read)
		}
		if err := f.dev.ReadAt(dst[read:int64(read)+canRead], f.layout.BlockOffset(current)+blockOffset); err != nil {
			return read, err
		}
		read += int(canRead)
		blockOffset = 0

		if read < want {
			next, err := f.bat.Next(current)
			if err != nil {
				return read, err
			}
			if next == sfs.CellEnd {
				break
			}
			current = next
		}
	}
	return read, nil
}

// zeroBlock writes a block's worth of zero bytes to block id.
func (f *FileSystem) zeroBlock(id sfs.BlockID) error {
	zeros := make([]byte, f.layout.BlockSize)
	return f.dev.WriteAt(zeros, f.layout.BlockOffset(id))
}

// extendChain appends a freshly allocated, zero-filled block after tail
// and returns it. It leaves the new block terminated (CellEnd); the
// caller relinks as needed.
func (f *FileSystem) extendChain(tail sfs.BlockID) (sfs.BlockID, error) {
	next, err := f.bat.Allocate()
	if err != nil {
		return 0, err
	}
	if err := f.zeroBlock(next); err != nil {
		return 0, err
	}
	if err := f.bat.Link(tail, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Write copies data into path starting at offset, growing the file (and
// its block chain) as needed. Any gap between the file's previous end
// and offset is filled with newly allocated, zero-filled blocks, so a
// subsequent read of that range returns zeroes rather than
// uninitialized data.
//
// Running out of space partway through is not an error: like sfs_write,
// which simply breaks its fill loop when it can't get another block,
// Write stops and reports the bytes it managed to transfer with a nil
// error. Any other failure (an I/O error, say) is still returned as an
// error alongside however many bytes were written before it happened.
func (f *FileSystem) Write(path string, data []byte, offset int64) (int, error) {
	loc, err := f.resolve(path)
	if err != nil {
		return 0, err
	}
	if loc.isRoot || loc.entry.IsDirectory() {
		return 0, sfs.ErrIsADirectory.WithMessage(path)
	}
	if offset < 0 {
		return 0, sfs.ErrInvalidArgument.WithMessage("negative offset")
	}

	entry := loc.entry
	originalFirstBlock := entry.FirstBlock
	currentSize := int64(entry.SizeOf())
	if offset+int64(len(data)) > int64(sfs.SizeMask) {
		return 0, sfs.ErrFileTooLarge.WithMessage(path)
	}

	written := 0
	exhausted := false
	if len(data) > 0 {
		if entry.FirstBlock == sfs.CellEnd {
			first, err := f.bat.Allocate()
			if err != nil {
				if !errors.Is(err, sfs.ErrNoSpaceOnDevice) {
					return 0, err
				}
				exhausted = true
			} else {
				if err := f.zeroBlock(first); err != nil {
					return 0, err
				}
				entry.FirstBlock = first
			}
		}

		current := entry.FirstBlock
		currentOffset := int64(0)
		for !exhausted && currentOffset+int64(f.layout.BlockSize) <= offset {
			next, err := f.bat.Next(current)
			if err != nil {
				return 0, err
			}
			if next == sfs.CellEnd {
				next, err = f.extendChain(current)
				if err != nil {
					if !errors.Is(err, sfs.ErrNoSpaceOnDevice) {
						return 0, err
					}
					exhausted = true
					break
				}
				if err := f.bat.Terminate(next); err != nil {
					return 0, err
				}
			}
			current = next
			currentOffset += int64(f.layout.BlockSize)
		}

		for !exhausted && written < len(data) {
			blockOff := offset + int64(written) - currentOffset
			canWrite := int64(f.layout.BlockSize) - blockOff
			if canWrite > int64(len(data)-written) {
				canWrite = int64(len(data) - written)
			}

			if err := f.dev.WriteAt(data[written:int64(written)+canWrite], f.layout.BlockOffset(current)+blockOff); err != nil {
				return written, err
			}
			written += int(canWrite)

			if written < len(data) {
				next, err := f.bat.Next(current)
				if err != nil {
					return written, err
				}
				if next == sfs.CellEnd {
					next, err = f.extendChain(current)
					if err != nil {
						if errors.Is(err, sfs.ErrNoSpaceOnDevice) {
							break
						}
						return written, err
					}
					if err := f.bat.Terminate(next); err != nil {
						return written, err
					}
				}
				current = next
				currentOffset += int64(f.layout.BlockSize)
			}
		}
	}

	// A file that was empty and received no bytes keeps no chain: release
	// any blocks linked on its behalf before space ran out.
	if written == 0 && originalFirstBlock == sfs.CellEnd && entry.FirstBlock != sfs.CellEnd {
		if err := f.bat.FreeChain(entry.FirstBlock); err != nil {
			return 0, err
		}
		entry.FirstBlock = sfs.CellEnd
	}

	// offset+written is only meaningful once bytes have actually landed:
	// if nothing was written (e.g. space ran out before the hole leading
	// up to offset could even be filled), the file's size must not grow
	// to a position nothing backs.
	sizeChanged := false
	if written > 0 {
		actualEnd := offset + int64(written)
		if actualEnd > currentSize {
			entry.Size = uint32(actualEnd)
			sizeChanged = true
		}
	}
	if sizeChanged || entry.FirstBlock != originalFirstBlock {
		if err := dirent.Write(f.dev, f.layout, loc.region, loc.slot, entry); err != nil {
			return written, err
		}
	}
	return written, nil
}

// Truncate grows or shrinks path to exactly size bytes. Growing zero-fills
// the new tail the same way Write fills a hole. Shrinking walks to the
// block that newly becomes the tail, frees every block after it (the
// first of which is held in its own variable, separate from the tail),
// and terminates the tail explicitly.
func (f *FileSystem) Truncate(path string, size int64) error {
	if size < 0 {
		return sfs.ErrInvalidArgument.WithMessage("negative size")
	}
	if size > int64(sfs.SizeMask) {
		return sfs.ErrFileTooLarge.WithMessage(path)
	}

	loc, err := f.resolve(path)
	if err != nil {
		return err
	}
	if loc.isRoot || loc.entry.IsDirectory() {
		return sfs.ErrIsADirectory.WithMessage(path)
	}

	entry := loc.entry
	currentSize := int64(entry.SizeOf())

	switch {
	case size < currentSize:
		blocksToKeep := (size + int64(f.layout.BlockSize) - 1) / int64(f.layout.BlockSize)
		if blocksToKeep == 0 {
			if err := f.bat.FreeChain(entry.FirstBlock); err != nil {
				return err
			}
			entry.FirstBlock = sfs.CellEnd
		} else {
			tail := entry.FirstBlock
			for i := int64(1); i < blocksToKeep; i++ {
				next, err := f.bat.Next(tail)
				if err != nil {
					return err
				}
				tail = next
			}
			afterTail, err := f.bat.Next(tail)
			if err != nil {
				return err
			}
			if afterTail != sfs.CellEnd {
				if err := f.bat.FreeChain(afterTail); err != nil {
					return err
				}
				if err := f.bat.Terminate(tail); err != nil {
					return err
				}
			}
		}

	case size > currentSize:
		if entry.FirstBlock == sfs.CellEnd {
			first, err := f.bat.Allocate()
			if err != nil {
				return err
			}
			if err := f.zeroBlock(first); err != nil {
				return err
			}
			entry.FirstBlock = first
		}

		tail := entry.FirstBlock
		allocatedBlocks := int64(1)
		for {
			next, err := f.bat.Next(tail)
			if err != nil {
				return err
			}
			if next == sfs.CellEnd {
				break
			}
			tail = next
			allocatedBlocks++
		}

		targetBlocks := (size + int64(f.layout.BlockSize) - 1) / int64(f.layout.BlockSize)
		blocksNeeded := targetBlocks - allocatedBlocks
		for i := int64(0); i < blocksNeeded; i++ {
			next, err := f.extendChain(tail)
			if err != nil {
				return err
			}
			if err := f.bat.Terminate(next); err != nil {
				return err
			}
			tail = next
		}
	}

	entry.Size = uint32(size)
	return dirent.Write(f.dev, f.layout, loc.region, loc.slot, entry)
}

// Create adds a new, empty regular file entry at path. The parent
// directory must already exist and must not already contain an entry
// with this name.
func (f *FileSystem) Create(path string) error {
	if f.Exists(path) {
		return sfs.ErrExists.WithMessage(path)
	}

	region, name, err := f.resolveParent(path)
	if err != nil {
		return err
	}

	slot, err := dirent.FindFreeSlot(f.dev, f.layout, region)
	if err != nil {
		return err
	}

	return dirent.Write(f.dev, f.layout, region, slot, sfs.Entry{
		Name:       name,
		FirstBlock: sfs.CellEnd,
		Size:       0,
	})
}

// Unlink removes a regular file, freeing its block chain and clearing
// its directory slot.
func (f *FileSystem) Unlink(path string) error {
	loc, err := f.resolve(path)
	if err != nil {
		return err
	}
	if loc.isRoot || loc.entry.IsDirectory() {
		return sfs.ErrIsADirectory.WithMessage(path)
	}

	if err := f.bat.FreeChain(loc.entry.FirstBlock); err != nil {
		return err
	}
	return dirent.Clear(f.dev, f.layout, loc.region, loc.slot)
}
