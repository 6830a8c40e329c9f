// Package fixture builds fresh, empty SFS images for tests and the CLI's
// demo "init" subcommand. It is deliberately not part of the mounted-core
// API: formatting a *mounted* image is out of scope, so this only ever
// produces a brand new image before anything mounts it, the same
// division of labor unixv1's Format keeps from UnixV1Driver's mounted
// operations.
package fixture

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/dpeckham/sfs"
)

// Build returns a freshly formatted image of the given layout: an empty
// root directory, an all-free block-allocation table, and a zeroed data
// region. The returned slice is exactly layout.DataOff +
// int64(layout.BatN)*int64(layout.BlockSize) bytes long.
func Build(layout sfs.Layout) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	size := layout.DataOff + int64(layout.BatN)*int64(layout.BlockSize)
	buf := make([]byte, size)

	// bytewriter lets us hand binary.Write a plain byte slice as its
	// io.Writer, the way unixv1's Format writes fixed records straight
	// into a pre-sliced output buffer. Everything here is written
	// sequentially from the start of the image, so no seeking is needed:
	// the reserved header gap before RootOff, and the whole data region
	// after the BAT, are left at their zero-initialized values.
	writer := bytewriter.New(buf)

	if _, err := writer.Write(make([]byte, layout.RootOff)); err != nil {
		return nil, err
	}

	// Root directory: every slot free, i.e. all-zero. Each slot is written
	// out explicitly, one zeroed entry record at a time, so the format is
	// spelled out rather than relying on zero-value luck, matching the way
	// unixv1's Format writes out every inode even though most of them are
	// empty.
	emptyEntry := make([]byte, layout.EntrySize())
	for i := uint32(0); i < layout.RootN; i++ {
		if _, err := writer.Write(emptyEntry); err != nil {
			return nil, err
		}
	}

	// Block-allocation table: every cell CellEmpty.
	for i := uint32(0); i < layout.BatN; i++ {
		if err := binary.Write(writer, binary.LittleEndian, uint32(sfs.CellEmpty)); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

// BuildReader is a convenience wrapper returning Build's output already
// wrapped as a *bytes.Reader, for callers that just want to inspect a
// freshly built image rather than mount it.
func BuildReader(layout sfs.Layout) (*bytes.Reader, error) {
	buf, err := Build(layout)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}
