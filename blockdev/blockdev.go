// Package blockdev provides a thin, non-caching byte-addressed view over a
// backing random-access stream, the way drivers/common/blockdevice.go gives
// disko's format drivers a block-multiple view over one. Every call
// round-trips straight to the backing stream; nothing is buffered or
// cached here, since the filesystem layered on top owns its own notion of
// what needs to hit disk and when.
package blockdev

import (
	"fmt"
	"io"
	"sync"
)

// Device is a byte-addressed block device: reads and writes take an
// absolute byte offset rather than a block number, unlike the teacher's
// block-multiple-only BlockDevice, because the filesystem above it mixes
// whole-block I/O (the BAT, directory regions) with sub-block I/O (partial
// reads/writes into the tail of a file).
type Device struct {
	stream io.ReaderAt
	writer io.WriterAt
	size   int64
}

// New wraps stream as a Device. size is the total addressable byte range;
// reads or writes that would cross it fail with an out-of-bounds error.
func New(stream io.ReaderAt, writer io.WriterAt, size int64) *Device {
	return &Device{stream: stream, writer: writer, size: size}
}

// Size returns the total addressable byte range of the device.
func (d *Device) Size() int64 {
	return d.size
}

func (d *Device) checkBounds(off int64, length int) error {
	if off < 0 || length < 0 {
		return fmt.Errorf("blockdev: negative offset or length (off=%d, len=%d)", off, length)
	}
	if off+int64(length) > d.size {
		return fmt.Errorf(
			"blockdev: access [%d, %d) extends past device end (%d bytes)",
			off, off+int64(length), d.size)
	}
	return nil
}

// ReadAt reads len(dst) bytes starting at byte offset off.
func (d *Device) ReadAt(dst []byte, off int64) error {
	if err := d.checkBounds(off, len(dst)); err != nil {
		return err
	}
	n, err := d.stream.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return err
	}
	if n < len(dst) {
		return fmt.Errorf("blockdev: short read at offset %d: got %d of %d bytes", off, n, len(dst))
	}
	return nil
}

// WriteAt writes src starting at byte offset off.
func (d *Device) WriteAt(src []byte, off int64) error {
	if err := d.checkBounds(off, len(src)); err != nil {
		return err
	}
	n, err := d.writer.WriteAt(src, off)
	if err != nil {
		return err
	}
	if n < len(src) {
		return fmt.Errorf("blockdev: short write at offset %d: wrote %d of %d bytes", off, n, len(src))
	}
	return nil
}

// ReadWriterAt is the minimal capability a backing stream must offer to be
// wrapped by New; *os.File satisfies it. The bytesextra-wrapped in-memory
// buffers used in tests do not, and go through NewFromSeeker instead.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// NewFromReadWriterAt is a convenience constructor for the common case
// where one object satisfies both io.ReaderAt and io.WriterAt.
func NewFromReadWriterAt(stream ReadWriterAt, size int64) *Device {
	return New(stream, stream, size)
}

// seekerAt adapts an io.ReadWriteSeeker into io.ReaderAt/io.WriterAt by
// seeking before each operation, serialized with a mutex since Seek+Read
// (or Seek+Write) must run as one atomic step. bytesextra's
// ReadWriteSeeker (used to back in-memory test images) only implements
// io.ReadWriteSeeker, not the At variants, so this is the adapter New
// needs to accept one directly.
type seekerAt struct {
	mu     sync.Mutex
	stream io.ReadWriteSeeker
}

// NewFromSeeker wraps an io.ReadWriteSeeker, such as the buffer returned
// by bytesextra.NewReadWriteSeeker, as a Device.
func NewFromSeeker(stream io.ReadWriteSeeker, size int64) *Device {
	s := &seekerAt{stream: stream}
	return New(s, s, size)
}

func (s *seekerAt) ReadAt(dst []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stream.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s.stream, dst)
}

func (s *seekerAt) WriteAt(src []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stream.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return s.stream.Write(src)
}
