package blockdev_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dpeckham/sfs/blockdev"
)

func newDevice(t *testing.T, size int64) *blockdev.Device {
	t.Helper()
	buf := make([]byte, size)
	stream := bytesextra.NewReadWriteSeeker(buf)
	return blockdev.NewFromSeeker(stream, size)
}

func TestReadAfterWrite(t *testing.T) {
	dev := newDevice(t, 4096)

	src := []byte("hello, block device")
	require.NoError(t, dev.WriteAt(src, 100))

	dst := make([]byte, len(src))
	require.NoError(t, dev.ReadAt(dst, 100))
	assert.Equal(t, src, dst)
}

func TestReadAtZeroFillsUntouchedRegion(t *testing.T) {
	dev := newDevice(t, 512)

	dst := make([]byte, 512)
	require.NoError(t, dev.ReadAt(dst, 0))
	for _, b := range dst {
		assert.Equal(t, byte(0), b)
	}
}

func TestOutOfBoundsAccessFails(t *testing.T) {
	dev := newDevice(t, 512)

	err := dev.ReadAt(make([]byte, 16), 500)
	assert.Error(t, err)

	err = dev.WriteAt(make([]byte, 16), -1)
	assert.Error(t, err)
}

func TestSizeReportsConstructorValue(t *testing.T) {
	dev := newDevice(t, 8192)
	assert.EqualValues(t, 8192, dev.Size())
}
