package dirent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/blockdev"
	"github.com/dpeckham/sfs/internal/dirent"
)

func newRegion(t *testing.T, count uint32) (*blockdev.Device, sfs.Layout, dirent.Region) {
	t.Helper()
	layout := sfs.Layout{FilenameMax: 16}
	region := dirent.Region{Offset: 0, Count: count}
	size := int64(count) * int64(layout.EntrySize())
	buf := make([]byte, size)
	stream := bytesextra.NewReadWriteSeeker(buf)
	dev := blockdev.NewFromSeeker(stream, size)
	for i := uint32(0); i < count; i++ {
		require.NoError(t, dirent.Clear(dev, layout, region, i))
	}
	return dev, layout, region
}

func TestFindFreeSlotThenWriteThenFind(t *testing.T) {
	dev, layout, region := newRegion(t, 4)

	slot, err := dirent.FindFreeSlot(dev, layout, region)
	require.NoError(t, err)
	assert.EqualValues(t, 0, slot)

	require.NoError(t, dirent.Write(dev, layout, region, slot, sfs.Entry{
		Name:       "hello.txt",
		FirstBlock: 5,
		Size:       11,
	}))

	entry, foundSlot, err := dirent.Find(dev, layout, region, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, slot, foundSlot)
	assert.EqualValues(t, 5, entry.FirstBlock)
	assert.EqualValues(t, 11, entry.SizeOf())
}

func TestFindMissingNameReturnsNotFound(t *testing.T) {
	dev, layout, region := newRegion(t, 2)

	_, _, err := dirent.Find(dev, layout, region, "missing")
	assert.ErrorIs(t, err, sfs.ErrNotFound)
}

func TestIsEmptyReflectsSlotState(t *testing.T) {
	dev, layout, region := newRegion(t, 2)

	empty, err := dirent.IsEmpty(dev, layout, region)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, dirent.Write(dev, layout, region, 0, sfs.Entry{Name: "a"}))

	empty, err = dirent.IsEmpty(dev, layout, region)
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestListReturnsNamesInSlotOrder(t *testing.T) {
	dev, layout, region := newRegion(t, 3)

	require.NoError(t, dirent.Write(dev, layout, region, 0, sfs.Entry{Name: "a"}))
	require.NoError(t, dirent.Write(dev, layout, region, 2, sfs.Entry{Name: "b"}))

	entries, err := dirent.List(dev, layout, region)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, "b", entries[1].Name)
}

func TestClearFreesSlotForReuse(t *testing.T) {
	dev, layout, region := newRegion(t, 1)

	require.NoError(t, dirent.Write(dev, layout, region, 0, sfs.Entry{Name: "a"}))
	require.NoError(t, dirent.Clear(dev, layout, region, 0))

	empty, err := dirent.IsEmpty(dev, layout, region)
	require.NoError(t, err)
	assert.True(t, empty)
}
