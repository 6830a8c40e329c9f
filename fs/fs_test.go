package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dpeckham/sfs"
	"github.com/dpeckham/sfs/fs"
	"github.com/dpeckham/sfs/internal/fixture"
)

// testLayout is small enough to exercise multi-block chains and BAT
// exhaustion quickly, unlike sfs.Standard's 4096-cell table.
var testLayout = sfs.Layout{
	BlockSize:   64,
	RootOff:     64,
	RootN:       8,
	FilenameMax: 16,
}.WithBatSize(32)

func mustMount(t *testing.T) *fs.FileSystem {
	t.Helper()
	buf, err := fixture.Build(testLayout)
	require.NoError(t, err)
	stream := bytesextra.NewReadWriteSeeker(buf)
	filesystem, err := fs.MountStream(stream, int64(len(buf)), testLayout)
	require.NoError(t, err)
	return filesystem
}

func TestCreateWriteReadRoundTrip(t *testing.T) {
	f := mustMount(t)

	require.NoError(t, f.Create("/hello.txt"))
	n, err := f.Write("/hello.txt", []byte("hello, world"), 0)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	dst := make([]byte, 12)
	n, err = f.Read("/hello.txt", dst, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "hello, world", string(dst))

	stat, err := f.GetAttr("/hello.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 12, stat.Size)
}

func TestWriteSpanningMultipleBlocks(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/big.bin"))

	data := make([]byte, testLayout.BlockSize*3+10)
	for i := range data {
		data[i] = byte(i)
	}

	n, err := f.Write("/big.bin", data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	dst := make([]byte, len(data))
	n, err = f.Read("/big.bin", dst, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, dst)
}

func TestWriteIntoHoleZeroFillsGap(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/sparse.bin"))

	holeStart := int64(testLayout.BlockSize) * 2
	_, err := f.Write("/sparse.bin", []byte("tail"), holeStart)
	require.NoError(t, err)

	gap := make([]byte, holeStart)
	n, err := f.Read("/sparse.bin", gap, 0)
	require.NoError(t, err)
	assert.EqualValues(t, holeStart, n)
	for _, b := range gap {
		assert.Equal(t, byte(0), b)
	}

	tail := make([]byte, 4)
	_, err = f.Read("/sparse.bin", tail, holeStart)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(tail))
}

func TestReadPastEndOfFileReturnsZeroBytes(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/empty.txt"))

	dst := make([]byte, 16)
	n, err := f.Read("/empty.txt", dst, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTruncateGrowZeroFillsNewTail(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/grow.bin"))
	_, err := f.Write("/grow.bin", []byte("abc"), 0)
	require.NoError(t, err)

	require.NoError(t, f.Truncate("/grow.bin", int64(testLayout.BlockSize)+8))

	dst := make([]byte, testLayout.BlockSize+8)
	n, err := f.Read("/grow.bin", dst, 0)
	require.NoError(t, err)
	assert.Equal(t, len(dst), n)
	assert.Equal(t, "abc", string(dst[:3]))
	for _, b := range dst[3:] {
		assert.Equal(t, byte(0), b)
	}
}

func TestTruncateShrinkFreesTrailingBlocks(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/shrink.bin"))
	data := make([]byte, testLayout.BlockSize*3)
	_, err := f.Write("/shrink.bin", data, 0)
	require.NoError(t, err)

	statBefore, err := f.Statfs()
	require.NoError(t, err)

	require.NoError(t, f.Truncate("/shrink.bin", int64(testLayout.BlockSize)))

	statAfter, err := f.Statfs()
	require.NoError(t, err)
	assert.Greater(t, statAfter.FreeBlocks, statBefore.FreeBlocks)

	stat, err := f.GetAttr("/shrink.bin")
	require.NoError(t, err)
	assert.EqualValues(t, testLayout.BlockSize, stat.Size)
}

func TestTruncateToZeroFreesEntireChain(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/z.bin"))
	_, err := f.Write("/z.bin", []byte("some data"), 0)
	require.NoError(t, err)

	require.NoError(t, f.Truncate("/z.bin", 0))

	stat, err := f.GetAttr("/z.bin")
	require.NoError(t, err)
	assert.EqualValues(t, 0, stat.Size)
	assert.EqualValues(t, 0, stat.NumBlocks)
}

func TestMkdirCreateNestedFileAndReaddir(t *testing.T) {
	f := mustMount(t)

	require.NoError(t, f.Mkdir("/sub"))
	require.NoError(t, f.Create("/sub/a.txt"))
	require.NoError(t, f.Create("/sub/b.txt"))

	entries, err := f.ReadDir("/sub")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, ".")
	assert.Contains(t, names, "..")
	assert.Contains(t, names, "a.txt")
	assert.Contains(t, names, "b.txt")
}

func TestDirectoryAttrReportsZeroSize(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Mkdir("/sub"))

	rootStat, err := f.GetAttr("/")
	require.NoError(t, err)
	assert.EqualValues(t, 0, rootStat.Size)

	subStat, err := f.GetAttr("/sub")
	require.NoError(t, err)
	assert.EqualValues(t, 0, subStat.Size)
	assert.EqualValues(t, 2, subStat.Nlinks)
}

func TestMkdirOnExistingPathFailsWithExists(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Mkdir("/sub"))

	err := f.Mkdir("/sub")
	assert.ErrorIs(t, err, sfs.ErrExists)
}

func TestRmdirRootFailsWithBusy(t *testing.T) {
	f := mustMount(t)
	err := f.Rmdir("/")
	assert.ErrorIs(t, err, sfs.ErrBusy)
}

func TestRmdirNonEmptyFailsWithDirectoryNotEmpty(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Mkdir("/sub"))
	require.NoError(t, f.Create("/sub/a.txt"))

	err := f.Rmdir("/sub")
	assert.ErrorIs(t, err, sfs.ErrDirectoryNotEmpty)
}

func TestRmdirEmptyDirectorySucceedsAndFreesBlocks(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Mkdir("/sub"))

	statBefore, err := f.Statfs()
	require.NoError(t, err)

	require.NoError(t, f.Rmdir("/sub"))
	assert.False(t, f.Exists("/sub"))

	statAfter, err := f.Statfs()
	require.NoError(t, err)
	assert.Greater(t, statAfter.FreeBlocks, statBefore.FreeBlocks)
}

func TestUnlinkFreesBlocksAndClearsSlot(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/gone.txt"))
	_, err := f.Write("/gone.txt", []byte("bytes"), 0)
	require.NoError(t, err)

	require.NoError(t, f.Unlink("/gone.txt"))
	assert.False(t, f.Exists("/gone.txt"))

	_, err = f.GetAttr("/gone.txt")
	assert.ErrorIs(t, err, sfs.ErrNotFound)
}

func TestUnlinkDirectoryFailsWithIsADirectory(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Mkdir("/sub"))

	err := f.Unlink("/sub")
	assert.ErrorIs(t, err, sfs.ErrIsADirectory)
}

func TestPathThroughRegularFileFailsWithNotADirectory(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/afile"))

	_, err := f.GetAttr("/afile/nested")
	assert.ErrorIs(t, err, sfs.ErrNotADirectory)
}

func TestCreateDuplicateNameFailsWithExists(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/dup.txt"))

	err := f.Create("/dup.txt")
	assert.ErrorIs(t, err, sfs.ErrExists)
}

func TestNameTooLongIsRejected(t *testing.T) {
	f := mustMount(t)
	longName := "/this-name-is-way-too-long-for-the-layout"

	err := f.Create(longName)
	assert.ErrorIs(t, err, sfs.ErrNameTooLong)
}

func TestNameOfMaxUsableLengthIsAccepted(t *testing.T) {
	f := mustMount(t)
	usable := make([]byte, testLayout.FilenameMax-1)
	for i := range usable {
		usable[i] = 'a'
	}

	require.NoError(t, f.Create("/"+string(usable)))
}

func TestNameOfExactlyFilenameMaxIsRejected(t *testing.T) {
	f := mustMount(t)
	tooLong := make([]byte, testLayout.FilenameMax)
	for i := range tooLong {
		tooLong[i] = 'a'
	}

	err := f.Create("/" + string(tooLong))
	assert.ErrorIs(t, err, sfs.ErrNameTooLong)
}

func TestWriteZeroBytesToNewFileLeavesItEmpty(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/empty.bin"))

	n, err := f.Write("/empty.bin", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	stat, err := f.GetAttr("/empty.bin")
	require.NoError(t, err)
	assert.EqualValues(t, 0, stat.Size)
	assert.EqualValues(t, 0, stat.NumBlocks)

	statAfter, err := f.Statfs()
	require.NoError(t, err)
	assert.EqualValues(t, testLayout.BatN, statAfter.FreeBlocks)
}

func TestWalkVisitsNestedEntries(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Mkdir("/sub"))
	require.NoError(t, f.Create("/sub/leaf.txt"))
	require.NoError(t, f.Create("/top.txt"))

	var visited []string
	err := f.Walk("/", func(path string, entry sfs.DirEntry) error {
		visited = append(visited, path)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, visited, "/sub")
	assert.Contains(t, visited, "/sub/leaf.txt")
	assert.Contains(t, visited, "/top.txt")
}

func TestWriteExhaustingSpaceReturnsPartialWriteWithNoError(t *testing.T) {
	f := mustMount(t)
	require.NoError(t, f.Create("/hog.bin"))

	// testLayout has 32 blocks total; write far more data than that can
	// hold. Running out of space mid-write is partial success, not an
	// error: the write stops and reports what it actually transferred.
	data := make([]byte, int(testLayout.BlockSize)*64)
	for i := range data {
		data[i] = 0xAB
	}
	n, err := f.Write("/hog.bin", data, 0)
	require.NoError(t, err)
	assert.Less(t, n, len(data))
	assert.Greater(t, n, 0)

	stat, err := f.GetAttr("/hog.bin")
	require.NoError(t, err)
	assert.EqualValues(t, n, stat.Size)

	statfs, err := f.Statfs()
	require.NoError(t, err)
	assert.EqualValues(t, 0, statfs.FreeBlocks)

	dst := make([]byte, n)
	read, err := f.Read("/hog.bin", dst, 0)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, data[:n], dst)
}
