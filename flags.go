package sfs

// Mode bits used when synthesizing FileStat.ModeFlags in GetAttr. This
// filesystem has no on-disk permission bits (see Non-goals), so every
// directory reports S_IFDIR|0755 and every regular file S_IFREG|0644.
const (
	S_IXOTH = 1 << iota // 00001
	S_IWOTH = 1 << iota // 00002
	S_IROTH = 1 << iota
	S_IXGRP = 1 << iota
	S_IWGRP = 1 << iota // 00010
	S_IRGRP = 1 << iota
	S_IXUSR = 1 << iota
	S_IWUSR = 1 << iota
	S_IRUSR = 1 << iota // 00100
	S_ISVTX = 1 << iota
	S_ISGID = 1 << iota
	S_ISUID = 1 << iota
	S_IFIFO = 1 << iota // 01000
	S_IFCHR = 1 << iota // 02000
	S_IFDIR = 1 << iota // 04000
	S_IFREG = 1 << iota // 08000
)

const S_IRWXO = S_IXOTH | S_IWOTH | S_IROTH
const S_IRWXG = S_IXGRP | S_IWGRP | S_IRGRP
const S_IRWXU = S_IXUSR | S_IWUSR | S_IRUSR

// DefaultDirMode and DefaultFileMode are the fixed mode bits reported for
// every directory and regular file, since the format carries no persisted
// permission bits.
const DefaultDirMode = S_IFDIR | S_IRWXU | S_IRGRP | S_IXGRP | S_IROTH | S_IXOTH
const DefaultFileMode = S_IFREG | S_IRUSR | S_IWUSR | S_IRGRP | S_IROTH
