package fs

import (
	"sync"

	"github.com/dpeckham/sfs"
)

// Serialize wraps a *FileSystem with a mutex, giving every operation
// exclusive access to the mount. It exists for callers who need
// concurrent access to a single mounted image but don't want to build
// their own locking; FileSystem itself intentionally has none.
type Serialize struct {
	mu sync.Mutex
	fs *FileSystem
}

// NewSerialize wraps fs for concurrent use.
func NewSerialize(fs *FileSystem) *Serialize {
	return &Serialize{fs: fs}
}

func (s *Serialize) GetAttr(path string) (sfs.FileStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.GetAttr(path)
}

func (s *Serialize) ReadDir(path string) ([]sfs.DirEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.ReadDir(path)
}

func (s *Serialize) Read(path string, dst []byte, offset int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Read(path, dst, offset)
}

func (s *Serialize) Write(path string, data []byte, offset int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Write(path, data, offset)
}

func (s *Serialize) Truncate(path string, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Truncate(path, size)
}

func (s *Serialize) Create(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Create(path)
}

func (s *Serialize) Unlink(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Unlink(path)
}

func (s *Serialize) Mkdir(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Mkdir(path)
}

func (s *Serialize) Rmdir(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Rmdir(path)
}

func (s *Serialize) Statfs() (sfs.FSStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Statfs()
}

func (s *Serialize) Exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Exists(path)
}
