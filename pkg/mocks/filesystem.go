package mocks

import (
	"bytes"
	"io"
	"io/fs"
	"sort"
	"sync"

	"github.com/user/mediaplay/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Setting one of the *Func
// hooks replaces the in-memory behavior of that method, which is how tests
// inject write failures.
type FileSystem struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	CreateFunc    func(path string) (io.WriteCloser, error)
	MkdirAllFunc  func(path string) error
}

func NewFileSystem() *FileSystem {
	return &FileSystem{files: map[string][]byte{}, dirs: map[string]bool{}}
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(path)
	}
	data, ok := m.GetFile(path)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.put(path, data)
	return nil
}

// Create returns a buffer that is stored under path when closed, matching
// the way raw output only becomes complete after the sink is closed.
func (m *FileSystem) Create(path string) (io.WriteCloser, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(path)
	}
	return &memFile{close: func(b []byte) { m.put(path, b) }}, nil
}

func (m *FileSystem) MkdirAll(path string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path)
	}
	m.mu.Lock()
	m.dirs[path] = true
	m.mu.Unlock()
	return nil
}

// Exists reports whether path was written or created as a directory.
func (m *FileSystem) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, isFile := m.files[path]
	return isFile || m.dirs[path], nil
}

func (m *FileSystem) put(path string, data []byte) {
	m.mu.Lock()
	m.files[path] = append([]byte(nil), data...)
	m.mu.Unlock()
}

// GetFile returns a stored file.
func (m *FileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return data, ok
}

// GetAllFiles returns a copy of every stored file keyed by path.
func (m *FileSystem) GetAllFiles() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out
}

// Dirs lists the directories created so far, sorted.
func (m *FileSystem) Dirs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.dirs))
	for d := range m.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

type memFile struct {
	bytes.Buffer
	close func([]byte)
}

func (f *memFile) Close() error {
	f.close(f.Bytes())
	return nil
}

var _ ports.FileSystem = (*FileSystem)(nil)
