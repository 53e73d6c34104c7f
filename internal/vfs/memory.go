package vfs

import (
	"io/fs"
	"sort"
	"sync"
	"syscall"
	"time"
)

// MemFS implements FS in memory. It is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]*memFile
	dirs  map[string]time.Time
	now   func() time.Time
}

type memFile struct {
	content []byte
	mode    fs.FileMode
	modTime time.Time
}

// NewMemFS creates an empty in-memory vault.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string]*memFile),
		dirs:  map[string]time.Time{"": time.Now()},
		now:   time.Now,
	}
}

var _ FS = (*MemFS)(nil)

// AddFile writes content to name, creating parent folders.
func (m *MemFS) AddFile(name, content string) error {
	if err := m.MkdirAll(Dir(name), 0o755); err != nil {
		return err
	}
	return m.WriteFile(name, []byte(content), 0o644)
}

// ReadFile reads the entire file content.
func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = Clean(name)
	f, ok := m.files[name]
	if !ok {
		if _, isDir := m.dirs[name]; isDir {
			return nil, &fs.PathError{Op: "read", Path: name, Err: syscall.EISDIR}
		}
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}

	content := make([]byte, len(f.content))
	copy(content, f.content)
	return content, nil
}

// WriteFile writes data to a file. The parent folder must exist.
func (m *MemFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = Clean(name)
	if name == "" {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrInvalid}
	}
	if _, isDir := m.dirs[name]; isDir {
		return &fs.PathError{Op: "write", Path: name, Err: syscall.EISDIR}
	}
	if _, ok := m.dirs[Dir(name)]; !ok {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrNotExist}
	}

	content := make([]byte, len(data))
	copy(content, data)
	m.files[name] = &memFile{content: content, mode: perm.Perm(), modTime: m.now()}
	return nil
}

// Stat returns file information.
func (m *MemFS) Stat(name string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = Clean(name)
	if f, ok := m.files[name]; ok {
		return NewFileInfo(name, int64(len(f.content)), f.mode, f.modTime), nil
	}
	if modTime, ok := m.dirs[name]; ok {
		return NewFileInfo(name, 0, fs.ModeDir|0o755, modTime), nil
	}
	return FileInfo{}, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// MkdirAll creates a folder and all missing parents.
func (m *MemFS) MkdirAll(name string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = Clean(name)
	for p := name; p != ""; p = Dir(p) {
		if _, isFile := m.files[p]; isFile {
			return &fs.PathError{Op: "mkdir", Path: p, Err: syscall.ENOTDIR}
		}
	}
	for p := name; p != ""; p = Dir(p) {
		if _, ok := m.dirs[p]; !ok {
			m.dirs[p] = m.now()
		}
	}
	return nil
}

// Exists returns true if the path exists.
func (m *MemFS) Exists(name string) bool {
	_, err := m.Stat(name)
	return err == nil
}

// IsDir returns true if the path is a folder.
func (m *MemFS) IsDir(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.dirs[Clean(name)]
	return ok
}

// Files returns every file path in sorted order.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
