package vfs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OSFS maps a vault onto a directory of the host file system.
type OSFS struct {
	root string
}

// NewOSFS creates a vault rooted at dir.
func NewOSFS(dir string) (*OSFS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &OSFS{root: abs}, nil
}

var _ FS = (*OSFS)(nil)

// Root returns the absolute directory backing the vault.
func (f *OSFS) Root() string { return f.root }

// Resolve maps a vault path to a host path under the root.
func (f *OSFS) Resolve(name string) string {
	return filepath.Join(f.root, filepath.FromSlash(Clean(name)))
}

// ReadFile reads the entire file content.
func (f *OSFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(f.Resolve(name))
}

// WriteFile writes data to a file, creating it if necessary.
func (f *OSFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(f.Resolve(name), data, perm)
}

// Stat returns file information.
func (f *OSFS) Stat(name string) (FileInfo, error) {
	info, err := os.Stat(f.Resolve(name))
	if err != nil {
		return FileInfo{}, err
	}
	return NewFileInfo(name, info.Size(), info.Mode(), info.ModTime()), nil
}

// MkdirAll creates a directory and all parent directories.
func (f *OSFS) MkdirAll(name string, perm fs.FileMode) error {
	return os.MkdirAll(f.Resolve(name), perm)
}

// Exists returns true if the path exists.
func (f *OSFS) Exists(name string) bool {
	_, err := f.Stat(name)
	return err == nil
}

// IsDir returns true if the path is a directory.
func (f *OSFS) IsDir(name string) bool {
	info, err := f.Stat(name)
	return err == nil && info.IsDir()
}
