// Package vfs provides the vault file system abstraction.
//
// Paths are vault-relative and slash-separated regardless of platform, the
// way note vaults address their files. The empty path and "/" both name the
// vault root. MemFS backs tests and scratch vaults; OSFS maps a vault onto a
// directory of the host file system.
package vfs

import (
	"io/fs"
	"path"
	"strings"
	"time"
)

// FS is the subset of file operations the template machinery needs.
type FS interface {
	// ReadFile reads the entire file content.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	// The parent directory must exist.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Stat returns file information.
	Stat(name string) (FileInfo, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(name string, perm fs.FileMode) error

	// Exists returns true if the path exists.
	Exists(name string) bool

	// IsDir returns true if the path is a directory.
	IsDir(name string) bool
}

// FileInfo describes a file or folder in the vault.
type FileInfo struct {
	path    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

// NewFileInfo creates a FileInfo. name is cleaned to vault form.
func NewFileInfo(name string, size int64, mode fs.FileMode, modTime time.Time) FileInfo {
	return FileInfo{path: Clean(name), size: size, mode: mode, modTime: modTime}
}

// Path returns the vault-relative path.
func (fi FileInfo) Path() string { return fi.path }

// Name returns the last path element.
func (fi FileInfo) Name() string { return Base(fi.path) }

// Basename returns the name without its extension.
func (fi FileInfo) Basename() string {
	name := fi.Name()
	return strings.TrimSuffix(name, Ext(name))
}

// Size returns the file size in bytes.
func (fi FileInfo) Size() int64 { return fi.size }

// Mode returns the file mode.
func (fi FileInfo) Mode() fs.FileMode { return fi.mode }

// ModTime returns the modification time.
func (fi FileInfo) ModTime() time.Time { return fi.modTime }

// IsDir returns true if this is a folder.
func (fi FileInfo) IsDir() bool { return fi.mode.IsDir() }

// IsRegular returns true if this is a regular file.
func (fi FileInfo) IsRegular() bool { return fi.mode.IsRegular() }

// Clean returns the canonical vault form of p: slash-separated, no leading
// or trailing slash, "" for the root. ".." elements never climb above the
// root, so a cleaned path always stays inside the vault.
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// Join joins path elements into a clean vault path.
func Join(elem ...string) string {
	return Clean(path.Join(elem...))
}

// Dir returns the folder portion of a path ("" for top-level entries).
func Dir(p string) string {
	d := path.Dir(Clean(p))
	if d == "." {
		return ""
	}
	return d
}

// Base returns the last element of a path.
func Base(p string) string {
	p = Clean(p)
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// Ext returns the extension of the last path element, including the dot.
// A leading dot alone (".hidden") is not an extension.
func Ext(p string) string {
	base := Base(p)
	ext := path.Ext(base)
	if ext == base {
		return ""
	}
	return ext
}

// WithDefaultExt appends ext to name when name has no extension.
func WithDefaultExt(name, ext string) string {
	if Ext(name) != "" {
		return name
	}
	return name + ext
}
