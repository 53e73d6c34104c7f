package workspace

import (
	"sync"
	"sync/atomic"

	"github.com/dshills/calnotes/internal/vfs"
)

// Document is an open note and its editing state.
type Document struct {
	path string

	mu       sync.RWMutex
	text     string
	cursor   int
	anchor   int
	readOnly bool

	modified atomic.Bool
	version  atomic.Int64
}

// NewDocument creates a document with the cursor at the start.
func NewDocument(path, content string) *Document {
	return &Document{path: vfs.Clean(path), text: content}
}

var _ Editor = (*Document)(nil)

// Path returns the vault path of the document.
func (d *Document) Path() string { return d.path }

// Title returns the file name without extension.
func (d *Document) Title() string {
	name := vfs.Base(d.path)
	return name[:len(name)-len(vfs.Ext(name))]
}

// Text returns the full document text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Cursor returns the cursor byte offset.
func (d *Document) Cursor() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cursor
}

// Selection returns the selected range as ordered offsets. start == end
// when nothing is selected.
func (d *Document) Selection() (start, end int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selectionLocked()
}

// Select sets the selection from anchor to cursor, clamped to the text.
func (d *Document) Select(anchor, cursor int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anchor = d.clampLocked(anchor)
	d.cursor = d.clampLocked(cursor)
}

// SetCursor moves the cursor and clears the selection.
func (d *Document) SetCursor(offset int) {
	d.Select(offset, offset)
}

// SetReadOnly controls whether edits are rejected.
func (d *Document) SetReadOnly(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readOnly = v
}

// ReplaceSelection implements Editor.
func (d *Document) ReplaceSelection(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.readOnly {
		return ErrReadOnly
	}

	start, end := d.selectionLocked()
	d.text = d.text[:start] + text + d.text[end:]
	d.cursor = start + len(text)
	d.anchor = d.cursor

	d.modified.Store(true)
	d.version.Add(1)
	return nil
}

// IsModified reports unsaved changes.
func (d *Document) IsModified() bool { return d.modified.Load() }

// SetModified sets the modified flag.
func (d *Document) SetModified(v bool) { d.modified.Store(v) }

// Version counts the edits applied to the document.
func (d *Document) Version() int64 { return d.version.Load() }

func (d *Document) selectionLocked() (int, int) {
	if d.anchor <= d.cursor {
		return d.anchor, d.cursor
	}
	return d.cursor, d.anchor
}

func (d *Document) clampLocked(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.text) {
		return len(d.text)
	}
	return offset
}
