// Package workspace models the editor host that templates are inserted
// into: panes showing documents, one of which is active, and the editors
// that become available once a pane has mounted.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/dshills/calnotes/internal/vfs"
)

// ViewMarkdown is the view type of panes that edit markdown notes.
const ViewMarkdown = "markdown"

// ViewText is the view type of panes showing any other file.
const ViewText = "text"

// Workspace errors.
var (
	// ErrNoActivePane indicates no pane is active.
	ErrNoActivePane = errors.New("no active pane")

	// ErrPaneNotFound indicates no pane shows the requested path.
	ErrPaneNotFound = errors.New("pane not found")

	// ErrReadOnly indicates an edit on a read-only document.
	ErrReadOnly = errors.New("document is read-only")
)

// Leaf is a slot in the workspace layout showing one view.
type Leaf interface {
	// ViewType names the kind of view the leaf shows.
	ViewType() string
}

// Editor is the text-editing surface of a mounted view.
type Editor interface {
	// ReplaceSelection replaces the selected text, or inserts at the cursor
	// when nothing is selected, and leaves the cursor after the new text.
	ReplaceSelection(text string) error

	// Text returns the full document text.
	Text() string

	// Cursor returns the cursor byte offset.
	Cursor() int

	// Path returns the vault path of the note being edited.
	Path() string
}

// Host exposes the active leaf and editor. Either may be nil while the
// workspace is still laying out or the editor has not mounted yet.
type Host interface {
	ActiveLeaf() Leaf
	ActiveEditor() Editor
}

// Pane is a leaf showing a document.
type Pane struct {
	viewType string
	doc      *Document

	mu      sync.RWMutex
	mounted bool
}

// ViewType returns the view type of the pane.
func (p *Pane) ViewType() string { return p.viewType }

// Document returns the document shown in the pane.
func (p *Pane) Document() *Document { return p.doc }

// Mounted reports whether the pane's editor is ready.
func (p *Pane) Mounted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mounted
}

func (p *Pane) setMounted(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mounted = v
}

// Workspace is a headless Host over a vault.
type Workspace struct {
	fs vfs.FS

	mu     sync.RWMutex
	panes  []*Pane
	active *Pane
}

var _ Host = (*Workspace)(nil)

// New creates an empty workspace over fsys.
func New(fsys vfs.FS) *Workspace {
	return &Workspace{fs: fsys}
}

// Open shows path in a new, unmounted pane and makes it active. A missing
// file opens as an empty, modified document so that saving creates it.
// If a pane already shows path it is activated instead.
func (w *Workspace) Open(path string) (*Pane, error) {
	path = vfs.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if p := w.findLocked(path); p != nil {
		w.active = p
		return p, nil
	}

	content, err := w.fs.ReadFile(path)
	created := false
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		created = true
	}

	doc := NewDocument(path, string(content))
	doc.SetModified(created)

	viewType := ViewText
	if vfs.Ext(path) == ".md" {
		viewType = ViewMarkdown
	}

	p := &Pane{viewType: viewType, doc: doc}
	w.panes = append(w.panes, p)
	w.active = p
	return p, nil
}

// Mount marks the pane showing path as ready for editing.
func (w *Workspace) Mount(path string) error {
	w.mu.RLock()
	p := w.findLocked(vfs.Clean(path))
	w.mu.RUnlock()

	if p == nil {
		return fmt.Errorf("%w: %s", ErrPaneNotFound, path)
	}
	p.setMounted(true)
	return nil
}

// Activate makes the pane showing path active.
func (w *Workspace) Activate(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.findLocked(vfs.Clean(path))
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPaneNotFound, path)
	}
	w.active = p
	return nil
}

// Close removes the pane showing path. The most recently opened remaining
// pane becomes active.
func (w *Workspace) Close(path string) error {
	path = vfs.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	for i, p := range w.panes {
		if p.doc.Path() != path {
			continue
		}
		w.panes = append(w.panes[:i], w.panes[i+1:]...)
		if w.active == p {
			w.active = nil
			if n := len(w.panes); n > 0 {
				w.active = w.panes[n-1]
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPaneNotFound, path)
}

// ActivePane returns the active pane, or nil.
func (w *Workspace) ActivePane() *Pane {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

// ActiveLeaf implements Host.
func (w *Workspace) ActiveLeaf() Leaf {
	if p := w.ActivePane(); p != nil {
		return p
	}
	return nil
}

// ActiveEditor implements Host. Only mounted panes have an editor.
func (w *Workspace) ActiveEditor() Editor {
	p := w.ActivePane()
	if p == nil || !p.Mounted() {
		return nil
	}
	return p.doc
}

// Save writes the active document back to the vault.
func (w *Workspace) Save() error {
	p := w.ActivePane()
	if p == nil {
		return ErrNoActivePane
	}
	return w.SaveDocument(p.doc)
}

// SaveDocument writes doc back to the vault, creating parent folders.
func (w *Workspace) SaveDocument(doc *Document) error {
	if dir := vfs.Dir(doc.Path()); dir != "" {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("saving %s: %w", doc.Path(), err)
		}
	}
	if err := w.fs.WriteFile(doc.Path(), []byte(doc.Text()), 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", doc.Path(), err)
	}
	doc.SetModified(false)
	return nil
}

// findLocked must be called with the lock held.
func (w *Workspace) findLocked(path string) *Pane {
	for _, p := range w.panes {
		if p.doc.Path() == path {
			return p
		}
	}
	return nil
}
