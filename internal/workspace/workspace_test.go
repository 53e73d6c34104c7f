package workspace

import (
	"errors"
	"testing"

	"github.com/dshills/calnotes/internal/vfs"
)

func TestWorkspace_EditorAvailableAfterMount(t *testing.T) {
	fsys := vfs.NewMemFS()
	ws := New(fsys)

	if ws.ActiveLeaf() != nil || ws.ActiveEditor() != nil {
		t.Fatal("empty workspace should have no active leaf or editor")
	}

	p, err := ws.Open("Daily/2024-01-15.md")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.ViewType() != ViewMarkdown {
		t.Errorf("ViewType: got %q", p.ViewType())
	}
	if leaf := ws.ActiveLeaf(); leaf == nil || leaf.ViewType() != ViewMarkdown {
		t.Errorf("ActiveLeaf: got %v", leaf)
	}
	if ws.ActiveEditor() != nil {
		t.Error("editor should not be available before mount")
	}

	if err := ws.Mount("/Daily/2024-01-15.md"); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if ws.ActiveEditor() == nil {
		t.Error("editor should be available after mount")
	}
	if err := ws.Mount("missing.md"); !errors.Is(err, ErrPaneNotFound) {
		t.Errorf("Mount missing: expected ErrPaneNotFound, got %v", err)
	}
}

func TestWorkspace_OpenExistingAndSave(t *testing.T) {
	fsys := vfs.NewMemFS()
	if err := fsys.AddFile("notes/plan.md", "body"); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	ws := New(fsys)

	p, err := ws.Open("notes/plan.md")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	doc := p.Document()
	if doc.Text() != "body" || doc.IsModified() {
		t.Errorf("existing file: text %q modified %v", doc.Text(), doc.IsModified())
	}

	again, _ := ws.Open("notes/plan.md")
	if again != p {
		t.Error("reopening should activate the existing pane")
	}

	doc.SetCursor(0)
	if err := doc.ReplaceSelection("# Plan\n"); err != nil {
		t.Fatalf("ReplaceSelection failed: %v", err)
	}
	if err := ws.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	raw, _ := fsys.ReadFile("notes/plan.md")
	if string(raw) != "# Plan\nbody" {
		t.Errorf("saved content: got %q", raw)
	}
	if doc.IsModified() {
		t.Error("saved document should not be modified")
	}
}

func TestWorkspace_NewFileIsModified(t *testing.T) {
	fsys := vfs.NewMemFS()
	ws := New(fsys)

	p, err := ws.Open("Weekly/2024-W03.md")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !p.Document().IsModified() {
		t.Error("new document should be modified")
	}
	if err := ws.SaveDocument(p.Document()); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}
	if !fsys.Exists("Weekly/2024-W03.md") {
		t.Error("saving should create the file and its folder")
	}
}

func TestWorkspace_ViewTypeAndClose(t *testing.T) {
	ws := New(vfs.NewMemFS())

	if _, err := ws.Open("a.md"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	p, err := ws.Open("b.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.ViewType() != ViewText {
		t.Errorf("ViewType of txt: got %q", p.ViewType())
	}

	if err := ws.Close("b.txt"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if ws.ActivePane().Document().Path() != "a.md" {
		t.Errorf("active after close: got %q", ws.ActivePane().Document().Path())
	}
	if err := ws.Close("b.txt"); !errors.Is(err, ErrPaneNotFound) {
		t.Errorf("second Close: expected ErrPaneNotFound, got %v", err)
	}
	if err := ws.Close("a.md"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if ws.ActiveLeaf() != nil {
		t.Error("no pane should be active")
	}
	if err := ws.Save(); !errors.Is(err, ErrNoActivePane) {
		t.Errorf("Save: expected ErrNoActivePane, got %v", err)
	}
}

func TestDocument_ReplaceSelection(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		anchor     int
		cursor     int
		insert     string
		want       string
		wantCursor int
	}{
		{"insert at start", "body", 0, 0, "T\n", "T\nbody", 2},
		{"insert at end", "body", 4, 4, "!", "body!", 5},
		{"replace forward selection", "hello world", 6, 11, "there", "hello there", 11},
		{"replace backward selection", "hello world", 11, 6, "there", "hello there", 11},
		{"clamped cursor", "ab", 0, 99, "x", "x", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument("n.md", tt.text)
			d.Select(tt.anchor, tt.cursor)
			if err := d.ReplaceSelection(tt.insert); err != nil {
				t.Fatalf("ReplaceSelection failed: %v", err)
			}
			if d.Text() != tt.want {
				t.Errorf("text: got %q, want %q", d.Text(), tt.want)
			}
			if d.Cursor() != tt.wantCursor {
				t.Errorf("cursor: got %d, want %d", d.Cursor(), tt.wantCursor)
			}
			if start, end := d.Selection(); start != end {
				t.Errorf("selection should collapse, got [%d,%d)", start, end)
			}
			if d.Version() != 1 {
				t.Errorf("version: got %d", d.Version())
			}
		})
	}
}

func TestDocument_ReadOnlyAndTitle(t *testing.T) {
	d := NewDocument("Daily/2024-01-15.md", "")
	if d.Title() != "2024-01-15" {
		t.Errorf("Title: got %q", d.Title())
	}
	d.SetReadOnly(true)
	if err := d.ReplaceSelection("x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if d.IsModified() {
		t.Error("rejected edit must not mark the document modified")
	}
}
