package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/calnotes/internal/vfs"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	fsys, err := vfs.NewOSFS(dir)
	if err != nil {
		t.Fatalf("NewOSFS failed: %v", err)
	}
	if err := Save(fsys, DefaultPath, Default()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	store := NewStore(Default())
	changed := make(chan Settings, 4)
	store.Subscribe(func(_, current Settings) { changed <- current })

	w, err := NewWatcher(fsys.Resolve(DefaultPath), store, func() (Settings, error) {
		return Load(fsys, DefaultPath)
	}, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	next := Default()
	next.TemplatePlugin = PluginBuiltin
	next.DailyTemplateFilename = "Daily"
	if err := Save(fsys, DefaultPath, next); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	select {
	case got := <-changed:
		if got != next {
			t.Errorf("reloaded settings: got %+v, want %+v", got, next)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_IgnoresOtherFilesAndBadContent(t *testing.T) {
	dir := t.TempDir()
	fsys, err := vfs.NewOSFS(dir)
	if err != nil {
		t.Fatalf("NewOSFS failed: %v", err)
	}

	store := NewStore(Default())
	w, err := NewWatcher(fsys.Resolve(DefaultPath), store, func() (Settings, error) {
		return Load(fsys, DefaultPath)
	}, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("template_plugin = \"core\""), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(fsys.Resolve(DefaultPath), []byte("not toml ="), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if store.Get() != Default() {
		t.Errorf("store changed unexpectedly: %+v", store.Get())
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("second Close: expected ErrWatcherClosed, got %v", err)
	}
}

func TestWatcher_CloseWaitsForReload(t *testing.T) {
	dir := t.TempDir()
	fsys, err := vfs.NewOSFS(dir)
	if err != nil {
		t.Fatalf("NewOSFS failed: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	store := NewStore(Default())
	w, err := NewWatcher(fsys.Resolve(DefaultPath), store, func() (Settings, error) {
		close(started)
		<-release
		next := Default()
		next.TemplatePlugin = PluginCore
		return next, nil
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	go w.apply()
	<-started

	closed := make(chan error, 1)
	go func() { closed <- w.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned while a reload was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-closed:
		if err != nil {
			t.Errorf("Close failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Close")
	}

	if got := store.Get(); got != Default() {
		t.Errorf("reload finished after Close must not reach the store, got %+v", got)
	}
}
