package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/calnotes/internal/integration"
	"github.com/dshills/calnotes/internal/notes"
	"github.com/dshills/calnotes/internal/settings"
	"github.com/dshills/calnotes/internal/template"
	"github.com/dshills/calnotes/internal/vfs"
)

var testNow = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

var testRetry = template.RetryPolicy{MaxAttempts: 500, Interval: time.Millisecond, Settle: time.Millisecond}

func newTestVault(t *testing.T, files map[string]string) *vfs.MemFS {
	t.Helper()
	fsys := vfs.NewMemFS()
	for name, content := range files {
		if err := fsys.AddFile(name, content); err != nil {
			t.Fatalf("AddFile(%s) failed: %v", name, err)
		}
	}
	return fsys
}

func newTestApp(t *testing.T, fsys vfs.FS, log *bytes.Buffer) *Application {
	t.Helper()
	a, err := New(Options{
		FS:         fsys,
		LogLevel:   "debug",
		LogOutput:  log,
		MountDelay: 10 * time.Millisecond,
		Retry:      testRetry,
		Now:        func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a
}

func TestApplication_CreateNoteWithCoreTemplate(t *testing.T) {
	fsys := newTestVault(t, map[string]string{
		settings.DefaultPath: `
template_plugin = "core"
daily_template_filename = "Daily"
`,
		integration.DefaultConfigPath: `
[templates]
enabled = true
folder = "Templates"
`,
		"Templates/Daily.md": "# {{title}}\n\n## Tasks\n",
	})
	var log bytes.Buffer
	a := newTestApp(t, fsys, &log)

	path, err := a.CreateNote(context.Background(), notes.Daily, "")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if path != "2024-01-15.md" {
		t.Errorf("path: got %q", path)
	}

	content, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("note not saved: %v", err)
	}
	if string(content) != "# 2024-01-15\n\n## Tasks\n" {
		t.Errorf("note content: got %q", content)
	}
	if !strings.Contains(log.String(), "template inserted") {
		t.Errorf("expected insertion log line, got:\n%s", log.String())
	}
	if a.Workspace().ActivePane() != nil {
		t.Error("note pane should be closed after creation")
	}
}

func TestApplication_CreateNoteWithoutTemplate(t *testing.T) {
	fsys := newTestVault(t, nil)
	a := newTestApp(t, fsys, &bytes.Buffer{})

	path, err := a.CreateNote(context.Background(), notes.Weekly, "Journal/week.md")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	content, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("note not saved: %v", err)
	}
	if len(content) != 0 {
		t.Errorf("note should be empty, got %q", content)
	}
}

func TestApplication_ExistingNoteUntouched(t *testing.T) {
	fsys := newTestVault(t, map[string]string{
		settings.DefaultPath: "template_plugin = \"builtin\"\ndaily_template_filename = \"Daily\"\n",
		"Templates/Daily.md":  "template",
		"2024-01-15.md":       "mine",
	})
	a := newTestApp(t, fsys, &bytes.Buffer{})

	if _, err := a.CreateNote(context.Background(), notes.Daily, ""); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	content, _ := fsys.ReadFile("2024-01-15.md")
	if string(content) != "mine" {
		t.Errorf("existing note modified: %q", content)
	}
}

func TestApplication_SetPluginAndTemplatePersist(t *testing.T) {
	fsys := newTestVault(t, map[string]string{"Templates/Monthly.md": "month"})
	a := newTestApp(t, fsys, &bytes.Buffer{})

	if err := a.SetTemplate(notes.Monthly, "Monthly"); !errors.Is(err, template.ErrPluginDisabled) {
		t.Errorf("SetTemplate with plugin none: expected ErrPluginDisabled, got %v", err)
	}
	if err := a.SetPlugin("bogus"); !errors.Is(err, settings.ErrUnknownPlugin) {
		t.Errorf("SetPlugin bogus: expected ErrUnknownPlugin, got %v", err)
	}
	if err := a.SetPlugin("builtin"); err != nil {
		t.Fatalf("SetPlugin failed: %v", err)
	}
	if err := a.SetTemplate(notes.Monthly, "Monthly"); err != nil {
		t.Fatalf("SetTemplate failed: %v", err)
	}

	saved, err := settings.Load(fsys, settings.DefaultPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if saved.TemplatePlugin != settings.PluginBuiltin || saved.MonthlyTemplateFilename != "Monthly" {
		t.Errorf("persisted settings: %+v", saved)
	}

	path, err := a.CreateNote(context.Background(), notes.Monthly, "")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if path != "2024-01.md" {
		t.Errorf("path: got %q", path)
	}
	if content, _ := fsys.ReadFile(path); string(content) != "month" {
		t.Errorf("content: got %q", content)
	}
}

func TestApplication_Serve(t *testing.T) {
	fsys := newTestVault(t, map[string]string{
		settings.DefaultPath: "template_plugin = \"builtin\"\nyearly_template_filename = \"Year\"\n",
		"Templates/Year.md":   "year",
	})
	var log bytes.Buffer
	a := newTestApp(t, fsys, &log)

	input := strings.NewReader("# comment\n\nyearly\nhourly\nyearly Archive/My Year.md\n")
	if err := a.Serve(context.Background(), input); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	for _, p := range []string{"2024.md", "Archive/My Year.md"} {
		if content, err := fsys.ReadFile(p); err != nil || string(content) != "year" {
			t.Errorf("%s: content %q err %v", p, content, err)
		}
	}
	if !strings.Contains(log.String(), "bad request") {
		t.Errorf("expected bad request log, got:\n%s", log.String())
	}
}

func TestApplication_Shutdown(t *testing.T) {
	a := newTestApp(t, newTestVault(t, nil), &bytes.Buffer{})
	a.Shutdown()
	a.Shutdown()

	if _, err := a.CreateNote(context.Background(), notes.Daily, ""); !errors.Is(err, ErrShutdown) {
		t.Errorf("expected ErrShutdown, got %v", err)
	}
}

func TestNew_BadSettings(t *testing.T) {
	fsys := newTestVault(t, map[string]string{settings.DefaultPath: "template_plugin = ="})
	_, err := New(Options{FS: fsys, LogOutput: &bytes.Buffer{}})
	var perr *settings.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestNew_WatchRequiresDisk(t *testing.T) {
	_, err := New(Options{FS: vfs.NewMemFS(), Watch: true, LogOutput: &bytes.Buffer{}})
	if !errors.Is(err, ErrWatchUnsupported) {
		t.Errorf("expected ErrWatchUnsupported, got %v", err)
	}
}

func TestApplication_WatchReloadsPlugin(t *testing.T) {
	dir := t.TempDir()
	a, err := New(Options{VaultPath: dir, Watch: true, LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Shutdown()

	if err := os.WriteFile(filepath.Join(dir, settings.DefaultPath), []byte("template_plugin = \"builtin\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if a.Templates().Delegate().Name() == "builtin" {
			if a.Templates().TemplatePlugin() != settings.PluginBuiltin {
				t.Errorf("plugin setting: got %v", a.Templates().TemplatePlugin())
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("settings change not picked up")
}
