package template

import (
	"context"
	"time"

	"github.com/dshills/calnotes/internal/integration"
	"github.com/dshills/calnotes/internal/settings"
	"github.com/dshills/calnotes/internal/template/placeholder"
	"github.com/dshills/calnotes/internal/template/script"
	"github.com/dshills/calnotes/internal/vfs"
	"github.com/dshills/calnotes/internal/workspace"
)

// Core templates integration settings read by the core delegate.
const (
	DateFormatSetting = "date_format"
	TimeFormatSetting = "time_format"
)

// Delegate performs insertion for one templating integration.
type Delegate interface {
	// Name identifies the delegate in logs.
	Name() string

	// Enabled reports whether the integration can insert right now.
	Enabled() bool

	// Folder returns the vault folder holding the integration's templates,
	// or "" when none is configured.
	Folder() string

	// Insert renders file into editor at its cursor.
	Insert(ctx context.Context, file vfs.FileInfo, editor workspace.Editor) error
}

// deps is what the built-in delegates need from the controller.
type deps struct {
	fs       vfs.FS
	store    *settings.Store
	registry *integration.Registry
	scripts  *script.Engine
	now      func() time.Time
}

// newDelegate returns the delegate for p. Unknown plugins get the none
// delegate.
func newDelegate(p settings.TemplatePlugin, d deps) Delegate {
	switch p {
	case settings.PluginBuiltin:
		return &builtinDelegate{deps: d}
	case settings.PluginCore:
		return &coreDelegate{deps: d}
	case settings.PluginScript:
		return &scriptDelegate{deps: d}
	default:
		return noneDelegate{}
	}
}

type noneDelegate struct{}

func (noneDelegate) Name() string   { return settings.PluginNone.String() }
func (noneDelegate) Enabled() bool  { return false }
func (noneDelegate) Folder() string { return "" }

func (noneDelegate) Insert(context.Context, vfs.FileInfo, workspace.Editor) error {
	return ErrPluginDisabled
}

// builtinDelegate inserts template files verbatim.
type builtinDelegate struct{ deps }

func (*builtinDelegate) Name() string  { return settings.PluginBuiltin.String() }
func (*builtinDelegate) Enabled() bool { return true }

func (b *builtinDelegate) Folder() string {
	return b.store.Get().TemplateFolder
}

func (b *builtinDelegate) Insert(_ context.Context, file vfs.FileInfo, editor workspace.Editor) error {
	content, err := b.read(file)
	if err != nil {
		return err
	}
	return replace(file, editor, content)
}

// coreDelegate expands {{title}}, {{date}} and {{time}} variables.
type coreDelegate struct{ deps }

func (*coreDelegate) Name() string { return settings.PluginCore.String() }

func (c *coreDelegate) Enabled() bool {
	return c.registry != nil && c.registry.Enabled(integration.CoreTemplates)
}

func (c *coreDelegate) Folder() string {
	return c.setting(integration.FolderSetting)
}

func (c *coreDelegate) setting(key string) string {
	if c.registry == nil {
		return ""
	}
	v, _ := c.registry.Setting(integration.CoreTemplates, key)
	return v
}

func (c *coreDelegate) Insert(_ context.Context, file vfs.FileInfo, editor workspace.Editor) error {
	content, err := c.read(file)
	if err != nil {
		return err
	}
	name := vfs.Base(editor.Path())
	rendered := placeholder.Expand(content, placeholder.Context{
		Title:      name[:len(name)-len(vfs.Ext(name))],
		Now:        c.now(),
		DateFormat: c.setting(DateFormatSetting),
		TimeFormat: c.setting(TimeFormatSetting),
	})
	return replace(file, editor, rendered)
}

// scriptDelegate evaluates Lua template tags.
type scriptDelegate struct{ deps }

func (*scriptDelegate) Name() string { return settings.PluginScript.String() }

func (s *scriptDelegate) Enabled() bool {
	return s.registry != nil && s.registry.Enabled(integration.ScriptTemplates)
}

func (s *scriptDelegate) Folder() string {
	if s.registry == nil {
		return ""
	}
	v, _ := s.registry.Setting(integration.ScriptTemplates, integration.FolderSetting)
	return v
}

func (s *scriptDelegate) Insert(ctx context.Context, file vfs.FileInfo, editor workspace.Editor) error {
	content, err := s.read(file)
	if err != nil {
		return err
	}
	rendered, err := s.scripts.Expand(ctx, content, script.Context{
		Path: editor.Path(),
		Now:  s.now(),
	})
	if err != nil {
		return &InsertError{Op: "expand", Path: file.Path(), Err: err}
	}
	return replace(file, editor, rendered)
}

func (d deps) read(file vfs.FileInfo) (string, error) {
	data, err := d.fs.ReadFile(file.Path())
	if err != nil {
		return "", &InsertError{Op: "read", Path: file.Path(), Err: err}
	}
	return string(data), nil
}

func replace(file vfs.FileInfo, editor workspace.Editor, text string) error {
	if err := editor.ReplaceSelection(text); err != nil {
		return &InsertError{Op: "insert", Path: file.Path(), Err: err}
	}
	return nil
}
