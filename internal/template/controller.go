// Package template resolves the template file configured for a note
// category and inserts it into the active editor through the selected
// templating integration.
//
// The controller is glue: it reads the user's settings, maps the category to
// a filename, resolves that filename in the integration's template folder and
// hands the file to a Delegate once the workspace has a ready markdown
// editor. Editors mount asynchronously after a note is opened, so insertion
// polls for readiness with a fixed delay and gives up after a fixed number
// of attempts.
package template

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/calnotes/internal/integration"
	"github.com/dshills/calnotes/internal/logging"
	"github.com/dshills/calnotes/internal/notes"
	"github.com/dshills/calnotes/internal/settings"
	"github.com/dshills/calnotes/internal/template/script"
	"github.com/dshills/calnotes/internal/vfs"
	"github.com/dshills/calnotes/internal/workspace"
)

// DefaultExt is appended to template filenames configured without one.
const DefaultExt = ".md"

// RetryPolicy bounds the wait for a ready editor.
type RetryPolicy struct {
	// MaxAttempts is the number of readiness checks before giving up.
	MaxAttempts int
	// Interval is the fixed delay after each failed check.
	Interval time.Duration
	// Settle is the extra delay between seeing a ready editor and
	// inserting, giving the integration time to finish its own setup.
	Settle time.Duration
}

// DefaultRetryPolicy waits up to three seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 30,
		Interval:    100 * time.Millisecond,
		Settle:      50 * time.Millisecond,
	}
}

// Controller is the template facade.
type Controller struct {
	store     *settings.Store
	fs        vfs.FS
	host      workspace.Host
	registry  *integration.Registry
	scripts   *script.Engine
	logger    *logging.Logger
	retry     RetryPolicy
	now       func() time.Time
	factories map[settings.TemplatePlugin]func() Delegate

	mu       sync.RWMutex
	delegate Delegate

	unsubscribe func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.OrDiscard(l).WithComponent("template")
	}
}

// WithRetryPolicy replaces the default readiness polling policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) {
		c.retry = p
	}
}

// WithClock sets the time source used when rendering dates.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithScriptEngine sets the engine used by the script integration.
func WithScriptEngine(e *script.Engine) Option {
	return func(c *Controller) {
		c.scripts = e
	}
}

// WithDelegate overrides the delegate built for plugin p.
func WithDelegate(p settings.TemplatePlugin, fn func() Delegate) Option {
	return func(c *Controller) {
		c.factories[p] = fn
	}
}

// New creates a controller and selects the delegate for the plugin in
// store. The controller follows later plugin changes made through the store
// until Close is called. registry may be nil when the host loads no
// integrations.
func New(store *settings.Store, fsys vfs.FS, host workspace.Host, registry *integration.Registry, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		fs:        fsys,
		host:      host,
		registry:  registry,
		logger:    logging.Discard(),
		retry:     DefaultRetryPolicy(),
		now:       time.Now,
		factories: make(map[settings.TemplatePlugin]func() Delegate),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scripts == nil {
		c.scripts = script.New()
	}

	c.unsubscribe = store.Subscribe(func(old, current settings.Settings) {
		if old.TemplatePlugin != current.TemplatePlugin {
			c.syncDelegate()
		}
	})
	c.syncDelegate()
	return c
}

// Close stops following settings changes.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Controller) buildDelegate(p settings.TemplatePlugin) Delegate {
	if fn, ok := c.factories[p]; ok {
		return fn()
	}
	return newDelegate(p, deps{
		fs:       c.fs,
		store:    c.store,
		registry: c.registry,
		scripts:  c.scripts,
		now:      c.now,
	})
}

// syncDelegate rebuilds the delegate from the stored plugin. Observers may
// run out of commit order, so the store is read under c.mu rather than
// trusting the notified value; the last sync always sees the latest commit.
func (c *Controller) syncDelegate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delegate = c.buildDelegate(c.store.Get().TemplatePlugin)
}

// Delegate returns the delegate currently performing insertions.
func (c *Controller) Delegate() Delegate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.delegate
}

// TemplatePlugin returns the selected templating integration.
func (c *Controller) TemplatePlugin() settings.TemplatePlugin {
	return c.store.Get().TemplatePlugin
}

// IsTemplatePluginEnabled reports whether the selected integration can
// insert right now.
func (c *Controller) IsTemplatePluginEnabled() bool {
	return c.Delegate().Enabled()
}

// UpdateTemplatePlugin selects a templating integration and persists the
// choice. The delegate is swapped by the settings observer. Values outside
// the known plugins select the none delegate.
func (c *Controller) UpdateTemplatePlugin(p settings.TemplatePlugin) error {
	err := c.store.Update(func(s *settings.Settings) {
		s.TemplatePlugin = p
	})
	c.logger.Info("template plugin set to %s", p)
	return err
}

// TemplateFolder returns the folder of the selected integration.
func (c *Controller) TemplateFolder() string {
	return c.Delegate().Folder()
}

// HasTemplateFolder reports whether the selected integration has a
// configured folder that exists in the vault.
func (c *Controller) HasTemplateFolder() bool {
	_, ok := c.templateFolder()
	return ok
}

func (c *Controller) templateFolder() (string, bool) {
	folder := c.TemplateFolder()
	if strings.TrimSpace(folder) == "" || !c.fs.IsDir(folder) {
		return "", false
	}
	return folder, true
}

// TemplateFilename returns the template filename configured for t. ok is
// false when no integration is selected or t is not a category.
func (c *Controller) TemplateFilename(t notes.Type) (name string, ok bool) {
	s := c.store.Get()
	if s.TemplatePlugin == settings.PluginNone {
		return "", false
	}
	return s.TemplateFilename(t)
}

// SetTemplateFilename sets and persists the template filename for t. It
// does nothing when no integration is selected or t is not a category.
func (c *Controller) SetTemplateFilename(t notes.Type, name string) error {
	if c.TemplatePlugin() == settings.PluginNone || !t.Valid() {
		return nil
	}
	return c.store.Update(func(s *settings.Settings) {
		s.SetTemplateFilename(t, name)
	})
}

// HasTemplateFile reports whether filename resolves to a template file.
func (c *Controller) HasTemplateFile(filename string) bool {
	_, ok := c.TemplateFileByFilename(filename)
	return ok
}

// TemplateFileByFilename resolves filename in the template folder.
func (c *Controller) TemplateFileByFilename(filename string) (vfs.FileInfo, bool) {
	folder, ok := c.templateFolder()
	if !ok {
		return vfs.FileInfo{}, false
	}
	return c.resolve(folder, filename)
}

// TemplateFileByType resolves the template configured for t.
func (c *Controller) TemplateFileByType(t notes.Type) (vfs.FileInfo, bool) {
	folder, ok := c.templateFolder()
	if !ok {
		return vfs.FileInfo{}, false
	}
	name, ok := c.store.Get().TemplateFilename(t)
	if !ok {
		return vfs.FileInfo{}, false
	}
	return c.resolve(folder, name)
}

// resolve joins folder and filename, defaulting the extension, and returns
// the file if it exists. An empty filename means unset.
func (c *Controller) resolve(folder, filename string) (vfs.FileInfo, bool) {
	if strings.TrimSpace(filename) == "" {
		return vfs.FileInfo{}, false
	}
	full := vfs.Join(folder, vfs.WithDefaultExt(filename, DefaultExt))
	info, err := c.fs.Stat(full)
	if err != nil || !info.IsRegular() {
		return vfs.FileInfo{}, false
	}
	return info, true
}

// InsertTemplate inserts the template configured for t into the active
// editor, waiting for the editor to become ready. It returns nil without
// doing anything when the selected integration is disabled or no template
// file resolves.
func (c *Controller) InsertTemplate(ctx context.Context, t notes.Type) error {
	if !c.IsTemplatePluginEnabled() {
		return nil
	}
	file, ok := c.TemplateFileByType(t)
	if !ok {
		c.logger.Debug("no %s template to insert", t)
		return nil
	}
	return c.Notify(ctx, file)
}

// InsertTemplateAsync runs InsertTemplate in the background. The returned
// channel receives exactly one result and is never closed early.
func (c *Controller) InsertTemplateAsync(ctx context.Context, t notes.Type) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- c.InsertTemplate(ctx, t)
	}()
	return result
}

// Notify waits for the active leaf to be a markdown view with a ready
// editor, then inserts file. It checks up to MaxAttempts times, sleeping
// Interval after each miss, and fails with ErrEditorNotReady when the
// budget runs out.
func (c *Controller) Notify(ctx context.Context, file vfs.FileInfo) error {
	log := c.logger.WithFields(map[string]any{
		"request":  uuid.NewString(),
		"template": file.Path(),
	})

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if c.editorReady() {
			if err := sleep(ctx, c.retry.Settle); err != nil {
				return err
			}
			err := c.InsertFile(ctx, file)
			if err != nil {
				log.Error("insert failed: %v", err)
				return err
			}
			log.Info("template inserted after %d attempts", attempt+1)
			return nil
		}

		log.Debug("editor not ready (attempt %d/%d)", attempt+1, c.retry.MaxAttempts)
		if err := sleep(ctx, c.retry.Interval); err != nil {
			return err
		}
	}

	log.Error("giving up: no active editor or editor not ready")
	return &InsertError{Op: "wait", Path: file.Path(), Attempts: c.retry.MaxAttempts, Err: ErrEditorNotReady}
}

func (c *Controller) editorReady() bool {
	leaf := c.host.ActiveLeaf()
	return leaf != nil && leaf.ViewType() == workspace.ViewMarkdown && c.host.ActiveEditor() != nil
}

// InsertFile hands file to the current delegate for the active editor
// without waiting.
func (c *Controller) InsertFile(ctx context.Context, file vfs.FileInfo) error {
	editor := c.host.ActiveEditor()
	if editor == nil {
		return &InsertError{Op: "insert", Path: file.Path(), Err: ErrNoActiveEditor}
	}
	return c.Delegate().Insert(ctx, file, editor)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
