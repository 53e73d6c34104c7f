// Package app wires the calnotes components together: vault, settings,
// host integrations, workspace and the template controller.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dshills/calnotes/internal/integration"
	"github.com/dshills/calnotes/internal/logging"
	"github.com/dshills/calnotes/internal/notes"
	"github.com/dshills/calnotes/internal/settings"
	"github.com/dshills/calnotes/internal/template"
	"github.com/dshills/calnotes/internal/vfs"
	"github.com/dshills/calnotes/internal/workspace"
)

// Application errors.
var (
	// ErrShutdown indicates the application has been shut down.
	ErrShutdown = errors.New("application shut down")

	// ErrWatchUnsupported indicates settings watching on a vault that is not
	// backed by the host file system.
	ErrWatchUnsupported = errors.New("settings watching requires an on-disk vault")
)

// Options configures an Application.
type Options struct {
	// VaultPath is the vault directory. Ignored when FS is set.
	VaultPath string
	// FS overrides the vault file system.
	FS vfs.FS

	// ConfigPath is the vault path of the settings file.
	ConfigPath string
	// IntegrationsPath is the vault path of the integrations file.
	IntegrationsPath string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer

	// Watch reloads settings when the settings file changes on disk.
	Watch bool

	// MountDelay is how long a newly opened note takes to get an editor.
	MountDelay time.Duration

	// Retry overrides the editor readiness policy when MaxAttempts is set.
	Retry template.RetryPolicy

	// Now overrides the clock.
	Now func() time.Time
}

// Application is a running calnotes instance.
type Application struct {
	opts   Options
	logger *logging.Logger
	now    func() time.Time

	fs        vfs.FS
	store     *settings.Store
	registry  *integration.Registry
	workspace *workspace.Workspace
	templates *template.Controller
	watcher   *settings.Watcher

	mu       sync.Mutex
	shutdown bool
}

// New loads the vault configuration and builds an Application.
func New(opts Options) (*Application, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = settings.DefaultPath
	}
	if opts.IntegrationsPath == "" {
		opts.IntegrationsPath = integration.DefaultConfigPath
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(opts.LogLevel)
	if opts.LogOutput != nil {
		cfg.Output = opts.LogOutput
	}
	logger := logging.New(cfg)

	fsys := opts.FS
	if fsys == nil {
		osfs, err := vfs.NewOSFS(opts.VaultPath)
		if err != nil {
			return nil, fmt.Errorf("opening vault %s: %w", opts.VaultPath, err)
		}
		fsys = osfs
	}

	s, err := settings.Load(fsys, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	store := settings.NewStore(s)
	store.SetPersister(func(s settings.Settings) error {
		return settings.Save(fsys, opts.ConfigPath, s)
	})

	icfg, err := integration.LoadConfig(fsys, opts.IntegrationsPath)
	if err != nil {
		return nil, err
	}
	registry := integration.NewRegistry()
	if err := registry.Apply(icfg); err != nil {
		return nil, err
	}
	registry.Subscribe(func(ev integration.Event) {
		logger.WithComponent("integration").Info("%s: %s -> %s", ev.Name, ev.From, ev.To)
	})

	ws := workspace.New(fsys)

	tmplOpts := []template.Option{
		template.WithLogger(logger),
		template.WithClock(opts.Now),
	}
	if opts.Retry.MaxAttempts > 0 {
		tmplOpts = append(tmplOpts, template.WithRetryPolicy(opts.Retry))
	}

	a := &Application{
		opts:      opts,
		logger:    logger,
		now:       opts.Now,
		fs:        fsys,
		store:     store,
		registry:  registry,
		workspace: ws,
		templates: template.New(store, fsys, ws, registry, tmplOpts...),
	}

	if opts.Watch {
		if err := a.startWatcher(); err != nil {
			a.templates.Close()
			return nil, err
		}
	}

	logger.Debug("vault ready: plugin=%s folder=%q", store.Get().TemplatePlugin, a.templates.TemplateFolder())
	return a, nil
}

func (a *Application) startWatcher() error {
	osfs, ok := a.fs.(*vfs.OSFS)
	if !ok {
		return ErrWatchUnsupported
	}
	w, err := settings.NewWatcher(osfs.Resolve(a.opts.ConfigPath), a.store, func() (settings.Settings, error) {
		return settings.Load(a.fs, a.opts.ConfigPath)
	}, settings.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("watching settings: %w", err)
	}
	a.watcher = w
	return nil
}

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger { return a.logger }

// Settings returns the live settings store.
func (a *Application) Settings() *settings.Store { return a.store }

// Integrations returns the host integration registry.
func (a *Application) Integrations() *integration.Registry { return a.registry }

// Workspace returns the editor workspace.
func (a *Application) Workspace() *workspace.Workspace { return a.workspace }

// Templates returns the template controller.
func (a *Application) Templates() *template.Controller { return a.templates }

// NotePath returns the default vault path of the note of type t covering
// the current day.
func (a *Application) NotePath(t notes.Type) string {
	return notes.Filename(t, a.now()) + template.DefaultExt
}

// CreateNote opens the note at path (the default note for t when empty).
// A note that does not exist yet is created with the category template
// inserted once its editor mounts, then saved. Existing notes are opened
// untouched. It returns the vault path of the note.
func (a *Application) CreateNote(ctx context.Context, t notes.Type, path string) (string, error) {
	if a.isShutdown() {
		return "", ErrShutdown
	}
	if path == "" {
		path = a.NotePath(t)
	}
	path = vfs.Clean(path)

	existed := a.fs.Exists(path)
	pane, err := a.workspace.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = a.workspace.Close(path)
	}()

	mount := time.AfterFunc(a.opts.MountDelay, func() {
		_ = a.workspace.Mount(path)
	})
	defer mount.Stop()

	if existed {
		a.logger.Info("opened existing %s note %s", t, path)
		return path, nil
	}

	if err := a.templates.InsertTemplate(ctx, t); err != nil {
		return path, fmt.Errorf("creating %s: %w", path, err)
	}
	if err := a.workspace.SaveDocument(pane.Document()); err != nil {
		return path, err
	}
	a.logger.Info("created %s note %s", t, path)
	return path, nil
}

// Serve reads requests from r, one per line, until EOF or ctx is done.
// A request is a note type optionally followed by a note path:
//
//	daily
//	weekly Journal/2024-W03.md
//
// Failures are logged and do not stop the loop.
func (a *Application) Serve(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return ctx.Err()
				}
			}
			a.handleRequest(ctx, line)
		}
	}
}

func (a *Application) handleRequest(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return
	}

	t, err := notes.ParseType(fields[0])
	if err != nil {
		a.logger.Warn("bad request %q: %v", line, err)
		return
	}
	path := ""
	if len(fields) > 1 {
		path = strings.Join(fields[1:], " ")
	}

	if _, err := a.CreateNote(ctx, t, path); err != nil {
		a.logger.Error("%v", err)
	}
}

// SetPlugin selects and persists the templating integration.
func (a *Application) SetPlugin(name string) error {
	p, err := settings.ParsePlugin(name)
	if err != nil {
		return err
	}
	return a.templates.UpdateTemplatePlugin(p)
}

// SetTemplate persists the template filename for t.
func (a *Application) SetTemplate(t notes.Type, name string) error {
	if a.templates.TemplatePlugin() == settings.PluginNone {
		return fmt.Errorf("cannot set %s template: %w", t, template.ErrPluginDisabled)
	}
	return a.templates.SetTemplateFilename(t, name)
}

func (a *Application) isShutdown() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shutdown
}

// Shutdown stops the settings watcher and detaches the controller. It is
// safe to call more than once.
func (a *Application) Shutdown() {
	a.mu.Lock()
	if a.shutdown {
		a.mu.Unlock()
		return
	}
	a.shutdown = true
	a.mu.Unlock()

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("closing settings watcher: %v", err)
		}
	}
	a.templates.Close()
}

// DefaultVault returns the vault directory used when none is given: the
// CALNOTES_VAULT environment variable, or the working directory.
func DefaultVault() string {
	if v := os.Getenv("CALNOTES_VAULT"); v != "" {
		return v
	}
	return "."
}
