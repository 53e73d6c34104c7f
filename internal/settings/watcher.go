package settings

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/calnotes/internal/logging"
)

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a Store when its settings file changes on disk.
type Watcher struct {
	mu sync.Mutex

	fsw      *fsnotify.Watcher
	hostPath string
	reload   func() (Settings, error)
	store    *Store
	logger   *logging.Logger
	debounce time.Duration

	timer   *time.Timer
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the delay between the last file event and the reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger used to report reload failures.
func WithLogger(l *logging.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logging.OrDiscard(l).WithComponent("settings")
	}
}

// NewWatcher watches hostPath, the settings file's location on the host file
// system, and replaces the store's value with the result of reload whenever
// the file is written or recreated. The parent directory is watched so that
// editors which save by rename are still seen.
func NewWatcher(hostPath string, store *Store, reload func() (Settings, error), opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(hostPath)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		hostPath: abs,
		reload:   reload,
		store:    store,
		logger:   logging.Discard(),
		debounce: DefaultDebounce,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.hostPath {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.apply)
}

func (w *Watcher) apply() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	// Registered under mu so Close, which sets closed under mu before
	// waiting, always waits for a reload that got this far.
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	s, err := w.reload()
	if err != nil {
		w.logger.Error("reload failed, keeping previous settings: %v", err)
		return
	}

	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		w.logger.Debug("watcher closed during reload, discarding %s", w.hostPath)
		return
	}
	w.store.Replace(s)
	w.logger.Debug("settings reloaded from %s", w.hostPath)
}

// Close stops watching and waits for a reload in progress to finish. No
// reload reaches the store after Close returns. Calling Close again returns
// ErrWatcherClosed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
