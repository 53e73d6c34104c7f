// Package integration tracks the host-loaded templating integrations the
// template controller can delegate to.
//
// Integrations are owned by the host: this package only records whether each
// one is loaded and switched on, and the settings it exposes (most notably
// the vault folder holding its templates). The controller never drives an
// integration's lifecycle itself.
package integration

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Well-known integration names.
const (
	// CoreTemplates is the host's core templates integration.
	CoreTemplates = "templates"
	// ScriptTemplates is the scripted templates integration.
	ScriptTemplates = "scripted-templates"
)

// FolderSetting is the settings key holding an integration's template folder.
const FolderSetting = "folder"

// Errors returned by the registry.
var (
	// ErrNotRegistered indicates an unknown integration name.
	ErrNotRegistered = errors.New("integration not registered")

	// ErrAlreadyRegistered indicates a duplicate registration.
	ErrAlreadyRegistered = errors.New("integration already registered")
)

// State is the lifecycle state of an integration.
type State int

const (
	// StateUnloaded means the host has not loaded the integration.
	StateUnloaded State = iota
	// StateLoaded means the integration is loaded but switched off.
	StateLoaded
	// StateActive means the integration is loaded and switched on.
	StateActive
	// StateError means the integration failed to load.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Info is a snapshot of one integration.
type Info struct {
	Name     string
	State    State
	Settings map[string]string
	Err      error
}

// Event reports a state transition.
type Event struct {
	Name string
	From State
	To   State
	Err  error
}

// EventHandler receives state transitions. Handlers run synchronously and
// must not call back into the registry.
type EventHandler func(Event)

type entry struct {
	state    State
	settings map[string]string
	err      error
}

// Registry records the integrations known to the host.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	handlers map[int]EventHandler
	nextID   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*entry),
		handlers: make(map[int]EventHandler),
	}
}

// Register adds an integration in the loaded state with a copy of settings.
func (r *Registry) Register(name string, settings map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.entries[name] = &entry{state: StateLoaded, settings: copySettings(settings)}
	return nil
}

// Activate switches an integration on.
func (r *Registry) Activate(name string) error {
	return r.transition(name, StateActive, nil)
}

// Deactivate switches an integration off without unloading it.
func (r *Registry) Deactivate(name string) error {
	return r.transition(name, StateLoaded, nil)
}

// Unload marks an integration as no longer loaded by the host.
func (r *Registry) Unload(name string) error {
	return r.transition(name, StateUnloaded, nil)
}

// Fail records a load failure.
func (r *Registry) Fail(name string, err error) error {
	return r.transition(name, StateError, err)
}

func (r *Registry) transition(name string, to State, cause error) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	from := e.state
	e.state = to
	e.err = cause
	handlers := r.snapshotHandlers()
	r.mu.Unlock()

	if from != to {
		ev := Event{Name: name, From: from, To: to, Err: cause}
		for _, h := range handlers {
			h(ev)
		}
	}
	return nil
}

// Enabled reports whether the integration is registered and active.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return ok && e.state == StateActive
}

// Setting returns one setting of an integration.
func (r *Registry) Setting(name, key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return "", false
	}
	v, ok := e.settings[key]
	return v, ok
}

// SetSetting changes one setting of an integration.
func (r *Registry) SetSetting(name, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	e.settings[key] = value
	return nil
}

// ReplaceSettings swaps the whole settings map of an integration for a copy
// of settings.
func (r *Registry) ReplaceSettings(name string, settings map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	e.settings = copySettings(settings)
	return nil
}

// Get returns a snapshot of one integration.
func (r *Registry) Get(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Info{}, false
	}
	return Info{Name: name, State: e.state, Settings: copySettings(e.settings), Err: e.err}, true
}

// List returns snapshots of all integrations sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	out := make([]Info, 0, len(names))
	for _, name := range names {
		if info, ok := r.Get(name); ok {
			out = append(out, info)
		}
	}
	return out
}

// Subscribe adds a handler and returns a function that removes it.
func (r *Registry) Subscribe(handler EventHandler) func() {
	if handler == nil {
		return func() {}
	}

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.handlers[id] = handler
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.handlers, id)
	}
}

// snapshotHandlers must be called with the lock held.
func (r *Registry) snapshotHandlers() []EventHandler {
	ids := make([]int, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]EventHandler, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.handlers[id])
	}
	return out
}

func copySettings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
