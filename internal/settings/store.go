package settings

import (
	"sort"
	"sync"
)

// Observer is called after the settings change. Observers run synchronously
// on the goroutine that made the change and must not call Update.
type Observer func(old, current Settings)

// Store is a concurrency-safe holder for the live settings.
type Store struct {
	mu        sync.RWMutex
	current   Settings
	observers map[uint64]Observer
	nextID    uint64

	// persist, when set, is called with every new value.
	persist func(Settings) error
}

// NewStore creates a store holding initial.
func NewStore(initial Settings) *Store {
	return &Store{
		current:   initial,
		observers: make(map[uint64]Observer),
	}
}

// SetPersister installs a function that saves every updated value.
func (s *Store) SetPersister(fn func(Settings) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = fn
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to a copy of the settings, stores the result and
// notifies observers. Nothing happens when fn leaves the value unchanged.
// The persister error, if any, is returned after the
// in-memory value has been updated.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	old := s.current
	next := old
	fn(&next)
	if next == old {
		s.mu.Unlock()
		return nil
	}
	s.current = next
	persist := s.persist
	observers := s.snapshotObservers()
	s.mu.Unlock()

	var err error
	if persist != nil {
		err = persist(next)
	}
	notifyAll(observers, old, next)
	return err
}

// Replace swaps in a whole new value without persisting it, as when the
// settings file is reloaded from disk.
func (s *Store) Replace(next Settings) {
	s.mu.Lock()
	old := s.current
	s.current = next
	observers := s.snapshotObservers()
	s.mu.Unlock()

	if old != next {
		notifyAll(observers, old, next)
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// snapshotObservers returns observers in subscription order.
// Must be called with the lock held.
func (s *Store) snapshotObservers() []Observer {
	ids := make([]uint64, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.observers[id])
	}
	return out
}

func notifyAll(observers []Observer, old, current Settings) {
	for _, fn := range observers {
		fn(old, current)
	}
}
