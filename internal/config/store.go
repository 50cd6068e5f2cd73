package config

import (
	"sync"
	"sync/atomic"
)

// Observer is notified after a snapshot has been replaced.
type Observer func(old, new *ToolConfig)

// Store holds the single active ToolConfig snapshot. Readers always see a
// complete snapshot; writers replace it as a whole.
type Store struct {
	current atomic.Pointer[ToolConfig]

	mu        sync.Mutex
	observers map[int]Observer
	nextID    int
}

func NewStore(initial *ToolConfig) *Store {
	if initial == nil {
		initial = NewConfig()
	}
	s := &Store{observers: make(map[int]Observer)}
	s.current.Store(initial)
	return s
}

// Current returns the active snapshot. Callers must treat it as read-only.
func (s *Store) Current() *ToolConfig {
	return s.current.Load()
}

// Replace swaps in next and notifies observers in subscription order.
func (s *Store) Replace(next *ToolConfig) {
	if next == nil {
		return
	}
	old := s.current.Swap(next)

	s.mu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for i := 0; i < s.nextID; i++ {
		if o, ok := s.observers[i]; ok {
			observers = append(observers, o)
		}
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(old, next)
	}
}

// Subscribe registers o and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = o

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}
