// Package toast holds the transient UI notifications shown after actions
// like publishing or deleting a post. The store is injected into handlers
// rather than being a package global, so tests get an isolated instance.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a toast lives before it dismisses itself.
const DefaultTTL = 5 * time.Second

// Level classifies a toast for styling.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// Toast is one notification.
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store keeps the currently visible toasts, oldest first. Each toast
// auto-expires after the store's TTL unless removed earlier.
type Store struct {
	mu     sync.Mutex
	toasts []Toast
	timers map[string]*time.Timer
	ttl    time.Duration
}

// NewStore returns a store with the default auto-dismiss interval.
func NewStore() *Store {
	return NewStoreWithTTL(DefaultTTL)
}

// NewStoreWithTTL returns a store with a custom auto-dismiss interval.
// A non-positive ttl disables auto-dismiss; toasts then live until Remove
// or Clear.
func NewStoreWithTTL(ttl time.Duration) *Store {
	return &Store{
		timers: make(map[string]*time.Timer),
		ttl:    ttl,
	}
}

// Add creates a toast and schedules its expiry.
func (s *Store) Add(message string, level Level) Toast {
	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Level:     level,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.toasts = append(s.toasts, t)
	if s.ttl > 0 {
		id := t.ID
		s.timers[id] = time.AfterFunc(s.ttl, func() { s.Remove(id) })
	}

	return t
}

// Remove dismisses a toast by ID. Removing an already-dismissed toast is a
// no-op, which makes the expiry timer and a manual dismiss safe to race.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimer(id)
	for i, t := range s.toasts {
		if t.ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			return
		}
	}
}

// Clear dismisses everything.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.timers {
		s.stopTimer(id)
	}
	s.toasts = nil
}

// List returns the visible toasts, oldest first.
func (s *Store) List() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

// stopTimer must be called with s.mu held.
func (s *Store) stopTimer(id string) {
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}
