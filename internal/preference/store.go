// Package preference remembers which synthesis backend each user picked.
// State is in memory only and is lost on restart.
package preference

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgallion1/docvoice/internal/synth"
)

// ErrUnknownBackend is returned when a user picks a backend that does not exist.
var ErrUnknownBackend = errors.New("unknown backend")

// Store is a concurrency-safe user ID to backend ID map.
type Store struct {
	mu    sync.RWMutex
	prefs map[string]synth.ID
	def   synth.ID
}

func NewStore() *Store {
	return &Store{
		prefs: make(map[string]synth.ID),
		def:   synth.DefaultID,
	}
}

// Set records a user's choice. Aliases such as "gtts" and "groq" are
// accepted and stored in canonical form.
func (s *Store) Set(userID string, id synth.ID) error {
	canonical, ok := synth.ParseID(string(id))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = canonical
	return nil
}

// Get returns the user's backend, or the default if none was chosen.
func (s *Store) Get(userID string) synth.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.prefs[userID]; ok {
		return id
	}
	return s.def
}

// Len reports how many users have an explicit choice.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prefs)
}
