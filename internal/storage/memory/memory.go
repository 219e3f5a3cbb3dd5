// Package memory is an in-process account store used for development and
// tests. It keeps deep copies so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bilancio/internal/core"
)

type Store struct {
	mu       sync.RWMutex
	accounts map[string]*core.Account
}

func New() *Store {
	return &Store{accounts: make(map[string]*core.Account)}
}

// Create stores a new account. Existing ids are rejected.
func (s *Store) Create(_ context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return fmt.Errorf("account %s: %w", a.ID, core.ErrAccountExists)
	}
	s.accounts[a.ID] = a.Clone()
	return nil
}

// Load returns a copy of the stored account.
func (s *Store) Load(_ context.Context, id string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return a.Clone(), nil
}

// Save replaces the stored aggregate.
func (s *Store) Save(_ context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return fmt.Errorf("account %s: %w", a.ID, core.ErrNotFound)
	}
	s.accounts[a.ID] = a.Clone()
	return nil
}

// List returns the stored account ids in lexical order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
