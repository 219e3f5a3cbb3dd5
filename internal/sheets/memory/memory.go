// Package memory is an in-process rollup sink used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"bilancio/internal/core"
	ports "bilancio/internal/sheets"
)

var (
	_ ports.RollupWriter = (*Store)(nil)
	_ ports.RollupReader = (*Store)(nil)
)

type Store struct {
	mu      sync.Mutex
	rollups map[string][]core.MonthBucket
	writes  int
}

func New() *Store {
	return &Store{rollups: make(map[string][]core.MonthBucket)}
}

// WriteRollup replaces the stored rollup for accountID.
func (s *Store) WriteRollup(_ context.Context, accountID string, buckets []core.MonthBucket) error {
	if accountID == "" {
		return core.ErrEmptyAccountID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollups[accountID] = slices.Clone(buckets)
	s.writes++
	return nil
}

// ReadRollup returns the last rollup written for accountID.
func (s *Store) ReadRollup(_ context.Context, accountID string) ([]core.MonthBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rollups[accountID]
	if !ok {
		return nil, fmt.Errorf("rollup %s: %w", accountID, core.ErrNotFound)
	}
	return slices.Clone(b), nil
}

// Writes reports how many rollups have been written.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
