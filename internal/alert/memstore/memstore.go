// Package memstore provides an in-memory implementation of alert.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/stormwatch/internal/alert"
)

// Store holds alert records in memory. Suitable for dev/testing and as the
// reference implementation of the store contract.
type Store struct {
	mu      sync.RWMutex
	records map[string]*alert.Record // record ID -> record
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*alert.Record),
	}
}

// Create stores a copy of a new record. Fails if the ID already exists.
func (s *Store) Create(_ context.Context, r *alert.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.ID]; exists {
		return xerrors.New("memstore: record already exists: " + r.ID)
	}
	s.records[r.ID] = r.Clone()
	return nil
}

// Get retrieves a record by ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*alert.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	return r.Clone(), true, nil
}

// List returns copies of all records, in no particular order.
func (s *Store) List(_ context.Context) ([]*alert.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*alert.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out, nil
}

// Update replaces an existing record with a copy of r.
func (s *Store) Update(_ context.Context, r *alert.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		return xerrors.New("memstore: record not found: " + r.ID)
	}
	s.records[r.ID] = r.Clone()
	return nil
}

// Delete removes a record. Deleting a missing ID is a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
