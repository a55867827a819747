package storage

import (
	"context"
	"sync"

	"github.com/c360studio/specdrift/spec"
)

// SpecStore persists specification records keyed by function key.
type SpecStore interface {
	// Put stores a record, overwriting any prior record for the key.
	Put(ctx context.Context, record *spec.Record) error

	// Get returns the record for a function key, or ErrNotFound.
	Get(ctx context.Context, functionKey string) (*spec.Record, error)
}

// MemoryStore is an in-process SpecStore. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*spec.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*spec.Record),
	}
}

// Put stores a record.
func (s *MemoryStore) Put(_ context.Context, record *spec.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.FunctionKey] = record
	return nil
}

// Get returns the record for a function key.
func (s *MemoryStore) Get(_ context.Context, functionKey string) (*spec.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[functionKey]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
