package store

import (
	"context"
	"sync"

	"loadvoice/internal/carrier"
	"loadvoice/pkg/sentinel"
)

// InMemoryStore is a map-backed cache for single-instance deployments and
// tests. Expired records stay until superseded or invalidated, matching the
// retention behavior of the Redis and Postgres stores.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]carrier.VerificationRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]carrier.VerificationRecord)}
}

func (s *InMemoryStore) Find(_ context.Context, key string) (*carrier.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}

func (s *InMemoryStore) Save(_ context.Context, key string, record carrier.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record
	return nil
}

func (s *InMemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
