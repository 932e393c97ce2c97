package profile

import (
	"context"
	"sync"

	"accountd/internal/identity/models"
	"accountd/pkg/platform/sentinel"
)

// InMemoryStore keeps profile records in a map for tests and single-process
// deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.ProfileRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.ProfileRecord)}
}

func (s *InMemoryStore) Put(_ context.Context, rec models.ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Username] = rec
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, username, field, value string) (*models.ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := rec.ApplyField(field, value); err != nil {
		return nil, err
	}
	s.records[username] = rec
	return &rec, nil
}

func (s *InMemoryStore) Find(_ context.Context, username string) (*models.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}
