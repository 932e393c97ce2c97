package credential

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"accountd/internal/identity/models"
	"accountd/pkg/platform/sentinel"
)

// InMemoryStore keeps credential records in a map. It favors clarity over
// performance and backs unit tests and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.CredentialRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.CredentialRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, rec models.CredentialRecord, secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.Username]; exists {
		return sentinel.ErrConflict
	}
	rec.SecretHash = string(hash)
	rec.Confirmed = false
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Attributes == nil {
		rec.Attributes = make(map[string]string)
	}
	s.records[rec.Username] = rec
	return nil
}

func (s *InMemoryStore) Confirm(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[username]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Confirmed = true
	s.records[username] = rec
	return nil
}

func (s *InMemoryStore) UpdateAttributes(_ context.Context, username string, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[username]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := make(map[string]string, len(rec.Attributes)+len(attrs))
	for k, v := range rec.Attributes {
		updated[k] = v
	}
	for k, v := range attrs {
		updated[k] = v
	}
	rec.Attributes = updated
	s.records[username] = rec
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[username]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, username)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, username string) (*models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *InMemoryStore) VerifySecret(_ context.Context, username, secret string) (*models.CredentialRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[username]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.SecretHash), []byte(secret)); err != nil {
		return nil, ErrSecretMismatch
	}
	return cloneRecord(rec), nil
}

// cloneRecord copies a record so callers never share the map's attribute maps.
func cloneRecord(rec models.CredentialRecord) *models.CredentialRecord {
	out := rec
	out.Attributes = make(map[string]string, len(rec.Attributes))
	for k, v := range rec.Attributes {
		out.Attributes[k] = v
	}
	return &out
}
