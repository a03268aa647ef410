// Package store provides code store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"aidgate/internal/otp/models"
	"aidgate/pkg/sentinel"
)

// MemoryStore keeps issued codes in memory for tests and single-node runs.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]*models.Code
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		codes: make(map[string]*models.Code),
	}
}

func (s *MemoryStore) Create(ctx context.Context, code *models.Code) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *code
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}
	s.codes[copied.ID] = &copied
	code.ID = copied.ID
	return copied.ID, nil
}

func (s *MemoryStore) LatestActive(ctx context.Context, phone string, purpose models.Purpose, now time.Time) (*models.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.Code
	for _, code := range s.codes {
		if code.Phone != phone || code.Purpose != purpose || code.Used || code.IsExpiredAt(now) {
			continue
		}
		if latest == nil || code.CreatedAt.After(latest.CreatedAt) {
			latest = code
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *MemoryStore) IncrementAttempts(ctx context.Context, id string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[id]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	code.Attempts++
	code.UpdatedAt = now
	return code.Attempts, nil
}

func (s *MemoryStore) MarkUsed(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if code.Used {
		return sentinel.ErrAlreadyUsed
	}
	code.Used = true
	code.UpdatedAt = now
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, code := range s.codes {
		if code.ExpiresAt.Before(cutoff) {
			delete(s.codes, id)
			deleted++
		}
	}
	return deleted, nil
}
