// Package store provides credential store implementations. The in-memory
// store backs tests and single-node deployments; Postgres is the production
// store.
package store

import (
	"context"
	"sync"
	"time"

	"aidgate/internal/disclosure/models"
	"aidgate/pkg/sentinel"
)

// MemoryStore keeps PIN credentials in a map guarded by one mutex, which
// makes the Atomic methods trivially atomic.
type MemoryStore struct {
	mu          sync.Mutex
	credentials map[string]*models.PinCredential
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[string]*models.PinCredential),
	}
}

func (s *MemoryStore) Get(ctx context.Context, beneficiaryID string) (*models.PinCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[beneficiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *credential
	return &copied, nil
}

func (s *MemoryStore) Create(ctx context.Context, credential *models.PinCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.credentials[credential.BeneficiaryID]; ok {
		return sentinel.ErrConflict
	}
	copied := *credential
	s.credentials[credential.BeneficiaryID] = &copied
	return nil
}

func (s *MemoryStore) RecordFailureAtomic(ctx context.Context, beneficiaryID string, now time.Time) (*models.PinCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[beneficiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	credential.FailedAttempts++
	credential.UpdatedAt = now
	copied := *credential
	return &copied, nil
}

func (s *MemoryStore) ApplyLockAtomic(ctx context.Context, beneficiaryID string, lockedUntil time.Time, threshold int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[beneficiaryID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if credential.FailedAttempts < threshold {
		return false, nil
	}
	if credential.LockedUntil != nil && lockedUntil.Before(*credential.LockedUntil) {
		return false, nil
	}
	credential.LockedUntil = &lockedUntil
	return true, nil
}

func (s *MemoryStore) ClearFailures(ctx context.Context, beneficiaryID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[beneficiaryID]
	if !ok {
		return sentinel.ErrNotFound
	}
	loginAt := now
	credential.FailedAttempts = 0
	credential.LockedUntil = nil
	credential.LastLoginAt = &loginAt
	credential.UpdatedAt = now
	return nil
}
