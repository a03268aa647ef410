package attempt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"aidgate/internal/ratelimit/models"
	"aidgate/pkg/sentinel"
)

// InMemoryAttemptStore keeps a bounded in-process attempt log. Oldest entries
// are dropped once the cap is reached; Postgres is the durable backend.
type InMemoryAttemptStore struct {
	mu       sync.RWMutex
	attempts []models.SearchAttempt
	byID     map[string]int
	cap      int
}

const defaultCap = 10000

func NewInMemoryAttemptStore() *InMemoryAttemptStore {
	return &InMemoryAttemptStore{
		byID: make(map[string]int),
		cap:  defaultCap,
	}
}

func (s *InMemoryAttemptStore) Append(ctx context.Context, a models.SearchAttempt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if len(s.attempts) >= s.cap {
		dropped := s.attempts[0]
		s.attempts = s.attempts[1:]
		delete(s.byID, dropped.ID)
		for id, idx := range s.byID {
			s.byID[id] = idx - 1
		}
	}
	s.byID[a.ID] = len(s.attempts)
	s.attempts = append(s.attempts, a)
	return a.ID, nil
}

func (s *InMemoryAttemptStore) MarkFound(ctx context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[attemptID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.attempts[idx].Found = true
	return nil
}

func (s *InMemoryAttemptStore) ListSuspicious(ctx context.Context, since time.Time) ([]models.SearchAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SearchAttempt
	for i := len(s.attempts) - 1; i >= 0; i-- {
		a := s.attempts[i]
		if a.Timestamp.Before(since) {
			break
		}
		if a.Suspicious {
			out = append(out, a)
		}
	}
	return out, nil
}
