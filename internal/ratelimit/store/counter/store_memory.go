package counter

import (
	"context"
	"sync"
	"time"

	"aidgate/internal/ratelimit/models"
	"aidgate/pkg/requestcontext"
)

// windowedCounter tracks fixed hourly/daily windows for one source. Counts
// reset when their window start falls behind the current bucket.
type windowedCounter struct {
	hourStart    time.Time
	hourCount    int
	dayStart     time.Time
	dayCount     int
	blockedUntil *time.Time
}

// InMemoryCounterStore implements CounterStore for single-instance
// deployments. Multi-instance deployments share counters through Redis.
type InMemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowedCounter
}

func NewInMemoryCounterStore() *InMemoryCounterStore {
	return &InMemoryCounterStore{counters: make(map[string]*windowedCounter)}
}

func (s *InMemoryCounterStore) Admit(ctx context.Context, source string, maxHourly, maxDaily int) (*models.CounterState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	c := s.getOrCreate(source)
	c.roll(now)

	admitted := c.hourCount < maxHourly && c.dayCount < maxDaily
	if admitted {
		c.hourCount++
		c.dayCount++
	}

	return &models.CounterState{
		SourceAddress: source,
		CountHourly:   c.hourCount,
		CountDaily:    c.dayCount,
		BlockedUntil:  c.blockedUntil,
	}, admitted, nil
}

func (s *InMemoryCounterStore) BlockedUntil(ctx context.Context, source string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[source]
	if !ok || c.blockedUntil == nil {
		return nil, nil
	}
	if !c.blockedUntil.After(requestcontext.Now(ctx)) {
		c.blockedUntil = nil
		return nil, nil
	}
	until := *c.blockedUntil
	return &until, nil
}

func (s *InMemoryCounterStore) Block(ctx context.Context, source string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreate(source)
	c.blockedUntil = &until
	return nil
}

func (s *InMemoryCounterStore) Reset(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, source)
	return nil
}

// getOrCreate must be called while holding s.mu.
func (s *InMemoryCounterStore) getOrCreate(source string) *windowedCounter {
	if c := s.counters[source]; c != nil {
		return c
	}
	c := &windowedCounter{}
	s.counters[source] = c
	return c
}

// roll resets counts whose window has elapsed.
func (c *windowedCounter) roll(now time.Time) {
	hourStart := now.Truncate(time.Hour)
	if !c.hourStart.Equal(hourStart) {
		c.hourStart = hourStart
		c.hourCount = 0
	}
	dayStart := now.Truncate(24 * time.Hour)
	if !c.dayStart.Equal(dayStart) {
		c.dayStart = dayStart
		c.dayCount = 0
	}
}
