package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aidgate/internal/platform/config"
	"aidgate/internal/ratelimit/models"
	"aidgate/internal/ratelimit/store/attempt"
	"aidgate/internal/ratelimit/store/counter"
	"aidgate/pkg/requestcontext"
)

// =============================================================================
// Rate Limiter Test Suite
// =============================================================================
// Justification for unit tests: The limiter is the only throttle in front of
// the public search endpoint. Tests pin the window thresholds, the cooldown
// block that outlives the window, and the fail-open path when the counter
// backend is unreachable.

type RateLimitServiceSuite struct {
	suite.Suite
	counters *counter.InMemoryCounterStore
	attempts *attempt.InMemoryAttemptStore
	service  *Service
	now      time.Time
}

func TestRateLimitServiceSuite(t *testing.T) {
	suite.Run(t, new(RateLimitServiceSuite))
}

func (s *RateLimitServiceSuite) SetupTest() {
	s.counters = counter.NewInMemoryCounterStore()
	s.attempts = attempt.NewInMemoryAttemptStore()
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	svc, err := New(s.counters, s.attempts,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithConfig(&config.RateLimit{
			MaxHourly:     10,
			MaxDaily:      50,
			BlockDuration: time.Hour,
		}),
	)
	s.Require().NoError(err)
	s.service = svc
}

// at returns a context carrying the suite's base time shifted by offset.
func (s *RateLimitServiceSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *RateLimitServiceSuite) TestNew() {
	s.Run("fails without counter store", func() {
		_, err := New(nil, s.attempts)
		s.Require().EqualError(err, "counter store is required")
	})

	s.Run("fails without attempt store", func() {
		_, err := New(s.counters, nil)
		s.Require().EqualError(err, "attempt store is required")
	})
}

func (s *RateLimitServiceSuite) TestHourlyWindow() {
	ctx := s.at(0)

	for i := 0; i < 10; i++ {
		decision, err := s.service.CheckAndRecord(ctx, "203.0.113.7", "123456789")
		s.Require().NoError(err)
		s.Require().True(decision.Allowed)
		s.Equal(10-(i+1), decision.HourlyRemaining)
	}

	decision, err := s.service.CheckAndRecord(ctx, "203.0.113.7", "123456789")
	s.Require().NoError(err)
	s.False(decision.Allowed)
	s.Equal(models.ReasonRateLimited, decision.Reason)
	s.Require().NotNil(decision.BlockedUntil)
	s.Equal(s.now.Add(time.Hour), *decision.BlockedUntil)
	s.Equal(3600, decision.RetryAfter)
}

func (s *RateLimitServiceSuite) TestBlockOutlivesWindow() {
	ctx := s.at(0)
	for i := 0; i < 11; i++ {
		_, err := s.service.CheckAndRecord(ctx, "203.0.113.7", "123456789")
		s.Require().NoError(err)
	}

	s.Run("denied as blocked before cooldown ends", func() {
		decision, err := s.service.CheckAndRecord(s.at(30*time.Minute), "203.0.113.7", "123456789")
		s.Require().NoError(err)
		s.False(decision.Allowed)
		s.Equal(models.ReasonBlocked, decision.Reason)
		s.Equal(30*60, decision.RetryAfter)
	})

	s.Run("admitted once the block and window expire", func() {
		decision, err := s.service.CheckAndRecord(s.at(61*time.Minute), "203.0.113.7", "123456789")
		s.Require().NoError(err)
		s.True(decision.Allowed)
	})
}

func (s *RateLimitServiceSuite) TestSourcesAreIndependent() {
	ctx := s.at(0)
	for i := 0; i < 11; i++ {
		_, err := s.service.CheckAndRecord(ctx, "203.0.113.7", "123456789")
		s.Require().NoError(err)
	}

	decision, err := s.service.CheckAndRecord(ctx, "198.51.100.9", "123456789")
	s.Require().NoError(err)
	s.True(decision.Allowed)
}

func (s *RateLimitServiceSuite) TestAttemptRecordedOnDenial() {
	ctx := s.at(0)
	for i := 0; i < 11; i++ {
		_, err := s.service.CheckAndRecord(ctx, "203.0.113.7", "123456789")
		s.Require().NoError(err)
	}

	attempts, err := s.attempts.ListSuspicious(ctx, s.now.Add(-time.Minute))
	s.Require().NoError(err)
	s.Require().Len(attempts, 1)
	s.Equal("203.0.113.7", attempts[0].SourceAddress)
	s.Equal("123456789", attempts[0].IdentifierQueried)
	s.True(attempts[0].Suspicious)
}

func (s *RateLimitServiceSuite) TestMarkFound() {
	ctx := s.at(0)
	decision, err := s.service.CheckAndRecord(ctx, "203.0.113.7", "123456789")
	s.Require().NoError(err)
	s.Require().NotEmpty(decision.AttemptID)

	s.Require().NoError(s.service.MarkFound(ctx, decision.AttemptID))

	// An empty attempt ID means the append itself failed earlier; completing
	// it is a no-op rather than an error.
	s.Require().NoError(s.service.MarkFound(ctx, ""))
}

func (s *RateLimitServiceSuite) TestFailOpen() {
	svc, err := New(&failingCounterStore{}, s.attempts,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)

	decision, err := svc.CheckAndRecord(s.at(0), "203.0.113.7", "123456789")
	s.Require().NoError(err)
	s.True(decision.Allowed)
	s.NotEmpty(decision.AttemptID)
}

type failingCounterStore struct{}

func (f *failingCounterStore) Admit(context.Context, string, int, int) (*models.CounterState, bool, error) {
	return nil, false, errors.New("redis: connection refused")
}

func (f *failingCounterStore) BlockedUntil(context.Context, string) (*time.Time, error) {
	return nil, errors.New("redis: connection refused")
}

func (f *failingCounterStore) Block(context.Context, string, time.Time) error {
	return errors.New("redis: connection refused")
}

func (f *failingCounterStore) Reset(context.Context, string) error {
	return errors.New("redis: connection refused")
}
