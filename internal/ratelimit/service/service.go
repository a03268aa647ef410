package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aidgate/internal/platform/config"
	"aidgate/internal/ratelimit/metrics"
	"aidgate/internal/ratelimit/models"
	"aidgate/internal/ratelimit/ports"
	"aidgate/pkg/requestcontext"
)

// Type aliases for interfaces from ports package.
// This allows external packages to use these types without importing ports directly.
type (
	CounterStore = ports.CounterStore
	AttemptStore = ports.AttemptStore
)

// Service gates every public search. It is deliberately fail-open: this is a
// humanitarian-aid lookup tool, so availability beats strict limiting when
// the counter store is down.
type Service struct {
	counters CounterStore
	attempts AttemptStore
	logger   *slog.Logger
	config   *config.RateLimit
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.RateLimit) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(counters CounterStore, attempts AttemptStore, opts ...Option) (*Service, error) {
	if counters == nil {
		return nil, errors.New("counter store is required")
	}
	if attempts == nil {
		return nil, errors.New("attempt store is required")
	}

	svc := &Service{
		counters: counters,
		attempts: attempts,
		config: &config.RateLimit{
			MaxHourly:     10,
			MaxDaily:      50,
			BlockDuration: time.Hour,
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckAndRecord admits or denies one search from the source and appends the
// attempt record either way. An active block denies without touching
// counters; exceeding either window applies a cooldown block.
func (s *Service) CheckAndRecord(ctx context.Context, source, nationalID string) (*models.Decision, error) {
	now := requestcontext.Now(ctx)

	blockedUntil, err := s.counters.BlockedUntil(ctx, source)
	if err != nil {
		return s.failOpen(ctx, source, nationalID, now, err), nil
	}
	if blockedUntil != nil {
		attemptID := s.appendAttempt(ctx, source, nationalID, now, true)
		if s.metrics != nil {
			s.metrics.RecordDenied(string(models.ReasonBlocked))
		}
		return &models.Decision{
			Allowed:      false,
			Reason:       models.ReasonBlocked,
			BlockedUntil: blockedUntil,
			RetryAfter:   retryAfter(now, *blockedUntil),
			AttemptID:    attemptID,
		}, nil
	}

	state, admitted, err := s.counters.Admit(ctx, source, s.config.MaxHourly, s.config.MaxDaily)
	if err != nil {
		return s.failOpen(ctx, source, nationalID, now, err), nil
	}

	if !admitted {
		until := now.Add(s.config.BlockDuration)
		if err := s.counters.Block(ctx, source, until); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to apply cooldown block",
				"source", source, "error", err)
		}
		attemptID := s.appendAttempt(ctx, source, nationalID, now, true)
		if s.logger != nil {
			s.logger.InfoContext(ctx, "search rate limit exceeded",
				"source", source,
				"count_hourly", state.CountHourly,
				"count_daily", state.CountDaily,
				"blocked_until", until,
			)
		}
		if s.metrics != nil {
			s.metrics.RecordDenied(string(models.ReasonRateLimited))
			s.metrics.RecordBlock()
		}
		return &models.Decision{
			Allowed:      false,
			Reason:       models.ReasonRateLimited,
			BlockedUntil: &until,
			RetryAfter:   retryAfter(now, until),
			AttemptID:    attemptID,
		}, nil
	}

	attemptID := s.appendAttempt(ctx, source, nationalID, now, false)
	if s.metrics != nil {
		s.metrics.RecordAdmitted()
	}
	return &models.Decision{
		Allowed:         true,
		HourlyRemaining: s.config.MaxHourly - state.CountHourly,
		DailyRemaining:  s.config.MaxDaily - state.CountDaily,
		AttemptID:       attemptID,
	}, nil
}

// MarkFound completes the attempt record once the backend lookup resolves.
func (s *Service) MarkFound(ctx context.Context, attemptID string) error {
	if attemptID == "" {
		return nil
	}
	return s.attempts.MarkFound(ctx, attemptID)
}

// ListSuspicious exposes flagged attempts for abuse review.
func (s *Service) ListSuspicious(ctx context.Context, since time.Time) ([]models.SearchAttempt, error) {
	return s.attempts.ListSuspicious(ctx, since)
}

// failOpen admits the request when the counter store is unreachable.
func (s *Service) failOpen(ctx context.Context, source, nationalID string, now time.Time, cause error) *models.Decision {
	if s.logger != nil {
		s.logger.WarnContext(ctx, "counter store unreachable, admitting search unthrottled",
			"source", source, "error", cause)
	}
	if s.metrics != nil {
		s.metrics.RecordFailOpen()
	}
	attemptID := s.appendAttempt(ctx, source, nationalID, now, false)
	return &models.Decision{
		Allowed:         true,
		HourlyRemaining: s.config.MaxHourly,
		DailyRemaining:  s.config.MaxDaily,
		AttemptID:       attemptID,
	}
}

func (s *Service) appendAttempt(ctx context.Context, source, nationalID string, now time.Time, suspicious bool) string {
	id, err := s.attempts.Append(ctx, models.SearchAttempt{
		SourceAddress:     source,
		Timestamp:         now,
		IdentifierQueried: nationalID,
		Suspicious:        suspicious,
		DeviceLabel:       requestcontext.DeviceLabel(ctx),
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to append search attempt",
				"source", source, "error", err)
		}
		return ""
	}
	return id
}

func retryAfter(now, until time.Time) int {
	return max(int(until.Sub(now).Seconds()), 0)
}
