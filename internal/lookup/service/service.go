// Package service implements the public search gateway: validate the
// identifier, consult the rate limiter, serve from cache when possible, and
// project the registry record down to the minimal pre-disclosure result.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/asaskevich/govalidator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"aidgate/internal/audit"
	"aidgate/internal/lookup/cache"
	"aidgate/internal/lookup/metrics"
	"aidgate/internal/lookup/models"
	"aidgate/internal/lookup/ports"
	"aidgate/internal/platform/config"
	ratelimit "aidgate/internal/ratelimit/models"
	registry "aidgate/internal/registry/models"
	"aidgate/pkg/derrors"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/sentinel"
)

const nationalIDLength = 9

// Type aliases for interfaces from ports package.
// This allows external packages to use these types without importing ports directly.
type (
	Limiter           = ports.Limiter
	Directory         = ports.Directory
	CredentialChecker = ports.CredentialChecker
)

// Service is the search gateway. Validation happens before any side effect:
// a malformed identifier never touches the limiter, the cache, or the
// registry, and never produces an attempt record.
type Service struct {
	limiter     Limiter
	directory   Directory
	credentials CredentialChecker
	cache       cache.Cache
	logger      *slog.Logger
	config      *config.Search
	metrics     *metrics.Metrics
	publisher   audit.Publisher
	tracer      trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.Search) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(limiter Limiter, directory Directory, credentials CredentialChecker, resultCache cache.Cache, opts ...Option) (*Service, error) {
	if limiter == nil {
		return nil, errors.New("limiter is required")
	}
	if directory == nil {
		return nil, errors.New("directory is required")
	}
	if credentials == nil {
		return nil, errors.New("credential checker is required")
	}
	if resultCache == nil {
		return nil, errors.New("result cache is required")
	}

	svc := &Service{
		limiter:     limiter,
		directory:   directory,
		credentials: credentials,
		cache:       resultCache,
		config:      &config.Search{PageSize: 20},
		tracer:      otel.Tracer("aidgate/lookup"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Search runs one public lookup. Denials from the limiter come back as an
// Outcome, not an error; a missing record is derrors.CodeNotFound.
func (s *Service) Search(ctx context.Context, query models.Query) (*models.Outcome, error) {
	if err := validateNationalID(query.NationalID); err != nil {
		return nil, err
	}
	normalizeQuery(&query, s.config.PageSize)

	masked := models.MaskNationalID(query.NationalID)
	ctx, span := s.tracer.Start(ctx, "lookup.search",
		trace.WithAttributes(
			attribute.String("search.identifier", masked),
			attribute.Int("search.page", query.Page),
		))
	defer span.End()

	start := requestcontext.Now(ctx)
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveLatency(requestcontext.Now(ctx).Sub(start).Seconds())
		}
	}()

	decision, err := s.limiter.CheckAndRecord(ctx, query.SourceAddress, query.NationalID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "rate limiter failed")
	}
	if !decision.Allowed {
		span.SetAttributes(attribute.String("search.denied", string(decision.Reason)))
		s.recordSearch(string(decision.Reason))
		s.auditSearch(ctx, masked, query.SourceAddress, audit.OutcomeDenied, string(decision.Reason))
		return &models.Outcome{Denial: denialFor(decision)}, nil
	}

	key := cache.Key(query.NationalID, query.Page, query.PageSize)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "result cache read failed", "error", err)
		}
	} else if ok {
		span.SetAttributes(attribute.Bool("search.cache_hit", true))
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		s.recordSearch("found")
		s.markFound(ctx, decision.AttemptID)
		s.auditSearch(ctx, masked, query.SourceAddress, audit.OutcomeSuccess, "")
		return &models.Outcome{Result: cached}, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}

	beneficiary, packages, err := s.directory.SearchByNationalID(ctx, query.NationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordSearch("not_found")
			s.auditSearch(ctx, masked, query.SourceAddress, audit.OutcomeSuccess, "not_found")
			return nil, derrors.New(derrors.CodeNotFound, "no beneficiary matches this national ID")
		}
		s.recordSearch("error")
		s.auditSearch(ctx, masked, query.SourceAddress, audit.OutcomeFailure, "registry_unavailable")
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "beneficiary registry unavailable")
	}

	result := s.project(ctx, beneficiary, packages)
	if err := s.cache.Set(ctx, key, result); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "result cache write failed", "error", err)
	}
	s.markFound(ctx, decision.AttemptID)

	span.SetAttributes(attribute.Bool("search.found", true))
	s.recordSearch("found")
	s.auditSearch(ctx, masked, query.SourceAddress, audit.OutcomeSuccess, "")
	return &models.Outcome{Result: result}, nil
}

// project reduces the registry record to the public minimal shape. At most
// one in-delivery package is surfaced; everything else stays behind PIN
// verification.
func (s *Service) project(ctx context.Context, beneficiary *registry.Beneficiary, packages []registry.Package) *models.MinimalResult {
	result := &models.MinimalResult{
		BeneficiaryID: beneficiary.ID,
		Name:          beneficiary.Name,
		NationalID:    beneficiary.NationalID,
		Status:        beneficiary.Status,
	}

	for _, p := range packages {
		if p.Status == registry.PackageInDelivery {
			result.InDelivery = &models.PackageSummary{
				Name:           p.Name,
				Status:         string(p.Status),
				TrackingNumber: p.TrackingNumber,
				ScheduledDate:  p.ScheduledDate,
			}
			break
		}
	}

	hasPin, err := s.credentials.HasPin(ctx, beneficiary.ID)
	if err != nil {
		// The flag only drives which prompt the caller shows next, so a
		// credential store outage degrades to "no pin" rather than failing
		// the whole search.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "credential check failed, reporting no pin",
				"beneficiary_id", beneficiary.ID, "error", err)
		}
		return result
	}
	result.HasPin = hasPin
	return result
}

func (s *Service) markFound(ctx context.Context, attemptID string) {
	if err := s.limiter.MarkFound(ctx, attemptID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to mark attempt found",
			"attempt_id", attemptID, "error", err)
	}
}

func (s *Service) recordSearch(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSearch(outcome)
	}
}

func (s *Service) auditSearch(ctx context.Context, subject, source, outcome, reason string) {
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action:        audit.ActionSearchPerformed,
		Subject:       subject,
		SourceAddress: source,
		Outcome:       outcome,
		Reason:        reason,
	})
}

func validateNationalID(nationalID string) error {
	if len(nationalID) != nationalIDLength || !govalidator.IsNumeric(nationalID) {
		return derrors.New(derrors.CodeValidation, "national ID must be exactly 9 digits")
	}
	return nil
}

func normalizeQuery(query *models.Query, defaultPageSize int) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = defaultPageSize
	}
}

func denialFor(decision *ratelimit.Decision) *models.Denial {
	denial := &models.Denial{
		Reason:       decision.Reason,
		BlockedUntil: decision.BlockedUntil,
		RetryAfter:   decision.RetryAfter,
	}
	switch decision.Reason {
	case ratelimit.ReasonBlocked:
		denial.Message = "this address is temporarily blocked, try again later"
	default:
		denial.Message = "search limit reached, try again later"
	}
	return denial
}
