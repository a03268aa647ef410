package service

import (
	"context"
	"errors"
	"log/slog"

	"aidgate/internal/audit"
	"aidgate/internal/registry"
	"aidgate/internal/registry/models"
	"aidgate/pkg/derrors"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/sentinel"
)

// ResultCache is the slice of the lookup cache this service needs: any write
// to a beneficiary row must purge cached search results for its national ID.
type ResultCache interface {
	Invalidate(ctx context.Context, nationalID string) error
}

// Service wraps the registry write path so cache invalidation and audit are
// never forgotten by a caller.
type Service struct {
	directory      registry.Directory
	cache          ResultCache
	auditPublisher audit.Publisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(directory registry.Directory, cache ResultCache, opts ...Option) (*Service, error) {
	if directory == nil {
		return nil, errors.New("directory is required")
	}
	if cache == nil {
		return nil, errors.New("result cache is required")
	}

	svc := &Service{directory: directory, cache: cache}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Update applies a partial beneficiary update and purges the stale search
// results. Invalidation failure is logged, not returned: the entry expires
// within the cache TTL anyway and the write already succeeded.
func (s *Service) Update(ctx context.Context, beneficiaryID string, fields models.UpdateFields) (*models.Beneficiary, error) {
	updated, err := s.directory.UpdateBeneficiary(ctx, beneficiaryID, fields)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "beneficiary not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "update beneficiary")
	}

	if err := s.cache.Invalidate(ctx, updated.NationalID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "result cache invalidation failed",
			"beneficiary_id", updated.ID, "error", err)
	}

	audit.Log(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:        audit.ActionBeneficiaryUpdated,
		Subject:       updated.ID,
		SourceAddress: requestcontext.SourceAddress(ctx),
		Outcome:       audit.OutcomeSuccess,
	})

	return updated, nil
}
