// Package service implements the PIN disclosure state machine: create a PIN,
// verify it with lockout enforcement, and release the full beneficiary record
// only after a successful verification.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"

	"aidgate/internal/audit"
	"aidgate/internal/disclosure/metrics"
	"aidgate/internal/disclosure/models"
	"aidgate/internal/disclosure/ports"
	"aidgate/internal/platform/config"
	registry "aidgate/internal/registry/models"
	"aidgate/pkg/derrors"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/sentinel"
)

const pinLength = 6

// Type aliases for interfaces from ports package.
// This allows external packages to use these types without importing ports directly.
type (
	CredentialStore = ports.CredentialStore
	Directory       = ports.Directory
)

// ResultCache is the slice of the lookup cache this service needs: creating
// a PIN flips the has_pin flag inside cached search results, so the stale
// entries must be purged for the beneficiary's national ID.
type ResultCache interface {
	Invalidate(ctx context.Context, nationalID string) error
}

// Service owns PIN credential transitions. The lockout threshold is enforced
// with atomic store operations so concurrent wrong-PIN attempts cannot slip
// past it, and a locked credential rejects even the correct PIN.
type Service struct {
	credentials CredentialStore
	directory   Directory
	cache       ResultCache
	tokens      *TokenIssuer
	logger      *slog.Logger
	config      *config.Pin
	metrics     *metrics.Metrics
	publisher   audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.Pin) Option {
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

func WithTokenIssuer(t *TokenIssuer) Option {
	return func(s *Service) {
		s.tokens = t
	}
}

func WithResultCache(cache ResultCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func New(credentials CredentialStore, directory Directory, opts ...Option) (*Service, error) {
	if credentials == nil {
		return nil, errors.New("credential store is required")
	}
	if directory == nil {
		return nil, errors.New("directory is required")
	}

	svc := &Service{
		credentials: credentials,
		directory:   directory,
		config: &config.Pin{
			MaxAttempts:  5,
			LockDuration: 30 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// HasPin reports whether the beneficiary has a credential on file.
func (s *Service) HasPin(ctx context.Context, beneficiaryID string) (bool, error) {
	_, err := s.credentials.Get(ctx, beneficiaryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreatePin sets up a credential for the beneficiary behind the national ID.
// An existing credential is never overwritten; PIN changes go through a
// verified session, not this path.
func (s *Service) CreatePin(ctx context.Context, nationalID, pin string) (*models.CreateResult, error) {
	if err := validatePin(pin); err != nil {
		return nil, err
	}

	beneficiary, _, err := s.directory.SearchByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "no beneficiary matches this national ID")
		}
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "beneficiary registry unavailable")
	}

	hash, salt, err := hashPin(pin)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to hash pin")
	}

	now := requestcontext.Now(ctx)
	err = s.credentials.Create(ctx, &models.PinCredential{
		BeneficiaryID: beneficiary.ID,
		Hash:          hash,
		Salt:          salt,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return &models.CreateResult{Status: models.CreateExists}, nil
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to store pin credential")
	}

	// Cached search results embed has_pin, so they are stale the moment the
	// credential exists. Invalidation failure is logged, not returned: the
	// entry expires within the cache TTL and the credential is already stored.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, beneficiary.NationalID); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "result cache invalidation failed",
				"beneficiary_id", beneficiary.ID, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordPinCreated()
	}
	s.audit(ctx, audit.ActionPinCreated, beneficiary.ID, audit.OutcomeSuccess, "")
	return &models.CreateResult{Status: models.CreateOK}, nil
}

// VerifyPin runs one verification attempt. The lock check happens before the
// hash comparison, so a locked credential rejects even the correct PIN.
func (s *Service) VerifyPin(ctx context.Context, nationalID, pin string) (*models.VerifyResult, error) {
	if err := validatePin(pin); err != nil {
		return nil, err
	}

	beneficiary, packages, err := s.directory.SearchByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "no beneficiary matches this national ID")
		}
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "beneficiary registry unavailable")
	}

	credential, err := s.credentials.Get(ctx, beneficiary.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordVerification(string(models.VerifyNoPin))
			return &models.VerifyResult{Status: models.VerifyNoPin}, nil
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load pin credential")
	}

	now := requestcontext.Now(ctx)
	if credential.IsLockedAt(now) {
		s.recordVerification(string(models.VerifyAccountLocked))
		s.audit(ctx, audit.ActionPinVerified, beneficiary.ID, audit.OutcomeDenied, "account_locked")
		return &models.VerifyResult{
			Status:      models.VerifyAccountLocked,
			LockedUntil: credential.LockedUntil,
		}, nil
	}

	ok, err := verifyPin(pin, credential.Salt, credential.Hash)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to verify pin")
	}
	if !ok {
		return s.handleFailure(ctx, beneficiary.ID, now)
	}

	if err := s.credentials.ClearFailures(ctx, beneficiary.ID, now); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to clear pin failures",
			"beneficiary_id", beneficiary.ID, "error", err)
	}

	result := &models.VerifyResult{
		Status:     models.VerifyOK,
		Disclosure: s.disclose(beneficiary, packages),
	}
	if s.tokens != nil {
		token, err := s.tokens.Issue(beneficiary.ID, beneficiary.NationalID, now)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to issue disclosure token")
		}
		result.Token = token
	}

	s.recordVerification(string(models.VerifyOK))
	s.audit(ctx, audit.ActionPinVerified, beneficiary.ID, audit.OutcomeSuccess, "")
	return result, nil
}

// Redeem exchanges a still-valid disclosure token for the full record without
// re-entering the PIN.
func (s *Service) Redeem(ctx context.Context, token string) (*models.FullDisclosure, error) {
	if s.tokens == nil {
		return nil, derrors.New(derrors.CodeUnauthorized, "disclosure tokens are not enabled")
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	beneficiary, packages, err := s.directory.SearchByNationalID(ctx, claims.NationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "no beneficiary matches this token")
		}
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "beneficiary registry unavailable")
	}
	if beneficiary.ID != claims.BeneficiaryID {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}

	if s.metrics != nil {
		s.metrics.RecordTokenRedeemed()
	}
	return s.disclose(beneficiary, packages), nil
}

func (s *Service) handleFailure(ctx context.Context, beneficiaryID string, now time.Time) (*models.VerifyResult, error) {
	updated, err := s.credentials.RecordFailureAtomic(ctx, beneficiaryID, now)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to record pin failure")
	}

	if updated.FailedAttempts >= s.config.MaxAttempts {
		lockedUntil := now.Add(s.config.LockDuration)
		applied, err := s.credentials.ApplyLockAtomic(ctx, beneficiaryID, lockedUntil, s.config.MaxAttempts)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to apply pin lock")
		}
		if applied {
			if s.logger != nil {
				s.logger.InfoContext(ctx, "pin credential locked",
					"beneficiary_id", beneficiaryID,
					"failed_attempts", updated.FailedAttempts,
					"locked_until", lockedUntil,
				)
			}
			if s.metrics != nil {
				s.metrics.RecordLockout()
			}
			s.audit(ctx, audit.ActionPinLocked, beneficiaryID, audit.OutcomeDenied, "attempts_exhausted")
		}
		s.recordVerification(string(models.VerifyAccountLocked))
		return &models.VerifyResult{
			Status:      models.VerifyAccountLocked,
			LockedUntil: &lockedUntil,
		}, nil
	}

	s.recordVerification(string(models.VerifyWrongPin))
	s.audit(ctx, audit.ActionPinVerified, beneficiaryID, audit.OutcomeDenied, "wrong_pin")
	return &models.VerifyResult{
		Status:            models.VerifyWrongPin,
		RemainingAttempts: updated.RemainingAttempts(s.config.MaxAttempts),
	}, nil
}

func (s *Service) disclose(beneficiary *registry.Beneficiary, packages []registry.Package) *models.FullDisclosure {
	return &models.FullDisclosure{
		Beneficiary: *beneficiary,
		Packages:    packages,
		Stats:       registry.ComputeStats(packages),
	}
}

func (s *Service) recordVerification(status string) {
	if s.metrics != nil {
		s.metrics.RecordVerification(status)
	}
}

func (s *Service) audit(ctx context.Context, action audit.Action, beneficiaryID, outcome, reason string) {
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action:        action,
		Subject:       beneficiaryID,
		SourceAddress: requestcontext.SourceAddress(ctx),
		Outcome:       outcome,
		Reason:        reason,
	})
}

func validatePin(pin string) error {
	if len(pin) != pinLength || !govalidator.IsNumeric(pin) {
		return derrors.New(derrors.CodeValidation, "pin must be exactly 6 digits")
	}
	return nil
}
