// Package service implements the one-time code lifecycle: issue a code over
// SMS, verify it once, and lock the code after too many wrong guesses.
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"aidgate/internal/audit"
	"aidgate/internal/otp/metrics"
	"aidgate/internal/otp/models"
	"aidgate/internal/otp/ports"
	"aidgate/internal/platform/config"
	"aidgate/internal/sms"
	"aidgate/pkg/derrors"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/sentinel"
)

const codeLength = 6

// Type aliases for interfaces from ports package.
type CodeStore = ports.CodeStore

// Service issues and verifies one-time codes. SMS dispatch never blocks the
// issuing request: the code is durable in the store before the send starts,
// and a failed send is logged and counted, not returned.
type Service struct {
	codes       CodeStore
	sender      sms.Sender
	logger      *slog.Logger
	config      *config.OTP
	countryCode string
	metrics     *metrics.Metrics
	publisher   audit.Publisher
	sendTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.OTP) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithCountryCode(code string) Option {
	return func(s *Service) {
		s.countryCode = code
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

func New(codes CodeStore, sender sms.Sender, opts ...Option) (*Service, error) {
	if codes == nil {
		return nil, errors.New("code store is required")
	}
	if sender == nil {
		return nil, errors.New("sms sender is required")
	}

	svc := &Service{
		codes:  codes,
		sender: sender,
		config: &config.OTP{
			TTL:         5 * time.Minute,
			MaxAttempts: 5,
		},
		countryCode: "+970",
		sendTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue generates a fresh code for the phone and purpose, persists it, and
// dispatches the SMS in the background. beneficiaryID may be empty for
// flows, like registration, that have no record yet. The code value never
// appears in the result, the logs, or the audit trail.
func (s *Service) Issue(ctx context.Context, rawPhone string, purpose models.Purpose, beneficiaryID string) (*models.IssueResult, error) {
	phone, err := sms.NormalizePhone(rawPhone, s.countryCode)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to generate code")
	}

	now := requestcontext.Now(ctx)
	record := &models.Code{
		Phone:         phone,
		Purpose:       purpose,
		Code:          code,
		BeneficiaryID: beneficiaryID,
		ExpiresAt:     now.Add(s.config.TTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, err := s.codes.Create(ctx, record)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to store code")
	}

	s.dispatch(ctx, phone, purpose, code)

	if s.metrics != nil {
		s.metrics.RecordIssued(string(purpose))
	}
	s.audit(ctx, audit.ActionOTPIssued, phone, audit.OutcomeSuccess, string(purpose))
	return &models.IssueResult{ID: id, ExpiresAt: record.ExpiresAt}, nil
}

// Verify checks a submitted code against the newest active one. Used and
// expired codes never match because LatestActive excludes them; a code past
// its attempt budget is locked even when the guess is right.
func (s *Service) Verify(ctx context.Context, rawPhone string, purpose models.Purpose, submitted string) (*models.VerifyResult, error) {
	phone, err := sms.NormalizePhone(rawPhone, s.countryCode)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	record, err := s.codes.LatestActive(ctx, phone, purpose, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordVerification(string(models.VerifyNoCode))
			return &models.VerifyResult{Status: models.VerifyNoCode}, nil
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load code")
	}

	if record.Attempts >= s.config.MaxAttempts {
		s.recordVerification(string(models.VerifyLocked))
		s.audit(ctx, audit.ActionOTPLocked, phone, audit.OutcomeDenied, string(purpose))
		return &models.VerifyResult{Status: models.VerifyLocked}, nil
	}

	attempts, err := s.codes.IncrementAttempts(ctx, record.ID, now)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to record attempt")
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(submitted)) != 1 {
		if attempts >= s.config.MaxAttempts {
			s.recordVerification(string(models.VerifyLocked))
			s.audit(ctx, audit.ActionOTPLocked, phone, audit.OutcomeDenied, string(purpose))
			return &models.VerifyResult{Status: models.VerifyLocked}, nil
		}
		s.recordVerification(string(models.VerifyWrongCode))
		s.audit(ctx, audit.ActionOTPVerified, phone, audit.OutcomeDenied, "wrong_code")
		return &models.VerifyResult{
			Status:            models.VerifyWrongCode,
			RemainingAttempts: s.config.MaxAttempts - attempts,
		}, nil
	}

	if err := s.codes.MarkUsed(ctx, record.ID, now); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to consume code")
	}

	s.recordVerification(string(models.VerifyOK))
	s.audit(ctx, audit.ActionOTPVerified, phone, audit.OutcomeSuccess, string(purpose))
	return &models.VerifyResult{Status: models.VerifyOK, BeneficiaryID: record.BeneficiaryID}, nil
}

// dispatch sends the SMS on a detached context so a slow gateway never holds
// up the issuing request.
func (s *Service) dispatch(ctx context.Context, phone string, purpose models.Purpose, code string) {
	minutes := int(s.config.TTL.Minutes())
	text := messageFor(purpose, code, minutes)

	sendCtx := context.WithoutCancel(ctx)
	go func() {
		sendCtx, cancel := context.WithTimeout(sendCtx, s.sendTimeout)
		defer cancel()

		if _, err := s.sender.Send(sendCtx, phone, text); err != nil {
			if s.logger != nil {
				s.logger.WarnContext(sendCtx, "sms dispatch failed",
					"purpose", purpose, "error", err)
			}
			if s.metrics != nil {
				s.metrics.RecordSendFailure()
			}
		}
	}()
}

func (s *Service) recordVerification(status string) {
	if s.metrics != nil {
		s.metrics.RecordVerification(status)
	}
}

func (s *Service) audit(ctx context.Context, action audit.Action, phone, outcome, reason string) {
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action:        action,
		Subject:       maskPhone(phone),
		SourceAddress: requestcontext.SourceAddress(ctx),
		Outcome:       outcome,
		Reason:        reason,
	})
}

// generateCode draws a uniform 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()), nil
}

// maskPhone hides all but the last three digits.
func maskPhone(phone string) string {
	if len(phone) <= 3 {
		return "***"
	}
	masked := make([]byte, len(phone)-3)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + phone[len(phone)-3:]
}
