package service

//go:generate mockgen -source=../ports/ports.go -destination=../ports/mocks/mocks.go -package=mocks Limiter,Directory,CredentialChecker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aidgate/internal/lookup/cache"
	"aidgate/internal/lookup/models"
	"aidgate/internal/lookup/ports/mocks"
	ratelimit "aidgate/internal/ratelimit/models"
	registry "aidgate/internal/registry/models"
	"aidgate/pkg/derrors"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/sentinel"
)

// =============================================================================
// Search Gateway Test Suite
// =============================================================================
// Justification for unit tests: The gateway is the public anti-enumeration
// boundary. Tests verify that validation short-circuits all side effects,
// that the minimal projection never leaks sensitive fields, and that the
// cache and limiter are consulted in the right order.

type SearchServiceSuite struct {
	suite.Suite
	ctrl            *gomock.Controller
	mockLimiter     *mocks.MockLimiter
	mockDirectory   *mocks.MockDirectory
	mockCredentials *mocks.MockCredentialChecker
	cache           *cache.InMemoryCache
	service         *Service
	now             time.Time
	ctx             context.Context
}

func TestSearchServiceSuite(t *testing.T) {
	suite.Run(t, new(SearchServiceSuite))
}

func (s *SearchServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockLimiter = mocks.NewMockLimiter(s.ctrl)
	s.mockDirectory = mocks.NewMockDirectory(s.ctrl)
	s.mockCredentials = mocks.NewMockCredentialChecker(s.ctrl)
	s.cache = cache.NewInMemoryCache(5 * time.Minute)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(s.mockLimiter, s.mockDirectory, s.mockCredentials, s.cache, WithLogger(logger))
	s.Require().NoError(err)
	s.service = svc

	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *SearchServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SearchServiceSuite) query() models.Query {
	return models.Query{
		NationalID:    "123456789",
		SourceAddress: "203.0.113.7",
		Page:          1,
		PageSize:      20,
	}
}

func (s *SearchServiceSuite) beneficiary() *registry.Beneficiary {
	return &registry.Beneficiary{
		ID:           "ben-1",
		NationalID:   "123456789",
		Name:         "Amal Haddad",
		Status:       registry.BeneficiaryActive,
		Phone:        "+970590000001",
		Address:      "12 Harbor Street",
		MedicalNotes: "allergy: penicillin",
	}
}

func (s *SearchServiceSuite) allowed() *ratelimit.Decision {
	return &ratelimit.Decision{
		Allowed:         true,
		HourlyRemaining: 9,
		DailyRemaining:  49,
		AttemptID:       "attempt-1",
	}
}

// =============================================================================
// Constructor Tests (Invariant Enforcement)
// =============================================================================

func (s *SearchServiceSuite) TestNew() {
	s.Run("nil limiter returns error", func() {
		_, err := New(nil, s.mockDirectory, s.mockCredentials, s.cache)
		s.Error(err)
		s.Contains(err.Error(), "limiter is required")
	})

	s.Run("nil directory returns error", func() {
		_, err := New(s.mockLimiter, nil, s.mockCredentials, s.cache)
		s.Error(err)
		s.Contains(err.Error(), "directory is required")
	})

	s.Run("nil credential checker returns error", func() {
		_, err := New(s.mockLimiter, s.mockDirectory, nil, s.cache)
		s.Error(err)
		s.Contains(err.Error(), "credential checker is required")
	})

	s.Run("nil cache returns error", func() {
		_, err := New(s.mockLimiter, s.mockDirectory, s.mockCredentials, nil)
		s.Error(err)
		s.Contains(err.Error(), "result cache is required")
	})
}

// =============================================================================
// Validation Tests
// =============================================================================
// Justification: a malformed identifier must be rejected before any
// collaborator is touched. The mocks have no expectations set, so any call
// fails the test.

func (s *SearchServiceSuite) TestSearchValidation() {
	cases := []struct {
		name       string
		nationalID string
	}{
		{"empty", ""},
		{"too short", "12345678"},
		{"too long", "1234567890"},
		{"non numeric", "12345678a"},
		{"spaces", "123 45678"},
		{"negative with sign", "-12345678"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			query := s.query()
			query.NationalID = tc.nationalID

			outcome, err := s.service.Search(s.ctx, query)

			s.Nil(outcome)
			s.Error(err)
			s.Equal(derrors.CodeValidation, derrors.CodeOf(err))
		})
	}
}

// =============================================================================
// Rate Limit Denial Tests
// =============================================================================

func (s *SearchServiceSuite) TestSearchDenied() {
	s.Run("rate limited search returns denial without touching the directory", func() {
		until := s.now.Add(time.Hour)
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "123456789").
			Return(&ratelimit.Decision{
				Allowed:      false,
				Reason:       ratelimit.ReasonRateLimited,
				BlockedUntil: &until,
				RetryAfter:   3600,
			}, nil)

		outcome, err := s.service.Search(s.ctx, s.query())

		s.NoError(err)
		s.Nil(outcome.Result)
		s.Require().NotNil(outcome.Denial)
		s.Equal(ratelimit.ReasonRateLimited, outcome.Denial.Reason)
		s.Equal(3600, outcome.Denial.RetryAfter)
	})

	s.Run("blocked source gets the block message", func() {
		until := s.now.Add(30 * time.Minute)
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "123456789").
			Return(&ratelimit.Decision{
				Allowed:      false,
				Reason:       ratelimit.ReasonBlocked,
				BlockedUntil: &until,
				RetryAfter:   1800,
			}, nil)

		outcome, err := s.service.Search(s.ctx, s.query())

		s.NoError(err)
		s.Require().NotNil(outcome.Denial)
		s.Equal(ratelimit.ReasonBlocked, outcome.Denial.Reason)
		s.Contains(outcome.Denial.Message, "blocked")
	})

	s.Run("limiter failure surfaces as internal error", func() {
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "123456789").
			Return(nil, errors.New("store down"))

		outcome, err := s.service.Search(s.ctx, s.query())

		s.Nil(outcome)
		s.Error(err)
		s.Equal(derrors.CodeInternal, derrors.CodeOf(err))
	})
}

// =============================================================================
// Projection Tests
// =============================================================================

func (s *SearchServiceSuite) TestSearchProjection() {
	s.Run("found record projects to minimal result", func() {
		scheduled := s.now.Add(48 * time.Hour)
		packages := []registry.Package{
			{ID: "pkg-1", Name: "Food parcel", Status: registry.PackageDelivered},
			{ID: "pkg-2", Name: "Hygiene kit", Status: registry.PackageInDelivery, TrackingNumber: "TRK-22", ScheduledDate: &scheduled},
			{ID: "pkg-3", Name: "Winter kit", Status: registry.PackageInDelivery, TrackingNumber: "TRK-23"},
		}
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "123456789").
			Return(s.allowed(), nil)
		s.mockDirectory.EXPECT().
			SearchByNationalID(gomock.Any(), "123456789").
			Return(s.beneficiary(), packages, nil)
		s.mockCredentials.EXPECT().
			HasPin(gomock.Any(), "ben-1").
			Return(true, nil)
		s.mockLimiter.EXPECT().
			MarkFound(gomock.Any(), "attempt-1").
			Return(nil)

		outcome, err := s.service.Search(s.ctx, s.query())

		s.NoError(err)
		s.Require().NotNil(outcome.Result)
		result := outcome.Result
		s.Equal("ben-1", result.BeneficiaryID)
		s.Equal("Amal Haddad", result.Name)
		s.Equal(registry.BeneficiaryActive, result.Status)
		s.True(result.HasPin)

		// Only the first in-delivery package is surfaced.
		s.Require().NotNil(result.InDelivery)
		s.Equal("Hygiene kit", result.InDelivery.Name)
		s.Equal("TRK-22", result.InDelivery.TrackingNumber)
	})

	s.Run("no in-delivery package yields nil summary", func() {
		packages := []registry.Package{
			{ID: "pkg-1", Name: "Food parcel", Status: registry.PackageDelivered},
			{ID: "pkg-2", Name: "Hygiene kit", Status: registry.PackagePending},
		}
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "123456789").
			Return(s.allowed(), nil)
		s.mockDirectory.EXPECT().
			SearchByNationalID(gomock.Any(), "123456789").
			Return(s.beneficiary(), packages, nil)
		s.mockCredentials.EXPECT().
			HasPin(gomock.Any(), "ben-1").
			Return(false, nil)
		s.mockLimiter.EXPECT().
			MarkFound(gomock.Any(), "attempt-1").
			Return(nil)

		outcome, err := s.service.Search(s.ctx, s.query())

		s.NoError(err)
		s.Require().NotNil(outcome.Result)
		s.Nil(outcome.Result.InDelivery)
		s.False(outcome.Result.HasPin)
	})

	s.Run("credential store outage degrades to has_pin false", func() {
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "123456789").
			Return(s.allowed(), nil)
		s.mockDirectory.EXPECT().
			SearchByNationalID(gomock.Any(), "123456789").
			Return(s.beneficiary(), nil, nil)
		s.mockCredentials.EXPECT().
			HasPin(gomock.Any(), "ben-1").
			Return(false, errors.New("store down"))
		s.mockLimiter.EXPECT().
			MarkFound(gomock.Any(), "attempt-1").
			Return(nil)

		outcome, err := s.service.Search(s.ctx, s.query())

		s.NoError(err)
		s.Require().NotNil(outcome.Result)
		s.False(outcome.Result.HasPin)
	})

	s.Run("missing record maps to not found", func() {
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "123456789").
			Return(s.allowed(), nil)
		s.mockDirectory.EXPECT().
			SearchByNationalID(gomock.Any(), "123456789").
			Return(nil, nil, sentinel.ErrNotFound)

		outcome, err := s.service.Search(s.ctx, s.query())

		s.Nil(outcome)
		s.Error(err)
		s.Equal(derrors.CodeNotFound, derrors.CodeOf(err))
	})

	s.Run("registry outage maps to upstream unavailable", func() {
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "123456789").
			Return(s.allowed(), nil)
		s.mockDirectory.EXPECT().
			SearchByNationalID(gomock.Any(), "123456789").
			Return(nil, nil, errors.New("connection refused"))

		outcome, err := s.service.Search(s.ctx, s.query())

		s.Nil(outcome)
		s.Error(err)
		s.Equal(derrors.CodeUnavailable, derrors.CodeOf(err))
	})
}

// =============================================================================
// Cache Tests
// =============================================================================

// Each subtest uses its own national ID because the cache is shared across
// subtests within one test method.
func (s *SearchServiceSuite) TestSearchCaching() {
	record := func(nationalID, beneficiaryID string) (*registry.Beneficiary, models.Query) {
		b := s.beneficiary()
		b.ID = beneficiaryID
		b.NationalID = nationalID
		q := s.query()
		q.NationalID = nationalID
		return b, q
	}

	s.Run("second search within TTL skips the directory", func() {
		b, query := record("111111111", "ben-a")
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "111111111").
			Return(s.allowed(), nil).
			Times(2)
		s.mockDirectory.EXPECT().
			SearchByNationalID(gomock.Any(), "111111111").
			Return(b, nil, nil).
			Times(1)
		s.mockCredentials.EXPECT().
			HasPin(gomock.Any(), "ben-a").
			Return(false, nil).
			Times(1)
		s.mockLimiter.EXPECT().
			MarkFound(gomock.Any(), "attempt-1").
			Return(nil).
			Times(2)

		first, err := s.service.Search(s.ctx, query)
		s.NoError(err)

		later := requestcontext.WithTime(context.Background(), s.now.Add(4*time.Minute+59*time.Second))
		second, err := s.service.Search(later, query)
		s.NoError(err)
		s.Equal(first.Result, second.Result)
	})

	s.Run("expired entry goes back to the directory", func() {
		b, query := record("222222222", "ben-b")
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "222222222").
			Return(s.allowed(), nil).
			Times(2)
		s.mockDirectory.EXPECT().
			SearchByNationalID(gomock.Any(), "222222222").
			Return(b, nil, nil).
			Times(2)
		s.mockCredentials.EXPECT().
			HasPin(gomock.Any(), "ben-b").
			Return(false, nil).
			Times(2)
		s.mockLimiter.EXPECT().
			MarkFound(gomock.Any(), "attempt-1").
			Return(nil).
			Times(2)

		_, err := s.service.Search(s.ctx, query)
		s.NoError(err)

		later := requestcontext.WithTime(context.Background(), s.now.Add(5*time.Minute+time.Second))
		_, err = s.service.Search(later, query)
		s.NoError(err)
	})

	s.Run("different page misses the cache", func() {
		b, query := record("333333333", "ben-c")
		s.mockLimiter.EXPECT().
			CheckAndRecord(gomock.Any(), "203.0.113.7", "333333333").
			Return(s.allowed(), nil).
			Times(2)
		s.mockDirectory.EXPECT().
			SearchByNationalID(gomock.Any(), "333333333").
			Return(b, nil, nil).
			Times(2)
		s.mockCredentials.EXPECT().
			HasPin(gomock.Any(), "ben-c").
			Return(false, nil).
			Times(2)
		s.mockLimiter.EXPECT().
			MarkFound(gomock.Any(), "attempt-1").
			Return(nil).
			Times(2)

		_, err := s.service.Search(s.ctx, query)
		s.NoError(err)

		query.Page = 2
		_, err = s.service.Search(s.ctx, query)
		s.NoError(err)
	})
}

// =============================================================================
// Masking Tests
// =============================================================================

func TestMaskNationalID(t *testing.T) {
	if got := models.MaskNationalID("123456789"); got != "******789" {
		t.Fatalf("unexpected mask: %s", got)
	}
	if got := models.MaskNationalID("12"); got != "***" {
		t.Fatalf("unexpected short mask: %s", got)
	}
}
