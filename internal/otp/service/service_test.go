package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aidgate/internal/otp/models"
	"aidgate/internal/otp/store"
	"aidgate/internal/platform/config"
	"aidgate/internal/sms"
	"aidgate/pkg/derrors"
	"aidgate/pkg/requestcontext"
)

// recordingSender captures dispatched messages. Sends happen on a background
// goroutine, so delivery is signalled through a channel.
type recordingSender struct {
	mu       sync.Mutex
	messages []string
	sent     chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(chan struct{}, 16)}
}

func (r *recordingSender) Send(ctx context.Context, phoneE164, text string) (*sms.Receipt, error) {
	r.mu.Lock()
	r.messages = append(r.messages, phoneE164+"|"+text)
	r.mu.Unlock()
	r.sent <- struct{}{}
	return &sms.Receipt{MessageID: "msg-1"}, nil
}

func (r *recordingSender) waitForSend(t *testing.T) string {
	t.Helper()
	select {
	case <-r.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sms dispatch")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[len(r.messages)-1]
}

// =============================================================================
// OTP Service Test Suite
// =============================================================================
// Justification for unit tests: codes are single-use security tokens. Tests
// verify the issue/verify round trip, single-use consumption, the attempt
// lockout, expiry, and purpose isolation.

type OTPServiceSuite struct {
	suite.Suite
	codes   *store.MemoryStore
	sender  *recordingSender
	service *Service
	now     time.Time
	ctx     context.Context
}

func TestOTPServiceSuite(t *testing.T) {
	suite.Run(t, new(OTPServiceSuite))
}

func (s *OTPServiceSuite) SetupTest() {
	s.codes = store.NewMemory()
	s.sender = newRecordingSender()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(s.codes, s.sender,
		WithLogger(logger),
		WithConfig(&config.OTP{
			TTL:         5 * time.Minute,
			MaxAttempts: 5,
		}),
		WithCountryCode("+970"),
	)
	s.Require().NoError(err)
	s.service = svc

	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

// issuedCode issues a code and reads its value back from the store.
func (s *OTPServiceSuite) issuedCode(purpose models.Purpose) string {
	_, err := s.service.Issue(s.ctx, "0590000001", purpose, "ben-1")
	s.Require().NoError(err)
	s.sender.waitForSend(s.T())

	record, err := s.codes.LatestActive(s.ctx, "+970590000001", purpose, s.now)
	s.Require().NoError(err)
	return record.Code
}

func (s *OTPServiceSuite) TestIssue() {
	s.Run("issues a six digit code and dispatches sms", func() {
		result, err := s.service.Issue(s.ctx, "0590000001", models.PurposeLogin, "ben-1")
		s.NoError(err)
		s.Equal(s.now.Add(5*time.Minute), result.ExpiresAt)

		message := s.sender.waitForSend(s.T())
		s.True(strings.HasPrefix(message, "+970590000001|"), "phone must be normalized: %s", message)

		record, err := s.codes.LatestActive(s.ctx, "+970590000001", models.PurposeLogin, s.now)
		s.Require().NoError(err)
		s.Len(record.Code, 6)
		s.Contains(message, record.Code)
		s.Contains(message, "login")
	})

	s.Run("invalid phone is rejected before any side effect", func() {
		_, err := s.service.Issue(s.ctx, "not-a-phone", models.PurposeLogin, "")
		s.Error(err)
		s.Equal(derrors.CodeValidation, derrors.CodeOf(err))
	})
}

func (s *OTPServiceSuite) TestVerify() {
	code := s.issuedCode(models.PurposeLogin)

	s.Run("correct code verifies once", func() {
		result, err := s.service.Verify(s.ctx, "0590000001", models.PurposeLogin, code)
		s.NoError(err)
		s.Equal(models.VerifyOK, result.Status)
		s.Equal("ben-1", result.BeneficiaryID)
	})

	s.Run("used code never verifies again", func() {
		result, err := s.service.Verify(s.ctx, "0590000001", models.PurposeLogin, code)
		s.NoError(err)
		s.Equal(models.VerifyNoCode, result.Status)
	})
}

func (s *OTPServiceSuite) TestVerifyWrongCode() {
	code := s.issuedCode(models.PurposeLogin)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	s.Run("wrong code reports remaining attempts", func() {
		result, err := s.service.Verify(s.ctx, "0590000001", models.PurposeLogin, wrong)
		s.NoError(err)
		s.Equal(models.VerifyWrongCode, result.Status)
		s.Equal(4, result.RemainingAttempts)
	})

	s.Run("attempt budget exhaustion locks the code", func() {
		for i := 0; i < 3; i++ {
			result, err := s.service.Verify(s.ctx, "0590000001", models.PurposeLogin, wrong)
			s.Require().NoError(err)
			s.Require().Equal(models.VerifyWrongCode, result.Status)
		}

		result, err := s.service.Verify(s.ctx, "0590000001", models.PurposeLogin, wrong)
		s.NoError(err)
		s.Equal(models.VerifyLocked, result.Status)
	})

	s.Run("locked code rejects even the correct value", func() {
		result, err := s.service.Verify(s.ctx, "0590000001", models.PurposeLogin, code)
		s.NoError(err)
		s.Equal(models.VerifyLocked, result.Status)
	})
}

func (s *OTPServiceSuite) TestVerifyExpiry() {
	code := s.issuedCode(models.PurposeLogin)

	s.Run("code verifies just inside the ttl", func() {
		almost := requestcontext.WithTime(context.Background(), s.now.Add(4*time.Minute+59*time.Second))
		result, err := s.service.Verify(almost, "0590000001", models.PurposeLogin, code)
		s.NoError(err)
		s.Equal(models.VerifyOK, result.Status)
	})
}

func (s *OTPServiceSuite) TestVerifyExpired() {
	code := s.issuedCode(models.PurposeLogin)

	later := requestcontext.WithTime(context.Background(), s.now.Add(5*time.Minute))
	result, err := s.service.Verify(later, "0590000001", models.PurposeLogin, code)
	s.NoError(err)
	s.Equal(models.VerifyNoCode, result.Status)
}

func (s *OTPServiceSuite) TestPurposeIsolation() {
	code := s.issuedCode(models.PurposeLogin)

	result, err := s.service.Verify(s.ctx, "0590000001", models.PurposeRegistration, code)
	s.NoError(err)
	s.Equal(models.VerifyNoCode, result.Status)
}

func (s *OTPServiceSuite) TestCleanupWorker() {
	s.issuedCode(models.PurposeLogin)

	deleted, err := s.codes.DeleteExpired(context.Background(), s.now.Add(10*time.Minute))
	s.NoError(err)
	s.Equal(1, deleted)

	_, err = s.codes.LatestActive(s.ctx, "+970590000001", models.PurposeLogin, s.now)
	s.Error(err)
}

func TestParsePurpose(t *testing.T) {
	valid := []string{"registration", "login", "password_reset", "phone_change", "data_update"}
	for _, raw := range valid {
		if _, err := models.ParsePurpose(raw); err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
	}
	if _, err := models.ParsePurpose("unlock"); err == nil {
		t.Fatal("expected unknown purpose to fail")
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("unexpected length: %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code: %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("codes do not vary")
	}
}
