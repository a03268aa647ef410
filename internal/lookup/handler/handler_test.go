package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aidgate/internal/lookup/handler/mocks"
	"aidgate/internal/lookup/models"
	ratelimit "aidgate/internal/ratelimit/models"
	"aidgate/pkg/derrors"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/lookup-mocks.go -package=mocks Service
type LookupHandlerSuite struct {
	suite.Suite
}

func TestLookupHandlerSuite(t *testing.T) {
	suite.Run(t, new(LookupHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger, nil).Register(r)
	return r, mockService
}

func (s *LookupHandlerSuite) TestHandleSearchFound() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().
		Search(gomock.Any(), models.Query{NationalID: "123456789", SourceAddress: "203.0.113.7", Page: 1, PageSize: 20}).
		Return(&models.Outcome{Result: &models.MinimalResult{
			BeneficiaryID: "ben-1",
			Name:          "Amal Haddad",
			NationalID:    "123456789",
			Status:        "active",
			HasPin:        true,
		}}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/search", map[string]any{
		"national_id": "123456789",
		"page":        1,
		"page_size":   20,
	})
	req = req.WithContext(requestcontext.WithSourceAddress(req.Context(), "203.0.113.7"))

	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusOK, rr.Code)
	got := testutil.UnmarshalResponse[models.MinimalResult](s.T(), rr)
	s.Equal("ben-1", got.BeneficiaryID)
	s.True(got.HasPin)
}

func (s *LookupHandlerSuite) TestHandleSearchDenied() {
	router, mockService := newTestRouter(s.T())
	blockedUntil := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	mockService.EXPECT().
		Search(gomock.Any(), gomock.Any()).
		Return(&models.Outcome{Denial: &models.Denial{
			Reason:       ratelimit.ReasonRateLimited,
			Message:      "Too many searches from this connection. Please try again later.",
			BlockedUntil: &blockedUntil,
			RetryAfter:   1800,
		}}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/search", map[string]any{
		"national_id": "123456789",
	})

	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.Equal("1800", rr.Header().Get("Retry-After"))
	got := testutil.UnmarshalResponse[models.Denial](s.T(), rr)
	s.Equal(ratelimit.ReasonRateLimited, got.Reason)
}

func (s *LookupHandlerSuite) TestHandleSearchMalformedBody() {
	router, _ := newTestRouter(s.T())

	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/search", "{not json")

	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusBadRequest, rr.Code)
	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal("validation", body["error"])
}

func (s *LookupHandlerSuite) TestHandleSearchValidationError() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().
		Search(gomock.Any(), gomock.Any()).
		Return(nil, derrors.New(derrors.CodeValidation, "national ID must be exactly 9 digits"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/search", map[string]any{
		"national_id": "12ab",
	})

	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *LookupHandlerSuite) TestHandleSearchNotFound() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().
		Search(gomock.Any(), gomock.Any()).
		Return(nil, derrors.New(derrors.CodeNotFound, "no beneficiary matches this national ID"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/search", map[string]any{
		"national_id": "999999999",
	})

	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusNotFound, rr.Code)
}
