package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	suite.Suite
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

type echoRegistrar struct{}

func (echoRegistrar) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *RouterSuite) newRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(Options{Logger: logger}, echoRegistrar{})
}

func (s *RouterSuite) TestHealthEndpoint() {
	rr := httptest.NewRecorder()
	s.newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"status":"ok"}`, rr.Body.String())
}

func (s *RouterSuite) TestMetricsEndpoint() {
	rr := httptest.NewRecorder()
	s.newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	s.Equal(http.StatusOK, rr.Code)
}

func (s *RouterSuite) TestHandlersMountUnderAPI() {
	rr := httptest.NewRecorder()
	s.newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/echo", nil))

	s.Equal(http.StatusNoContent, rr.Code)
}
