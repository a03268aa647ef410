// Package httptransport assembles the public HTTP surface. It owns the
// middleware chain and route mounting; all behavior lives in the domain
// handler packages.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aidgate/internal/platform/middleware"
	"aidgate/pkg/httputil"
)

// Registrar is implemented by every domain handler package.
type Registrar interface {
	Register(r chi.Router)
}

// Options carry the router's cross-cutting collaborators. Request metrics
// are recorded per handler, not here.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter builds the root router: shared middleware, health and metrics
// endpoints, and every registered domain handler mounted under /api.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	root := chi.NewRouter()
	root.Use(middleware.Recovery(opts.Logger))
	root.Use(middleware.RequestID)
	root.Use(middleware.RequestTime)
	root.Use(middleware.ClientMetadata)
	root.Use(middleware.Logger(opts.Logger))
	root.Use(middleware.Timeout(opts.Timeout))
	root.Use(middleware.ContentTypeJSON)

	root.Get("/healthz", handleHealth)
	root.Method(http.MethodGet, "/metrics", promhttp.Handler())

	api := chi.NewRouter()
	for _, h := range handlers {
		h.Register(api)
	}
	root.Mount("/api", api)

	return root
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
