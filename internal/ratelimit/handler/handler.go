// Package handler exposes the abuse-review endpoint for flagged search
// attempts. Admin-only, like the registry handler.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/platform/metrics"
	"aidgate/internal/platform/middleware"
	"aidgate/internal/ratelimit/models"
	"aidgate/pkg/derrors"
	"aidgate/pkg/httputil"
	"aidgate/pkg/requestcontext"
)

const defaultReviewWindow = 24 * time.Hour

// Service defines the interface for attempt review operations.
type Service interface {
	ListSuspicious(ctx context.Context, since time.Time) ([]models.SearchAttempt, error)
}

// Handler handles the rate limit review endpoints.
type Handler struct {
	logger  *slog.Logger
	limiter Service
	metrics *metrics.Metrics
}

// New creates a new rate limit Handler.
func New(limiter Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		limiter: limiter,
		metrics: metrics,
	}
}

// Register registers the review routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Get("/admin/attempts/suspicious", h.handleListSuspicious)
	})
}

func (h *Handler) handleListSuspicious(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	since := requestcontext.Now(ctx).Add(-defaultReviewWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, derrors.New(derrors.CodeValidation, "since must be RFC 3339"))
			return
		}
		since = parsed
	}

	attempts, err := h.limiter.ListSuspicious(ctx, since)
	if err != nil {
		h.logger.ErrorContext(ctx, "suspicious attempt listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, derrors.Wrap(err, derrors.CodeInternal, "failed to list attempts"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"since":    since,
		"attempts": attempts,
	})
}
