// Package handler exposes the public search endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/lookup/models"
	"aidgate/internal/platform/metrics"
	"aidgate/internal/platform/middleware"
	"aidgate/pkg/derrors"
	"aidgate/pkg/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for public search operations.
type Service interface {
	Search(ctx context.Context, query models.Query) (*models.Outcome, error)
}

// Handler handles the public lookup endpoints.
type Handler struct {
	logger  *slog.Logger
	lookup  Service
	metrics *metrics.Metrics
}

// New creates a new lookup Handler.
func New(lookup Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		lookup:  lookup,
		metrics: metrics,
	}
}

// Register registers the lookup routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Post("/search", h.handleSearch)
	})
}

type searchRequest struct {
	NationalID string `json:"national_id"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// handleSearch runs one public beneficiary lookup. The identifier travels in
// the body, not the URL, so it never lands in access logs.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid search request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}

	outcome, err := h.lookup.Search(ctx, models.Query{
		NationalID:    req.NationalID,
		SourceAddress: requestcontext.SourceAddress(ctx),
		Page:          req.Page,
		PageSize:      req.PageSize,
	})
	if err != nil {
		switch derrors.CodeOf(err) {
		case derrors.CodeValidation, derrors.CodeNotFound:
			httputil.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "search failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
		}
		return
	}

	if outcome.Denial != nil {
		if outcome.Denial.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(outcome.Denial.RetryAfter))
		}
		httputil.WriteJSON(w, http.StatusTooManyRequests, outcome.Denial)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome.Result)
}
