// Package handler exposes the back-office beneficiary update endpoint. It is
// mounted under /api/admin and is expected to sit behind network-level access
// control, not the public portal.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/platform/metrics"
	"aidgate/internal/platform/middleware"
	"aidgate/internal/registry/models"
	"aidgate/pkg/derrors"
	"aidgate/pkg/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for registry write operations.
type Service interface {
	Update(ctx context.Context, beneficiaryID string, fields models.UpdateFields) (*models.Beneficiary, error)
}

// Handler handles the registry admin endpoints.
type Handler struct {
	logger   *slog.Logger
	registry Service
	metrics  *metrics.Metrics
}

// New creates a new registry Handler.
func New(registry Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		metrics:  metrics,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Patch("/admin/beneficiaries/{beneficiaryID}", h.handleUpdate)
	})
}

type updateRequest struct {
	Name    *string `json:"name"`
	Status  *string `json:"status"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	beneficiaryID := chi.URLParam(r, "beneficiaryID")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}

	fields := models.UpdateFields{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if req.Status != nil {
		status := models.BeneficiaryStatus(*req.Status)
		switch status {
		case models.BeneficiaryActive, models.BeneficiaryPending, models.BeneficiarySuspended:
		default:
			httputil.WriteError(w, derrors.Newf(derrors.CodeValidation, "unknown status %q", *req.Status))
			return
		}
		fields.Status = &status
	}

	updated, err := h.registry.Update(ctx, beneficiaryID, fields)
	if err != nil {
		if derrors.CodeOf(err) == derrors.CodeInternal {
			h.logger.ErrorContext(ctx, "beneficiary update failed",
				"request_id", requestcontext.RequestID(ctx),
				"beneficiary_id", beneficiaryID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}
