// Package handler exposes the PIN and disclosure endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/disclosure/models"
	"aidgate/internal/platform/metrics"
	"aidgate/internal/platform/middleware"
	"aidgate/pkg/derrors"
	"aidgate/pkg/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for disclosure operations.
type Service interface {
	CreatePin(ctx context.Context, nationalID, pin string) (*models.CreateResult, error)
	VerifyPin(ctx context.Context, nationalID, pin string) (*models.VerifyResult, error)
	Redeem(ctx context.Context, token string) (*models.FullDisclosure, error)
}

// Handler handles the disclosure endpoints.
type Handler struct {
	logger     *slog.Logger
	disclosure Service
	metrics    *metrics.Metrics
}

// New creates a new disclosure Handler.
func New(disclosure Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		disclosure: disclosure,
		metrics:    metrics,
	}
}

// Register registers the disclosure routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Post("/disclosure/pin", h.handleCreatePin)
		r.Post("/disclosure/verify", h.handleVerifyPin)
		r.Post("/disclosure/redeem", h.handleRedeem)
	})
}

type pinRequest struct {
	NationalID string `json:"national_id"`
	Pin        string `json:"pin"`
}

type redeemRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleCreatePin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}

	result, err := h.disclosure.CreatePin(ctx, req.NationalID, req.Pin)
	if err != nil {
		h.writeFailure(ctx, w, "create pin failed", err)
		return
	}

	status := http.StatusCreated
	if result.Status == models.CreateExists {
		status = http.StatusConflict
	}
	httputil.WriteJSON(w, status, result)
}

func (h *Handler) handleVerifyPin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}

	result, err := h.disclosure.VerifyPin(ctx, req.NationalID, req.Pin)
	if err != nil {
		h.writeFailure(ctx, w, "verify pin failed", err)
		return
	}

	status := http.StatusOK
	switch result.Status {
	case models.VerifyWrongPin, models.VerifyNoPin:
		status = http.StatusUnauthorized
	case models.VerifyAccountLocked:
		status = http.StatusLocked
	}
	httputil.WriteJSON(w, status, result)
}

func (h *Handler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}

	disclosure, err := h.disclosure.Redeem(ctx, req.Token)
	if err != nil {
		h.writeFailure(ctx, w, "redeem token failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure)
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch derrors.CodeOf(err) {
	case derrors.CodeValidation, derrors.CodeNotFound, derrors.CodeUnauthorized:
	default:
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
