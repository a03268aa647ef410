// Package handler exposes the OTP request and verification endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aidgate/internal/otp/models"
	"aidgate/internal/platform/metrics"
	"aidgate/internal/platform/middleware"
	"aidgate/pkg/derrors"
	"aidgate/pkg/httputil"
	"aidgate/pkg/requestcontext"
)

// Service defines the interface for OTP operations.
type Service interface {
	Issue(ctx context.Context, phone string, purpose models.Purpose, beneficiaryID string) (*models.IssueResult, error)
	Verify(ctx context.Context, phone string, purpose models.Purpose, code string) (*models.VerifyResult, error)
}

// Handler handles the OTP endpoints.
type Handler struct {
	logger  *slog.Logger
	otp     Service
	metrics *metrics.Metrics
}

// New creates a new OTP Handler.
func New(otp Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		otp:     otp,
		metrics: metrics,
	}
}

// Register registers the OTP routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Post("/otp/request", h.handleRequest)
		r.Post("/otp/verify", h.handleVerify)
	})
}

type requestBody struct {
	Phone         string `json:"phone"`
	Purpose       string `json:"purpose"`
	Code          string `json:"code"`
	BeneficiaryID string `json:"beneficiary_id"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, purpose, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.otp.Issue(ctx, req.Phone, purpose, req.BeneficiaryID)
	if err != nil {
		h.writeFailure(ctx, w, "otp issue failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, result)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, purpose, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Code == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "code is required"))
		return
	}

	result, err := h.otp.Verify(ctx, req.Phone, purpose, req.Code)
	if err != nil {
		h.writeFailure(ctx, w, "otp verify failed", err)
		return
	}

	status := http.StatusOK
	switch result.Status {
	case models.VerifyWrongCode, models.VerifyNoCode:
		status = http.StatusUnauthorized
	case models.VerifyLocked:
		status = http.StatusLocked
	}
	httputil.WriteJSON(w, status, result)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*requestBody, models.Purpose, bool) {
	var req requestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return nil, "", false
	}
	purpose, err := models.ParsePurpose(req.Purpose)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, "", false
	}
	return &req, purpose, true
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch derrors.CodeOf(err) {
	case derrors.CodeValidation, derrors.CodeUnauthorized:
	default:
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
