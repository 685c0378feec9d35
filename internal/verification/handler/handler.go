package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"loadvoice/internal/carrier"
	"loadvoice/internal/verification"
	"loadvoice/pkg/httputil"
	"loadvoice/pkg/requestcontext"
)

// Service defines the interface for verification operations.
type Service interface {
	Verify(ctx context.Context, req verification.VerifyRequest) (*carrier.VerificationRecord, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
}

// HandleVerify handles POST /verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.Decode[VerifyRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.InfoContext(ctx, "rejected verify request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Verify(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "carrier verification failed",
			"request_id", requestID,
			"mc_number", req.MCNumber,
			"dot_number", req.DOTNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "carrier verification served",
		"request_id", requestID,
		"carrier_key", record.Identifier.Key(),
		"verified", record.Verified,
		"from_cache", record.FromCache,
		"stale", record.Stale,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}
