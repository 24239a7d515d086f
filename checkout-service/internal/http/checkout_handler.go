package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	d "github.com/sheldonroth/sheldonroth/checkout-service/domain"
	"github.com/sheldonroth/sheldonroth/checkout-service/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

type CheckoutHandler struct {
	service service.CheckoutService
	timeout time.Duration
	logger  *slog.Logger
}

func NewCheckoutHandler(svc service.CheckoutService, timeout time.Duration, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		timeout: timeout,
		logger:  logger,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// POST /api/checkout
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req d.CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid items")
		return
	}

	resp, err := h.service.CreateSession(ctx, &req)
	if errors.Is(err, service.ErrInvalidItems) {
		h.logger.InfoContext(ctx, "rejected checkout request", "error", err)
		respondError(w, http.StatusBadRequest, "Invalid items")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
