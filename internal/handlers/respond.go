package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// writeJSON пишет ответ в формате JSON
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError отображает ошибки домена на HTTP-статусы
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var invalid *domain.InvalidTransitionError
	if errors.As(err, &invalid) {
		writeJSON(w, logger, http.StatusConflict, errorResponse{
			Error: "invalid transition",
			From:  string(invalid.From),
			To:    string(invalid.To),
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrMenuItemNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidRole):
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrImmutableRole):
		http.Error(w, "Conflict", http.StatusConflict)
	default:
		logger.Error("request failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
