package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

var validate = validator.New()

// AccountService определяет методы работы с аккаунтами.
type AccountService interface {
	GetProfile(ctx context.Context, id int64) (*domain.Account, error)
	UpdateAddress(ctx context.Context, id int64, address string) error
	UpdatePhone(ctx context.Context, id int64, phone string) error
}

type AccountHandler struct {
	accountService AccountService
	logger         *zap.Logger
}

func NewAccountHandler(accountService AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// GetProfile возвращает профиль текущего аккаунта
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	acc, err := h.accountService.GetProfile(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, acc)
}

type updateAddressRequest struct {
	Address string `json:"address" validate:"required,min=5,max=500"`
}

// UpdateAddress обновляет адрес доставки текущего аккаунта
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req updateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	if err := h.accountService.UpdateAddress(r.Context(), accountID, req.Address); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type updatePhoneRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

// UpdatePhone обновляет телефон текущего аккаунта
func (h *AccountHandler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req updatePhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	if err := h.accountService.UpdatePhone(r.Context(), accountID, req.Phone); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
