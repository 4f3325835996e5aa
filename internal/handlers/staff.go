package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avc/cafe-delivery-system/internal/domain"
	"github.com/avc/cafe-delivery-system/internal/utils/jwt"
)

// StaffService определяет операции персонала.
type StaffService interface {
	GetProfile(ctx context.Context, id int64) (*domain.Account, error)
	SetRole(ctx context.Context, actorID, targetID int64, role domain.Role) (*domain.Account, error)
	ListStaff(ctx context.Context, actorID int64, role domain.Role) ([]*domain.Account, error)
	ListCouriers(ctx context.Context, actorID int64) ([]*domain.Account, error)
}

// StaffOrderService определяет операции персонала над заказами.
type StaffOrderService interface {
	ActiveOrders(ctx context.Context, actorID int64) ([]*domain.Order, error)
	CourierOrders(ctx context.Context, actorID int64) ([]*domain.Order, error)
	Stats(ctx context.Context, actorID int64) (*domain.OrderStats, error)
}

// StaffLifecycleService определяет переходы и назначения персонала.
type StaffLifecycleService interface {
	Transition(ctx context.Context, actorID, orderID int64, to domain.OrderStatus) (*domain.Order, error)
	AssignCourier(ctx context.Context, actorID, orderID, courierID int64) (*domain.Order, error)
	SetPaymentStatus(ctx context.Context, actorID, orderID int64, status domain.PaymentStatus) error
}

type StaffHandler struct {
	staffService StaffService
	orderService StaffOrderService
	lifecycle    StaffLifecycleService
	jwtManager   *jwt.Manager
	logger       *zap.Logger
}

func NewStaffHandler(
	staffService StaffService,
	orderService StaffOrderService,
	lifecycle StaffLifecycleService,
	jwtManager *jwt.Manager,
	logger *zap.Logger,
) *StaffHandler {
	return &StaffHandler{
		staffService: staffService,
		orderService: orderService,
		lifecycle:    lifecycle,
		jwtManager:   jwtManager,
		logger:       logger,
	}
}

type tokenResponse struct {
	Token string      `json:"token"`
	Role  domain.Role `json:"role"`
}

// Token выдает JWT токен персонала. Вызывается после аутентификации
// клиента по init data; обычным пользователям токен не выдается.
func (h *StaffHandler) Token(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	acc, err := h.staffService.GetProfile(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if acc.Role == domain.RoleUser {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := h.jwtManager.Generate(acc.ID, acc.Role)
	if err != nil {
		h.logger.Error("failed to generate staff token", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, tokenResponse{Token: token, Role: acc.Role})
}

type setStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

// SetStatus переводит заказ в новый статус
func (h *StaffHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	order, err := h.lifecycle.Transition(r.Context(), accountID, orderID, req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, order)
}

type assignCourierRequest struct {
	CourierID int64 `json:"courier_id" validate:"required,gt=0"`
}

// AssignCourier назначает курьера на заказ
func (h *StaffHandler) AssignCourier(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req assignCourierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	order, err := h.lifecycle.AssignCourier(r.Context(), accountID, orderID, req.CourierID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, order)
}

type setPaymentRequest struct {
	Status domain.PaymentStatus `json:"status" validate:"required"`
}

// SetPayment обновляет статус оплаты заказа
func (h *StaffHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req setPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	if err := h.lifecycle.SetPaymentStatus(r.Context(), accountID, orderID, req.Status); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ActiveOrders возвращает все незавершенные заказы
func (h *StaffHandler) ActiveOrders(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.orderService.ActiveOrders(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, orders)
}

// CourierOrders возвращает активные назначения текущего курьера
func (h *StaffHandler) CourierOrders(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.orderService.CourierOrders(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, orders)
}

// Stats возвращает агрегированную статистику заказов
func (h *StaffHandler) Stats(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.orderService.Stats(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, stats)
}

type setRoleRequest struct {
	AccountID int64       `json:"account_id" validate:"required,gt=0"`
	Role      domain.Role `json:"role" validate:"required"`
}

// SetRole меняет роль аккаунта. Доступно только директору.
func (h *StaffHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	acc, err := h.staffService.SetRole(r.Context(), accountID, req.AccountID, req.Role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, acc)
}

// ListStaff возвращает аккаунты с указанной ролью. Доступно только директору.
func (h *StaffHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	role := domain.Role(r.URL.Query().Get("role"))
	accounts, err := h.staffService.ListStaff(r.Context(), accountID, role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, accounts)
}

// ListCouriers возвращает список курьеров для назначения заказов
func (h *StaffHandler) ListCouriers(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	couriers, err := h.staffService.ListCouriers(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, couriers)
}
