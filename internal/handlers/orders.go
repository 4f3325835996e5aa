package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avc/cafe-delivery-system/internal/domain"
	"github.com/avc/cafe-delivery-system/internal/service"
)

// OrderService определяет клиентские операции с заказами.
type OrderService interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, actorID, orderID int64) (*domain.Order, error)
	History(ctx context.Context, customerID int64, limit int) ([]*domain.Order, error)
}

// LifecycleService определяет переходы статусов заказа.
type LifecycleService interface {
	Transition(ctx context.Context, actorID, orderID int64, to domain.OrderStatus) (*domain.Order, error)
}

type OrderHandler struct {
	orderService OrderService
	lifecycle    LifecycleService
	logger       *zap.Logger
}

func NewOrderHandler(orderService OrderService, lifecycle LifecycleService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		lifecycle:    lifecycle,
		logger:       logger,
	}
}

type checkoutItem struct {
	ID       int64  `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Price    int64  `json:"price" validate:"gte=0"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type checkoutRequest struct {
	Items         []checkoutItem `json:"items" validate:"required,min=1,dive"`
	BonusToUse    int64          `json:"bonus_to_use" validate:"gte=0"`
	Address       string         `json:"address"`
	PaymentMethod string         `json:"payment_method"`
}

// Checkout оформляет заказ текущего аккаунта
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	order, err := h.orderService.Checkout(r.Context(), service.CheckoutRequest{
		CustomerID:     accountID,
		Items:          items,
		RequestedBonus: req.BonusToUse,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, order)
}

// History возвращает последние заказы текущего аккаунта
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.orderService.History(r.Context(), accountID, limit)
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

// GetOrder возвращает один заказ с проверкой видимости
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.orderService.GetOrder(r.Context(), accountID, orderID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, order)
}

// Cancel отменяет заказ от имени клиента. Разрешено только для своих
// заказов в статусе pending.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.lifecycle.Transition(r.Context(), accountID, orderID, domain.OrderStatusCancelled)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, order)
}
