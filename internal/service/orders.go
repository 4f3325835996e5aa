package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/cafe-delivery-system/internal/domain"
	"github.com/avc/cafe-delivery-system/internal/metrics"
)

// CheckoutRequest содержит данные оформления заказа от клиента
type CheckoutRequest struct {
	CustomerID     int64
	Items          []domain.OrderItem
	RequestedBonus int64
	Address        string
	PaymentMethod  string
}

// OrderService предоставляет операции оформления и просмотра заказов.
type OrderService struct {
	orders   domain.OrderRepository
	accounts domain.AccountRepository
	gate     *Gate
	notifier domain.Notifier
}

// NewOrderService создает новый OrderService
func NewOrderService(orders domain.OrderRepository, accounts domain.AccountRepository, gate *Gate, notifier domain.Notifier) *OrderService {
	return &OrderService{
		orders:   orders,
		accounts: accounts,
		gate:     gate,
		notifier: notifier,
	}
}

// Checkout оформляет заказ: валидирует корзину, списывает применимые
// бонусы и создает заказ в статусе pending. Запрошенная к списанию сумма
// урезается до применимой без ошибки; фактически списанное видно в
// bonus_used созданного заказа.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	var itemsTotal int64
	for _, item := range req.Items {
		if item.Quantity <= 0 || item.Price < 0 {
			return nil, fmt.Errorf("order service: invalid item %d in order: %w", item.ItemID, domain.ErrEmptyOrder)
		}
		itemsTotal += item.Price * int64(item.Quantity)
	}

	if req.Address == "" {
		acc, err := s.accounts.GetByID(ctx, req.CustomerID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, domain.ErrAccountNotFound
			}
			return nil, fmt.Errorf("order service: failed to get account %d: %w", req.CustomerID, err)
		}
		req.Address = acc.Address
	} else {
		// Адрес из заказа становится адресом по умолчанию
		if err := s.accounts.UpdateAddress(ctx, req.CustomerID, req.Address); err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, domain.ErrAccountNotFound
			}
			return nil, fmt.Errorf("order service: failed to save address for account %d: %w", req.CustomerID, err)
		}
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "card"
	}

	order, err := s.orders.Create(ctx, domain.CreateOrderParams{
		CustomerID:     req.CustomerID,
		Items:          req.Items,
		ItemsTotal:     itemsTotal,
		RequestedBonus: req.RequestedBonus,
		Address:        req.Address,
		PaymentMethod:  paymentMethod,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("order service: failed to create order for account %d: %w", req.CustomerID, err)
	}

	metrics.OrdersCreatedTotal.Inc()
	metrics.BonusRedeemedTotal.Add(float64(order.BonusUsed))

	s.notifier.Publish(domain.OrderEvent{
		OrderID:          order.ID,
		To:               order.Status,
		ActorID:          req.CustomerID,
		AffectedAccounts: s.creationAudience(ctx, order.CustomerID),
	})

	return order, nil
}

// creationAudience собирает получателей события о новом заказе: клиента
// и персонал, управляющий заказами. Доставка уведомлений best-effort,
// ошибка чтения персонала не срывает оформление.
func (s *OrderService) creationAudience(ctx context.Context, customerID int64) []int64 {
	audience := []int64{customerID}
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleDirector} {
		staff, err := s.accounts.ListByRole(ctx, role)
		if err != nil {
			continue
		}
		for _, acc := range staff {
			if acc.ID != customerID {
				audience = append(audience, acc.ID)
			}
		}
	}
	return audience
}

// GetOrder получает заказ. Клиент видит только свои заказы, назначенный
// курьер — свои назначения, персонал — любые.
func (s *OrderService) GetOrder(ctx context.Context, actorID, orderID int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("order service: failed to get order %d: %w", orderID, err)
	}

	if order.CustomerID == actorID {
		return order, nil
	}
	if order.CourierID != nil && *order.CourierID == actorID {
		return order, nil
	}
	if s.gate.Resolve(ctx, actorID).CanManageOrders() {
		return order, nil
	}
	return nil, domain.ErrUnauthorized
}

// History получает последние заказы клиента
func (s *OrderService) History(ctx context.Context, customerID int64, limit int) ([]*domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	orders, err := s.orders.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get history for account %d: %w", customerID, err)
	}
	return orders, nil
}

// CourierOrders получает активные назначения курьера. Курьер видит только
// свои назначения.
func (s *OrderService) CourierOrders(ctx context.Context, actorID int64) ([]*domain.Order, error) {
	if !s.gate.Resolve(ctx, actorID).CanDeliver() {
		return nil, domain.ErrUnauthorized
	}

	orders, err := s.orders.ListByCourier(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get courier orders for account %d: %w", actorID, err)
	}
	return orders, nil
}

// ActiveOrders получает все незавершенные заказы. Доступно персоналу.
func (s *OrderService) ActiveOrders(ctx context.Context, actorID int64) ([]*domain.Order, error) {
	if !s.gate.Resolve(ctx, actorID).CanManageOrders() {
		return nil, domain.ErrUnauthorized
	}

	orders, err := s.orders.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get active orders: %w", err)
	}
	return orders, nil
}

// Stats получает агрегированную статистику. Доступно персоналу.
func (s *OrderService) Stats(ctx context.Context, actorID int64) (*domain.OrderStats, error) {
	if !s.gate.Resolve(ctx, actorID).CanManageOrders() {
		return nil, domain.ErrUnauthorized
	}

	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get stats: %w", err)
	}

	stats.TotalAccounts, err = s.accounts.CountAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to count accounts: %w", err)
	}
	return stats, nil
}
