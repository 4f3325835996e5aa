package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/cafe-delivery-system/internal/domain"
	"github.com/avc/cafe-delivery-system/internal/metrics"
)

// LifecycleService выполняет переходы статусов заказа с проверкой ролей.
// Проверка допустимости перехода делается по снимку заказа, а сам переход —
// условным обновлением в репозитории: из конкурентных переходов побеждает
// ровно один, проигравший получает InvalidTransitionError с актуальным
// статусом.
type LifecycleService struct {
	orders   domain.OrderRepository
	accounts domain.AccountRepository
	gate     *Gate
	notifier domain.Notifier
}

// NewLifecycleService создает новый LifecycleService
func NewLifecycleService(orders domain.OrderRepository, accounts domain.AccountRepository, gate *Gate, notifier domain.Notifier) *LifecycleService {
	return &LifecycleService{
		orders:   orders,
		accounts: accounts,
		gate:     gate,
		notifier: notifier,
	}
}

// Transition переводит заказ orderID в статус to от имени actorID.
//
// Правила доступа:
//   - confirmed, cooking, ready — только персонал;
//   - cancelled — персонал из pending и confirmed, клиент-владелец
//     только из pending;
//   - delivering, delivered — только назначенный на заказ курьер.
//
// Побочные эффекты (начисление кешбэка при delivered, возврат бонусов при
// cancelled) фиксируются в одной транзакции с переходом.
func (s *LifecycleService) Transition(ctx context.Context, actorID, orderID int64, to domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lifecycle: failed to get order %d: %w", orderID, err)
	}

	from := order.Status
	if !from.CanTransitionTo(to) {
		metrics.InvalidTransitionsTotal.WithLabelValues(string(to)).Inc()
		return nil, domain.NewInvalidTransition(from, to)
	}

	if err := s.authorize(ctx, actorID, order, to); err != nil {
		return nil, err
	}

	var cashback int64
	switch to {
	case domain.OrderStatusDelivered:
		cashback = domain.CashbackFor(order.TotalPrice)
		err = s.orders.Deliver(ctx, orderID, order.CustomerID, cashback)
	case domain.OrderStatusCancelled:
		err = s.orders.Cancel(ctx, orderID, from, order.CustomerID, order.BonusUsed, order.CashbackUsed)
	default:
		err = s.orders.UpdateStatus(ctx, orderID, from, to)
	}

	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			metrics.InvalidTransitionsTotal.WithLabelValues(string(to)).Inc()
			return nil, s.conflictError(ctx, orderID, to, err)
		}
		return nil, fmt.Errorf("lifecycle: failed to transition order %d to %q: %w", orderID, to, err)
	}

	metrics.TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	metrics.CashbackAccruedTotal.Add(float64(cashback))

	order.Status = to
	s.notifier.Publish(domain.OrderEvent{
		OrderID:          orderID,
		From:             from,
		To:               to,
		ActorID:          actorID,
		AffectedAccounts: affectedAccounts(order),
	})

	return order, nil
}

// authorize проверяет право actorID выполнить переход заказа в to
func (s *LifecycleService) authorize(ctx context.Context, actorID int64, order *domain.Order, to domain.OrderStatus) error {
	role := s.gate.Resolve(ctx, actorID)

	switch to {
	case domain.OrderStatusConfirmed, domain.OrderStatusCooking, domain.OrderStatusReady:
		if !role.CanManageOrders() {
			return domain.ErrUnauthorized
		}
	case domain.OrderStatusCancelled:
		if role.CanManageOrders() {
			return nil
		}
		// Клиент может отменить только свой и только неподтвержденный заказ
		if actorID == order.CustomerID && order.Status == domain.OrderStatusPending {
			return nil
		}
		return domain.ErrUnauthorized
	case domain.OrderStatusDelivering, domain.OrderStatusDelivered:
		if order.CourierID == nil || *order.CourierID != actorID || !role.CanDeliver() {
			return domain.ErrUnauthorized
		}
	default:
		return domain.ErrUnauthorized
	}
	return nil
}

// conflictError перечитывает заказ после проигранной гонки, чтобы вернуть
// вызывающему актуальный статус
func (s *LifecycleService) conflictError(ctx context.Context, orderID int64, to domain.OrderStatus, cause error) error {
	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("lifecycle: status conflict on order %d: %w", orderID, cause)
	}
	return domain.NewInvalidTransition(current.Status, to)
}

// AssignCourier назначает курьера на заказ и переводит его в ready.
// Доступно персоналу; целевой аккаунт должен иметь право доставки.
func (s *LifecycleService) AssignCourier(ctx context.Context, actorID, orderID, courierID int64) (*domain.Order, error) {
	if !s.gate.Resolve(ctx, actorID).CanManageOrders() {
		return nil, domain.ErrUnauthorized
	}

	courier, err := s.accounts.GetByID(ctx, courierID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("lifecycle: failed to get courier %d: %w", courierID, err)
	}
	if !courier.Role.CanDeliver() {
		return nil, domain.ErrInvalidRole
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lifecycle: failed to get order %d: %w", orderID, err)
	}

	if err := s.orders.AssignCourier(ctx, orderID, courierID); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return nil, s.conflictError(ctx, orderID, domain.OrderStatusReady, err)
		}
		return nil, fmt.Errorf("lifecycle: failed to assign courier %d to order %d: %w", courierID, orderID, err)
	}

	from := order.Status
	order.CourierID = &courierID
	order.Status = domain.OrderStatusReady
	s.notifier.Publish(domain.OrderEvent{
		OrderID:          orderID,
		From:             from,
		To:               domain.OrderStatusReady,
		ActorID:          actorID,
		AffectedAccounts: affectedAccounts(order),
	})

	return order, nil
}

// SetPaymentStatus обновляет статус оплаты заказа. Доступно персоналу.
func (s *LifecycleService) SetPaymentStatus(ctx context.Context, actorID, orderID int64, status domain.PaymentStatus) error {
	if !s.gate.Resolve(ctx, actorID).CanManageOrders() {
		return domain.ErrUnauthorized
	}

	if err := s.orders.SetPaymentStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("lifecycle: failed to set payment status of order %d: %w", orderID, err)
	}
	return nil
}

// affectedAccounts собирает стороны, которых касается событие заказа
func affectedAccounts(order *domain.Order) []int64 {
	accounts := []int64{order.CustomerID}
	if order.CourierID != nil {
		accounts = append(accounts, *order.CourierID)
	}
	return accounts
}
