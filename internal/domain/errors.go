package domain

import (
	"errors"
	"fmt"
)

// Ошибки аккаунтов
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrImmutableRole   = errors.New("director role cannot be changed")
	ErrInvalidRole     = errors.New("invalid role")
)

// Ошибки заказов
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order must contain at least one item")

	// ErrStatusConflict возвращается хранилищем, когда условное обновление
	// статуса не нашло строку в ожидаемом состоянии (конкурентный переход).
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// Ошибки авторизации и меню
var (
	ErrUnauthorized     = errors.New("operation not permitted for role")
	ErrMenuItemNotFound = errors.New("menu item not found")
)

// InvalidTransitionError возвращается при недопустимом переходе статуса.
// Несет текущий и запрошенный статусы для диагностики на фронтенде.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// NewInvalidTransition создает ошибку недопустимого перехода
func NewInvalidTransition(from, to OrderStatus) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

// IsInvalidTransition сообщает, является ли ошибка недопустимым переходом
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
