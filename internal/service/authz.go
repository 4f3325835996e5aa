// Package service содержит бизнес-логику приложения.
package service

import (
	"context"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

// Gate разрешает роль действующего лица для проверок доступа.
// Директор определяется конфигурацией и не зависит от содержимого базы;
// аккаунт, отсутствующий в базе, трактуется как обычный пользователь.
type Gate struct {
	accounts   domain.AccountRepository
	directorID int64
}

// NewGate создает новый Gate
func NewGate(accounts domain.AccountRepository, directorID int64) *Gate {
	return &Gate{
		accounts:   accounts,
		directorID: directorID,
	}
}

// Resolve возвращает роль аккаунта actorID
func (g *Gate) Resolve(ctx context.Context, actorID int64) domain.Role {
	if actorID == g.directorID {
		return domain.RoleDirector
	}

	// Неизвестный аккаунт и ошибка чтения дают минимальные права
	acc, err := g.accounts.GetByID(ctx, actorID)
	if err != nil {
		return domain.RoleUser
	}
	return acc.Role
}
