package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

// AccountService предоставляет операции с аккаунтами и персоналом.
type AccountService struct {
	accounts     domain.AccountRepository
	gate         *Gate
	directorID   int64
	welcomeBonus int64
}

// NewAccountService создает новый AccountService
func NewAccountService(accounts domain.AccountRepository, gate *Gate, directorID, welcomeBonus int64) *AccountService {
	return &AccountService{
		accounts:     accounts,
		gate:         gate,
		directorID:   directorID,
		welcomeBonus: welcomeBonus,
	}
}

// RegisterOrTouch регистрирует аккаунт при первом контакте, начисляя
// приветственный бонус. Повторный контакт обновляет только профильные поля.
func (s *AccountService) RegisterOrTouch(ctx context.Context, id int64, profile domain.AccountProfile) (*domain.Account, error) {
	acc, err := s.accounts.Upsert(ctx, id, profile, s.welcomeBonus)
	if err != nil {
		return nil, fmt.Errorf("account service: failed to register account %d: %w", id, err)
	}
	return acc, nil
}

// GetProfile получает аккаунт по ID
func (s *AccountService) GetProfile(ctx context.Context, id int64) (*domain.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("account service: failed to get account %d: %w", id, err)
	}
	return acc, nil
}

// UpdateAddress обновляет адрес доставки аккаунта
func (s *AccountService) UpdateAddress(ctx context.Context, id int64, address string) error {
	if err := s.accounts.UpdateAddress(ctx, id, address); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("account service: failed to update address for account %d: %w", id, err)
	}
	return nil
}

// UpdatePhone обновляет телефон аккаунта
func (s *AccountService) UpdatePhone(ctx context.Context, id int64, phone string) error {
	if err := s.accounts.UpdatePhone(ctx, id, phone); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("account service: failed to update phone for account %d: %w", id, err)
	}
	return nil
}

// SetRole меняет роль аккаунта targetID. Доступно только директору.
// Роль директора неизменяема с обеих сторон: аккаунт директора нельзя
// понизить, а назначить второго директора нельзя. Несуществующий
// целевой аккаунт создается без приветственного бонуса.
func (s *AccountService) SetRole(ctx context.Context, actorID, targetID int64, role domain.Role) (*domain.Account, error) {
	if !s.gate.Resolve(ctx, actorID).CanManageStaff() {
		return nil, domain.ErrUnauthorized
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if targetID == s.directorID || role == domain.RoleDirector {
		return nil, domain.ErrImmutableRole
	}

	acc, err := s.accounts.UpdateRole(ctx, targetID, role)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRole) {
			return nil, domain.ErrInvalidRole
		}
		return nil, fmt.Errorf("account service: failed to set role %q for account %d: %w", role, targetID, err)
	}
	return acc, nil
}

// ListStaff получает аккаунты с указанной ролью. Доступно только директору.
func (s *AccountService) ListStaff(ctx context.Context, actorID int64, role domain.Role) ([]*domain.Account, error) {
	if !s.gate.Resolve(ctx, actorID).CanManageStaff() {
		return nil, domain.ErrUnauthorized
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	accounts, err := s.accounts.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("account service: failed to list accounts with role %q: %w", role, err)
	}
	return accounts, nil
}

// ListCouriers получает список курьеров. Доступно персоналу для назначения
// заказов.
func (s *AccountService) ListCouriers(ctx context.Context, actorID int64) ([]*domain.Account, error) {
	if !s.gate.Resolve(ctx, actorID).CanManageOrders() {
		return nil, domain.ErrUnauthorized
	}

	couriers, err := s.accounts.ListByRole(ctx, domain.RoleCourier)
	if err != nil {
		return nil, fmt.Errorf("account service: failed to list couriers: %w", err)
	}
	return couriers, nil
}
