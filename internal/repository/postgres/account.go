package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

const accountColumns = `id, username, first_name, last_name, phone, address, role, bonus, cashback, created_at, updated_at`

// AccountRepository реализует domain.AccountRepository
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository создает новый AccountRepository
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	acc := &domain.Account{}
	err := row.Scan(
		&acc.ID, &acc.Username, &acc.FirstName, &acc.LastName,
		&acc.Phone, &acc.Address, &acc.Role, &acc.Bonus, &acc.Cashback,
		&acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Upsert создает аккаунт с приветственным бонусом либо обновляет профильные
// поля существующего. Роль и балансы при обновлении не затрагиваются.
func (r *AccountRepository) Upsert(ctx context.Context, id int64, profile domain.AccountProfile, welcomeBonus int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO accounts (id, username, first_name, last_name, bonus)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		     username = EXCLUDED.username,
		     first_name = EXCLUDED.first_name,
		     last_name = EXCLUDED.last_name,
		     updated_at = now()
		 RETURNING `+accountColumns,
		id, profile.Username, profile.FirstName, profile.LastName, welcomeBonus,
	)

	acc, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to upsert account %d: %w", id, err)
	}
	return acc, nil
}

// GetByID получает аккаунт по ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("repository: failed to get account %d: %w", id, err)
	}
	return acc, nil
}

// UpdateAddress обновляет адрес доставки аккаунта
func (r *AccountRepository) UpdateAddress(ctx context.Context, id int64, address string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET address = $2, updated_at = now() WHERE id = $1`,
		id, address,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update address for account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// UpdatePhone обновляет телефон аккаунта
func (r *AccountRepository) UpdatePhone(ctx context.Context, id int64, phone string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET phone = $2, updated_at = now() WHERE id = $1`,
		id, phone,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update phone for account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// UpdateRole меняет роль аккаунта. Несуществующий аккаунт создается без
// приветственного бонуса: директор добавляет персонал до первого контакта.
// Защита роли директора выполняется на уровне сервиса.
func (r *AccountRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) (*domain.Account, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO accounts (id, role, bonus)
		 VALUES ($1, $2, 0)
		 ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
		 RETURNING `+accountColumns,
		id, role,
	)

	acc, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to update role for account %d: %w", id, err)
	}
	return acc, nil
}

// ListByRole получает все аккаунты с указанной ролью
func (r *AccountRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE role = $1 ORDER BY id`, role)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list accounts by role %q: %w", role, err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating accounts: %w", err)
	}
	return accounts, nil
}

// EnsureDirector идемпотентно закрепляет роль директора за id.
// Вызывается при старте приложения; повторный запуск ничего не меняет.
func (r *AccountRepository) EnsureDirector(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (id, role, bonus)
		 VALUES ($1, 'director', 0)
		 ON CONFLICT (id) DO UPDATE SET role = 'director', updated_at = now()`,
		id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to ensure director %d: %w", id, err)
	}
	return nil
}

// CountAccounts возвращает общее число аккаунтов
func (r *AccountRepository) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count accounts: %w", err)
	}
	return count, nil
}
