package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

const orderColumns = `id, customer_id, items, total_price, bonus_used, cashback_used, address, status, courier_id, payment_method, payment_status, created_at, updated_at`

// OrderRepository реализует domain.OrderRepository
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository создает новый OrderRepository
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := &domain.Order{}
	var itemsRaw []byte

	err := row.Scan(
		&order.ID, &order.CustomerID, &itemsRaw, &order.TotalPrice,
		&order.BonusUsed, &order.CashbackUsed, &order.Address, &order.Status,
		&order.CourierID, &order.PaymentMethod, &order.PaymentStatus,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsRaw, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return order, nil
}

// Create атомарно списывает применимые бонусы и создает заказ.
// Чтение баланса, расчет применимой суммы и списание выполняются в одной
// транзакции под advisory-блокировкой по аккаунту, поэтому конкурентные
// списания с одного счета не могут увести баланс в минус.
func (r *OrderRepository) Create(ctx context.Context, params domain.CreateOrderParams) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(params.Items)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to marshal order items: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback после Commit безопасен

	// Сериализуем списания по аккаунту
	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, params.CustomerID); err != nil {
		return nil, fmt.Errorf("repository: failed to acquire lock for account %d: %w", params.CustomerID, err)
	}

	var balance int64
	err = tx.QueryRow(ctx, `SELECT bonus FROM accounts WHERE id = $1`, params.CustomerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("repository: failed to get bonus balance for account %d: %w", params.CustomerID, err)
	}

	bonusUsed := domain.EligibleBonus(params.ItemsTotal, balance, params.RequestedBonus)
	if bonusUsed > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET bonus = bonus - $2, updated_at = now() WHERE id = $1`,
			params.CustomerID, bonusUsed,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to debit bonus for account %d: %w", params.CustomerID, err)
		}
	}

	totalPrice := params.ItemsTotal - bonusUsed

	row := tx.QueryRow(ctx,
		`INSERT INTO orders (customer_id, items, total_price, bonus_used, address, payment_method)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+orderColumns,
		params.CustomerID, itemsJSON, totalPrice, bonusUsed, params.Address, params.PaymentMethod,
	)

	order, err := scanOrder(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("repository: failed to create order for account %d: %w", params.CustomerID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit order creation: %w", err)
	}
	return order, nil
}

// GetByID получает заказ по ID
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to get order %d: %w", id, err)
	}
	return order, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, sql string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}
	return orders, nil
}

// ListByCustomer получает последние заказы клиента
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64, limit int) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE customer_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		customerID, limit,
	)
}

// ListByCourier получает активные заказы, назначенные курьеру
func (r *OrderRepository) ListByCourier(ctx context.Context, courierID int64) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE courier_id = $1 AND status IN ('ready', 'delivering')
		 ORDER BY created_at ASC`,
		courierID,
	)
}

// ListActive получает все активные заказы для персонала
func (r *OrderRepository) ListActive(ctx context.Context) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE status IN ('pending', 'confirmed', 'cooking', 'ready')
		 ORDER BY created_at ASC`,
	)
}

// UpdateStatus выполняет условное обновление статуса (check-and-set).
// Если строка уже не в статусе from, возвращается ErrStatusConflict:
// из двух конкурентных переходов фиксируется ровно один.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	if !to.Valid() {
		return domain.NewInvalidTransition(from, to)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update status of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

// Deliver переводит заказ delivering → delivered и начисляет кешбэк
// владельцу. Обе записи фиксируются в одной транзакции, а конечность
// статуса delivered гарантирует ровно одно начисление на заказ.
func (r *OrderRepository) Deliver(ctx context.Context, id int64, customerID, cashback int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = 'delivered', updated_at = now()
		 WHERE id = $1 AND status = 'delivering'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to mark order %d delivered: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStatusConflict
	}

	if cashback > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET cashback = cashback + $2, updated_at = now() WHERE id = $1`,
			customerID, cashback,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to credit cashback to account %d: %w", customerID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit delivery of order %d: %w", id, err)
	}
	return nil
}

// Cancel переводит заказ в cancelled и возвращает использованные бонусы
// и кешбэк владельцу в одной транзакции.
func (r *OrderRepository) Cancel(ctx context.Context, id int64, from domain.OrderStatus, customerID, bonusRefund, cashbackRefund int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = 'cancelled', updated_at = now()
		 WHERE id = $1 AND status = $2`,
		id, from,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to cancel order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStatusConflict
	}

	if bonusRefund > 0 || cashbackRefund > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET bonus = bonus + $2, cashback = cashback + $3, updated_at = now()
			 WHERE id = $1`,
			customerID, bonusRefund, cashbackRefund,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to refund account %d: %w", customerID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit cancellation of order %d: %w", id, err)
	}
	return nil
}

// AssignCourier назначает курьера и принудительно переводит заказ в ready.
// Допустимо только пока заказ в cooking или ready: назначение на заказ
// в доставке — конфликт статуса.
func (r *OrderRepository) AssignCourier(ctx context.Context, id int64, courierID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET courier_id = $2, status = 'ready', updated_at = now()
		 WHERE id = $1 AND status IN ('cooking', 'ready')`,
		id, courierID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("repository: failed to assign courier to order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

// SetPaymentStatus обновляет статус оплаты заказа. Ось оплаты независима
// от статуса доставки, поэтому check-and-set здесь не нужен.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("repository: invalid payment status %q", status)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to set payment status of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// Stats собирает агрегированную статистику заказов
func (r *OrderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{}

	err := r.db.QueryRow(ctx,
		`SELECT
		    COUNT(*),
		    COUNT(*) FILTER (WHERE created_at::date = current_date),
		    COUNT(*) FILTER (WHERE status NOT IN ('delivered', 'cancelled')),
		    COALESCE(SUM(total_price) FILTER (WHERE status = 'delivered'), 0)
		 FROM orders`,
	).Scan(&stats.TotalOrders, &stats.TodayOrders, &stats.ActiveOrders, &stats.DeliveredRevenue)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to get order stats: %w", err)
	}
	return stats, nil
}
