package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

var orderRowColumns = []string{
	"id", "customer_id", "items", "total_price", "bonus_used", "cashback_used",
	"address", "status", "courier_id", "payment_method", "payment_status",
	"created_at", "updated_at",
}

func orderRow(id, customerID int64, status domain.OrderStatus, total, bonusUsed int64) *pgxmock.Rows {
	now := time.Now()
	items := []byte(`[{"id":1,"name":"Паста","price":600,"quantity":2}]`)
	return pgxmock.NewRows(orderRowColumns).
		AddRow(id, customerID, items, total, bonusUsed, int64(0),
			"ул. Ленина, 1", status, (*int64)(nil), "card", domain.PaymentStatusPending, now, now)
}

func TestOrderRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	params := domain.CreateOrderParams{
		CustomerID:     100,
		Items:          []domain.OrderItem{{ItemID: 1, Name: "Паста", Price: 600, Quantity: 2}},
		ItemsTotal:     1200,
		RequestedBonus: 300,
		Address:        "ул. Ленина, 1",
		PaymentMethod:  "card",
	}
	itemsJSON := []byte(`[{"id":1,"name":"Паста","price":600,"quantity":2}]`)

	t.Run("Success - bonus applied", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(int64(100)).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))

		mock.ExpectQuery(`SELECT bonus FROM accounts`).
			WithArgs(int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"bonus"}).AddRow(int64(500)))

		mock.ExpectExec(`UPDATE accounts SET bonus = bonus -`).
			WithArgs(int64(100), int64(300)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs(int64(100), itemsJSON, int64(900), int64(300), "ул. Ленина, 1", "card").
			WillReturnRows(orderRow(1, 100, domain.OrderStatusPending, 900, 300))

		mock.ExpectCommit()

		order, err := repo.Create(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(900), order.TotalPrice)
		assert.Equal(t, int64(300), order.BonusUsed)
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Len(t, order.Items, 1)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - balance caps the debit", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(int64(100)).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))

		mock.ExpectQuery(`SELECT bonus FROM accounts`).
			WithArgs(int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"bonus"}).AddRow(int64(150)))

		mock.ExpectExec(`UPDATE accounts SET bonus = bonus -`).
			WithArgs(int64(100), int64(150)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs(int64(100), itemsJSON, int64(1050), int64(150), "ул. Ленина, 1", "card").
			WillReturnRows(orderRow(2, 100, domain.OrderStatusPending, 1050, 150))

		mock.ExpectCommit()

		order, err := repo.Create(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(150), order.BonusUsed)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - small order skips the debit", func(t *testing.T) {
		small := params
		small.Items = []domain.OrderItem{{ItemID: 2, Name: "Кофе", Price: 200, Quantity: 2}}
		small.ItemsTotal = 400
		smallJSON := []byte(`[{"id":2,"name":"Кофе","price":200,"quantity":2}]`)

		mock.ExpectBegin()

		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(int64(100)).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))

		mock.ExpectQuery(`SELECT bonus FROM accounts`).
			WithArgs(int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"bonus"}).AddRow(int64(500)))

		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs(int64(100), smallJSON, int64(400), int64(0), "ул. Ленина, 1", "card").
			WillReturnRows(orderRow(3, 100, domain.OrderStatusPending, 400, 0))

		mock.ExpectCommit()

		order, err := repo.Create(ctx, small)
		require.NoError(t, err)
		assert.Equal(t, int64(0), order.BonusUsed)
		assert.Equal(t, int64(400), order.TotalPrice)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Account not found", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
			WithArgs(int64(100)).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))

		mock.ExpectQuery(`SELECT bonus FROM accounts`).
			WithArgs(int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"bonus"}))

		mock.ExpectRollback()

		order, err := repo.Create(ctx, params)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		assert.Nil(t, order)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin transaction error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("begin error"))

		order, err := repo.Create(ctx, params)
		assert.Error(t, err)
		assert.Nil(t, order)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET status`).
			WithArgs(int64(1), domain.OrderStatusPending, domain.OrderStatusConfirmed).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, 1, domain.OrderStatusPending, domain.OrderStatusConfirmed)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Status conflict - concurrent transition already won", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET status`).
			WithArgs(int64(1), domain.OrderStatusPending, domain.OrderStatusConfirmed).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 1, domain.OrderStatusPending, domain.OrderStatusConfirmed)
		assert.ErrorIs(t, err, domain.ErrStatusConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown target status", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 1, domain.OrderStatusPending, domain.OrderStatus("shipped"))
		assert.True(t, domain.IsInvalidTransition(err))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_Deliver(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Success - cashback credited", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`UPDATE orders SET status = 'delivered'`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		mock.ExpectExec(`UPDATE accounts SET cashback = cashback \+`).
			WithArgs(int64(100), int64(45)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		mock.ExpectCommit()

		err := repo.Deliver(ctx, 1, 100, 45)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Status conflict - not delivering", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`UPDATE orders SET status = 'delivered'`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		mock.ExpectRollback()

		err := repo.Deliver(ctx, 1, 100, 45)
		assert.ErrorIs(t, err, domain.ErrStatusConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Zero cashback skips the credit", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`UPDATE orders SET status = 'delivered'`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		mock.ExpectCommit()

		err := repo.Deliver(ctx, 1, 100, 0)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_Cancel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Success - bonus refunded", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`UPDATE orders SET status = 'cancelled'`).
			WithArgs(int64(1), domain.OrderStatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		mock.ExpectExec(`UPDATE accounts SET bonus = bonus \+`).
			WithArgs(int64(100), int64(300), int64(0)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		mock.ExpectCommit()

		err := repo.Cancel(ctx, 1, domain.OrderStatusPending, 100, 300, 0)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing to refund", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`UPDATE orders SET status = 'cancelled'`).
			WithArgs(int64(1), domain.OrderStatusConfirmed).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		mock.ExpectCommit()

		err := repo.Cancel(ctx, 1, domain.OrderStatusConfirmed, 100, 0, 0)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Status conflict", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectExec(`UPDATE orders SET status = 'cancelled'`).
			WithArgs(int64(1), domain.OrderStatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		mock.ExpectRollback()

		err := repo.Cancel(ctx, 1, domain.OrderStatusPending, 100, 300, 0)
		assert.ErrorIs(t, err, domain.ErrStatusConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_AssignCourier(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET courier_id`).
			WithArgs(int64(1), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.AssignCourier(ctx, 1, 7)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Status conflict - order already delivering", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET courier_id`).
			WithArgs(int64(1), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.AssignCourier(ctx, 1, 7)
		assert.ErrorIs(t, err, domain.ErrStatusConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_Listings(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("ListByCustomer", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM orders\s+WHERE customer_id`).
			WithArgs(int64(100), 10).
			WillReturnRows(orderRow(1, 100, domain.OrderStatusDelivered, 900, 300))

		orders, err := repo.ListByCustomer(ctx, 100, 10)
		require.NoError(t, err)
		assert.Len(t, orders, 1)
		assert.Equal(t, domain.OrderStatusDelivered, orders[0].Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListByCourier", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM orders\s+WHERE courier_id`).
			WithArgs(int64(7)).
			WillReturnRows(orderRow(2, 100, domain.OrderStatusReady, 400, 0))

		orders, err := repo.ListByCourier(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, orders, 1)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListActive - empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM orders\s+WHERE status IN`).
			WillReturnRows(pgxmock.NewRows(orderRowColumns))

		orders, err := repo.ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_SetPaymentStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET payment_status`).
			WithArgs(int64(1), domain.PaymentStatusPaid).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.SetPaymentStatus(ctx, 1, domain.PaymentStatusPaid)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid payment status", func(t *testing.T) {
		err := repo.SetPaymentStatus(ctx, 1, domain.PaymentStatus("unpaid"))
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Order not found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET payment_status`).
			WithArgs(int64(999), domain.PaymentStatusPaid).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SetPaymentStatus(ctx, 999, domain.PaymentStatusPaid)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_Stats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT`).
			WillReturnRows(pgxmock.NewRows([]string{"total", "today", "active", "revenue"}).
				AddRow(int64(120), int64(5), int64(3), int64(98700)))

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(120), stats.TotalOrders)
		assert.Equal(t, int64(5), stats.TodayOrders)
		assert.Equal(t, int64(3), stats.ActiveOrders)
		assert.Equal(t, int64(98700), stats.DeliveredRevenue)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
