// Package notify содержит диспетчер уведомлений о событиях заказов.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

// Sender доставляет событие одному получателю
type Sender interface {
	Send(ctx context.Context, accountID int64, event domain.OrderEvent) error
}

// Dispatcher представляет пул воркеров доставки уведомлений.
// Публикация неблокирующая: при заполненной очереди событие отбрасывается
// с предупреждением, изменение состояния заказа при этом уже зафиксировано.
type Dispatcher struct {
	workers int
	queue   chan domain.OrderEvent
	sender  Sender
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher создает новый Dispatcher
func NewDispatcher(workers, queueSize int, sender Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		workers: workers,
		queue:   make(chan domain.OrderEvent, queueSize),
		sender:  sender,
		logger:  logger,
	}
}

// Start запускает воркеры доставки
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop останавливает диспетчер, дожидаясь доставки очереди
func (d *Dispatcher) Stop() {
	close(d.queue)
	d.wg.Wait()
}

// Publish ставит событие в очередь доставки
func (d *Dispatcher) Publish(event domain.OrderEvent) {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("notification queue is full, dropping event",
			zap.Int64("order_id", event.OrderID),
			zap.String("to", string(event.To)),
		)
	}
}

// worker доставляет события из очереди
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	d.logger.Info("notify worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notify worker stopping", zap.Int("worker_id", id))
			return
		case event, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, event)
		}
	}
}

// deliver рассылает событие всем затронутым аккаунтам
func (d *Dispatcher) deliver(ctx context.Context, event domain.OrderEvent) {
	for _, accountID := range event.AffectedAccounts {
		if err := d.sender.Send(ctx, accountID, event); err != nil {
			// Доставка best-effort: ошибка не влияет на состояние заказа
			d.logger.Error("failed to deliver notification",
				zap.Int64("order_id", event.OrderID),
				zap.Int64("account_id", accountID),
				zap.Error(err),
			)
		}
	}
}

// LogSender пишет уведомления в журнал. Используется, пока внешний канал
// доставки не настроен.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender создает новый LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send пишет уведомление в журнал
func (s *LogSender) Send(_ context.Context, accountID int64, event domain.OrderEvent) error {
	s.logger.Info("order notification",
		zap.Int64("account_id", accountID),
		zap.Int64("order_id", event.OrderID),
		zap.String("from", string(event.From)),
		zap.String("to", string(event.To)),
	)
	return nil
}
