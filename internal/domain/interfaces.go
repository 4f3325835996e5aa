package domain

import "context"

// AccountProfile содержит профильные поля, обновляемые при повторном контакте.
// Роль и балансы при повторном контакте не затрагиваются.
type AccountProfile struct {
	Username  string
	FirstName string
	LastName  string
}

// CreateOrderParams содержит параметры создания заказа.
// ItemsTotal — сумма позиций до применения скидок.
type CreateOrderParams struct {
	CustomerID     int64
	Items          []OrderItem
	ItemsTotal     int64
	RequestedBonus int64
	Address        string
	PaymentMethod  string
}

// MenuDocument представляет полное меню для экспорта и импорта
type MenuDocument struct {
	Categories []Category `json:"categories"`
	Items      []MenuItem `json:"items"`
}

// AccountRepository определяет методы для работы с аккаунтами
type AccountRepository interface {
	// Upsert создает аккаунт с приветственным бонусом либо обновляет
	// профильные поля существующего, сохраняя роль и балансы.
	Upsert(ctx context.Context, id int64, profile AccountProfile, welcomeBonus int64) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	UpdateAddress(ctx context.Context, id int64, address string) error
	UpdatePhone(ctx context.Context, id int64, phone string) error
	// UpdateRole меняет роль аккаунта; несуществующий аккаунт создается
	// без приветственного бонуса (директор добавляет персонал по ID).
	UpdateRole(ctx context.Context, id int64, role Role) (*Account, error)
	ListByRole(ctx context.Context, role Role) ([]*Account, error)
	// EnsureDirector идемпотентно закрепляет роль директора за id при старте
	EnsureDirector(ctx context.Context, id int64) error
	CountAccounts(ctx context.Context) (int64, error)
}

// OrderRepository определяет методы для работы с заказами.
// Методы изменения статуса выполняют условное обновление (check-and-set):
// при конкурентном изменении возвращается ErrStatusConflict.
type OrderRepository interface {
	// Create атомарно списывает применимые бонусы и создает заказ
	// в одной транзакции под advisory-блокировкой по аккаунту.
	Create(ctx context.Context, params CreateOrderParams) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64, limit int) ([]*Order, error)
	ListByCourier(ctx context.Context, courierID int64) ([]*Order, error)
	ListActive(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to OrderStatus) error
	// Deliver переводит заказ delivering → delivered и начисляет кешбэк
	// владельцу в одной транзакции.
	Deliver(ctx context.Context, id int64, customerID, cashback int64) error
	// Cancel переводит заказ в cancelled и возвращает использованные
	// бонусы и кешбэк владельцу в одной транзакции.
	Cancel(ctx context.Context, id int64, from OrderStatus, customerID, bonusRefund, cashbackRefund int64) error
	// AssignCourier назначает курьера и принудительно переводит заказ
	// в ready; допустимо только из статусов cooking и ready.
	AssignCourier(ctx context.Context, id int64, courierID int64) error
	SetPaymentStatus(ctx context.Context, id int64, status PaymentStatus) error
	Stats(ctx context.Context) (*OrderStats, error)
}

// MenuRepository определяет методы для работы с меню, категориями и сторис
type MenuRepository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	ListItems(ctx context.Context, categoryID *int64) ([]*MenuItem, error)
	GetItem(ctx context.Context, id int64) (*MenuItem, error)
	AddItem(ctx context.Context, item MenuItem) (int64, error)
	UpdateItem(ctx context.Context, item MenuItem) error
	DeleteItem(ctx context.Context, id int64) error
	ListStories(ctx context.Context) ([]*Story, error)
	// ReplaceMenu применяет документ импорта: категории и позиции
	// перезаписываются по ID в одной транзакции.
	ReplaceMenu(ctx context.Context, doc MenuDocument) error
}

// Notifier принимает события жизненного цикла для доставки затронутым
// сторонам. Доставка best-effort: сбой никогда не отменяет уже
// зафиксированное изменение состояния.
type Notifier interface {
	Publish(event OrderEvent)
}
