package domain

import "time"

// Role представляет роль пользователя в системе
type Role string

const (
	RoleDirector Role = "director"
	RoleAdmin    Role = "admin"
	RoleCourier  Role = "courier"
	RoleUser     Role = "user"
)

// Valid проверяет, что роль входит в закрытый набор значений
func (r Role) Valid() bool {
	switch r {
	case RoleDirector, RoleAdmin, RoleCourier, RoleUser:
		return true
	}
	return false
}

// CanManageStaff сообщает, может ли роль управлять персоналом (только директор)
func (r Role) CanManageStaff() bool {
	return r == RoleDirector
}

// CanManageOrders сообщает, может ли роль управлять заказами
func (r Role) CanManageOrders() bool {
	return r == RoleAdmin || r == RoleDirector
}

// CanManageMenu сообщает, может ли роль редактировать меню
func (r Role) CanManageMenu() bool {
	return r == RoleAdmin || r == RoleDirector
}

// CanDeliver сообщает, может ли роль доставлять заказы
func (r Role) CanDeliver() bool {
	return r == RoleCourier || r == RoleAdmin || r == RoleDirector
}

// OrderStatus представляет статус заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusCooking    OrderStatus = "cooking"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid проверяет, что статус входит в закрытый набор значений
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCooking,
		OrderStatusReady, OrderStatusDelivering, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal сообщает, является ли статус конечным
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// orderTransitions определяет допустимые переходы статусов заказа.
// Линейная цепочка pending → delivered с единственным боковым выходом
// в cancelled из pending и confirmed.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusCooking, OrderStatusCancelled},
	OrderStatusCooking:    {OrderStatusReady},
	OrderStatusReady:      {OrderStatusDelivering},
	OrderStatusDelivering: {OrderStatusDelivered},
}

// CanTransitionTo сообщает, допустим ли переход из текущего статуса в next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus представляет статус оплаты заказа.
// Ось оплаты независима от статуса доставки.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid проверяет, что статус оплаты входит в закрытый набор значений
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Account представляет пользователя системы: профиль, роль и балансы
type Account struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Role      Role      `json:"role"`
	Bonus     int64     `json:"bonus"`
	Cashback  int64     `json:"cashback"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem представляет позицию заказа — снимок пункта меню на момент
// оформления. Последующие правки меню не меняют исторические заказы.
type OrderItem struct {
	ItemID   int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Order представляет заказ пользователя
type Order struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customer_id"`
	Items         []OrderItem   `json:"items"`
	TotalPrice    int64         `json:"total_price"`
	BonusUsed     int64         `json:"bonus_used"`
	CashbackUsed  int64         `json:"cashback_used"`
	Address       string        `json:"delivery_address"`
	Status        OrderStatus   `json:"status"`
	CourierID     *int64        `json:"courier_id,omitempty"`
	PaymentMethod string        `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// OrderEvent представляет результат успешного перехода жизненного цикла.
// Передается диспетчеру уведомлений; From пустой для события создания заказа.
type OrderEvent struct {
	OrderID          int64       `json:"order_id"`
	From             OrderStatus `json:"from_status,omitempty"`
	To               OrderStatus `json:"to_status"`
	ActorID          int64       `json:"actor_id"`
	AffectedAccounts []int64     `json:"affected_accounts"`
}

// OrderStats содержит агрегированную статистику заказов для персонала
type OrderStats struct {
	TotalOrders      int64 `json:"total_orders"`
	TodayOrders      int64 `json:"today_orders"`
	ActiveOrders     int64 `json:"active_orders"`
	DeliveredRevenue int64 `json:"delivered_revenue"`
	TotalAccounts    int64 `json:"total_accounts"`
}

// Category представляет категорию меню
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

// MenuItem представляет пункт меню
type MenuItem struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsAvailable bool      `json:"is_available"`
	IsNew       bool      `json:"is_new"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoryType представляет тип сторис
type StoryType string

const (
	StoryTypePromo   StoryType = "promo"
	StoryTypeNew     StoryType = "new"
	StoryTypeChannel StoryType = "channel"
)

// Story представляет промо-сторис на витрине
type Story struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Link        string    `json:"link,omitempty"`
	Type        StoryType `json:"story_type"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
}
