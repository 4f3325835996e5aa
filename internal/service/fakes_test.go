package service

import (
	"context"
	"sync"
	"time"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

// fakeAccountRepo держит аккаунты в памяти
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[int64]*domain.Account)}
}

func (r *fakeAccountRepo) put(acc *domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[acc.ID] = acc
}

func (r *fakeAccountRepo) Upsert(_ context.Context, id int64, profile domain.AccountProfile, welcomeBonus int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if acc, ok := r.accounts[id]; ok {
		acc.Username = profile.Username
		acc.FirstName = profile.FirstName
		acc.LastName = profile.LastName
		cp := *acc
		return &cp, nil
	}

	acc := &domain.Account{
		ID:        id,
		Username:  profile.Username,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Role:      domain.RoleUser,
		Bonus:     welcomeBonus,
		CreatedAt: time.Now(),
	}
	r.accounts[id] = acc
	cp := *acc
	return &cp, nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeAccountRepo) UpdateAddress(_ context.Context, id int64, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Address = address
	return nil
}

func (r *fakeAccountRepo) UpdatePhone(_ context.Context, id int64, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Phone = phone
	return nil
}

func (r *fakeAccountRepo) UpdateRole(_ context.Context, id int64, role domain.Role) (*domain.Account, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		acc = &domain.Account{ID: id, Role: role, CreatedAt: time.Now()}
		r.accounts[id] = acc
	}
	acc.Role = role
	cp := *acc
	return &cp, nil
}

func (r *fakeAccountRepo) ListByRole(_ context.Context, role domain.Role) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Account
	for _, acc := range r.accounts {
		if acc.Role == role {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) EnsureDirector(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if acc, ok := r.accounts[id]; ok {
		acc.Role = domain.RoleDirector
		return nil
	}
	r.accounts[id] = &domain.Account{ID: id, Role: domain.RoleDirector}
	return nil
}

func (r *fakeAccountRepo) CountAccounts(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.accounts)), nil
}

func (r *fakeAccountRepo) bonus(id int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[id]; ok {
		return acc.Bonus
	}
	return 0
}

func (r *fakeAccountRepo) cashback(id int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[id]; ok {
		return acc.Cashback
	}
	return 0
}

// fakeOrderRepo держит заказы в памяти и воспроизводит семантику
// условных обновлений статуса
type fakeOrderRepo struct {
	mu       sync.Mutex
	orders   map[int64]*domain.Order
	accounts *fakeAccountRepo
	nextID   int64
}

func newFakeOrderRepo(accounts *fakeAccountRepo) *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[int64]*domain.Order),
		accounts: accounts,
		nextID:   1,
	}
}

func (r *fakeOrderRepo) put(order *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	if order.ID >= r.nextID {
		r.nextID = order.ID + 1
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, params domain.CreateOrderParams) (*domain.Order, error) {
	r.accounts.mu.Lock()
	acc, ok := r.accounts.accounts[params.CustomerID]
	if !ok {
		r.accounts.mu.Unlock()
		return nil, domain.ErrAccountNotFound
	}
	bonusUsed := domain.EligibleBonus(params.ItemsTotal, acc.Bonus, params.RequestedBonus)
	acc.Bonus -= bonusUsed
	r.accounts.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	order := &domain.Order{
		ID:            r.nextID,
		CustomerID:    params.CustomerID,
		Items:         params.Items,
		TotalPrice:    params.ItemsTotal - bonusUsed,
		BonusUsed:     bonusUsed,
		Address:       params.Address,
		Status:        domain.OrderStatusPending,
		PaymentMethod: params.PaymentMethod,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     time.Now(),
	}
	r.nextID++
	r.orders[order.ID] = order
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) ListByCustomer(_ context.Context, customerID int64, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID && len(out) < limit {
			cp := *order
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByCourier(_ context.Context, courierID int64) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Order
	for _, order := range r.orders {
		if order.CourierID == nil || *order.CourierID != courierID {
			continue
		}
		if order.Status == domain.OrderStatusReady || order.Status == domain.OrderStatusDelivering {
			cp := *order
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListActive(_ context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Order
	for _, order := range r.orders {
		switch order.Status {
		case domain.OrderStatusPending, domain.OrderStatusConfirmed,
			domain.OrderStatusCooking, domain.OrderStatusReady:
			cp := *order
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return domain.ErrStatusConflict
	}
	order.Status = to
	return nil
}

func (r *fakeOrderRepo) Deliver(_ context.Context, id int64, customerID, cashback int64) error {
	r.mu.Lock()
	order, ok := r.orders[id]
	if !ok || order.Status != domain.OrderStatusDelivering {
		r.mu.Unlock()
		return domain.ErrStatusConflict
	}
	order.Status = domain.OrderStatusDelivered
	r.mu.Unlock()

	r.accounts.mu.Lock()
	if acc, ok := r.accounts.accounts[customerID]; ok {
		acc.Cashback += cashback
	}
	r.accounts.mu.Unlock()
	return nil
}

func (r *fakeOrderRepo) Cancel(_ context.Context, id int64, from domain.OrderStatus, customerID, bonusRefund, cashbackRefund int64) error {
	r.mu.Lock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		r.mu.Unlock()
		return domain.ErrStatusConflict
	}
	order.Status = domain.OrderStatusCancelled
	r.mu.Unlock()

	r.accounts.mu.Lock()
	if acc, ok := r.accounts.accounts[customerID]; ok {
		acc.Bonus += bonusRefund
		acc.Cashback += cashbackRefund
	}
	r.accounts.mu.Unlock()
	return nil
}

func (r *fakeOrderRepo) AssignCourier(_ context.Context, id int64, courierID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrStatusConflict
	}
	if order.Status != domain.OrderStatusCooking && order.Status != domain.OrderStatusReady {
		return domain.ErrStatusConflict
	}
	order.CourierID = &courierID
	order.Status = domain.OrderStatusReady
	return nil
}

func (r *fakeOrderRepo) SetPaymentStatus(_ context.Context, id int64, status domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.PaymentStatus = status
	return nil
}

func (r *fakeOrderRepo) Stats(_ context.Context) (*domain.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &domain.OrderStats{TotalOrders: int64(len(r.orders))}
	for _, order := range r.orders {
		if !order.Status.Terminal() {
			stats.ActiveOrders++
		}
		if order.Status == domain.OrderStatusDelivered {
			stats.DeliveredRevenue += order.TotalPrice
		}
	}
	return stats, nil
}

// fakeMenuRepo держит меню в памяти
type fakeMenuRepo struct {
	mu         sync.Mutex
	categories map[int64]*domain.Category
	items      map[int64]*domain.MenuItem
	stories    []*domain.Story
	nextItemID int64
}

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{
		categories: make(map[int64]*domain.Category),
		items:      make(map[int64]*domain.MenuItem),
		nextItemID: 1,
	}
}

func (r *fakeMenuRepo) ListCategories(_ context.Context) ([]*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Category
	for _, cat := range r.categories {
		cp := *cat
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeMenuRepo) ListItems(_ context.Context, categoryID *int64) ([]*domain.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.MenuItem
	for _, item := range r.items {
		if categoryID != nil && item.CategoryID != *categoryID {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeMenuRepo) GetItem(_ context.Context, id int64) (*domain.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrMenuItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeMenuRepo) AddItem(_ context.Context, item domain.MenuItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.ID = r.nextItemID
	r.nextItemID++
	r.items[item.ID] = &item
	return item.ID, nil
}

func (r *fakeMenuRepo) UpdateItem(_ context.Context, item domain.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return domain.ErrMenuItemNotFound
	}
	r.items[item.ID] = &item
	return nil
}

func (r *fakeMenuRepo) DeleteItem(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrMenuItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMenuRepo) ListStories(_ context.Context) ([]*domain.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Story(nil), r.stories...), nil
}

func (r *fakeMenuRepo) ReplaceMenu(_ context.Context, doc domain.MenuDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cat := range doc.Categories {
		cp := cat
		r.categories[cat.ID] = &cp
	}
	for _, item := range doc.Items {
		cp := item
		r.items[item.ID] = &cp
		if item.ID >= r.nextItemID {
			r.nextItemID = item.ID + 1
		}
	}
	return nil
}

// captureNotifier собирает опубликованные события
type captureNotifier struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (n *captureNotifier) Publish(event domain.OrderEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *captureNotifier) all() []domain.OrderEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.OrderEvent(nil), n.events...)
}
