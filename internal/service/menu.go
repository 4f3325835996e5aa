package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

// MenuService предоставляет операции с меню, категориями и сторис.
// Чтение витрины публично, редактирование доступно персоналу.
type MenuService struct {
	menu domain.MenuRepository
	gate *Gate
}

// NewMenuService создает новый MenuService
func NewMenuService(menu domain.MenuRepository, gate *Gate) *MenuService {
	return &MenuService{
		menu: menu,
		gate: gate,
	}
}

// Categories получает активные категории меню
func (s *MenuService) Categories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.menu.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("menu service: failed to list categories: %w", err)
	}
	return categories, nil
}

// Items получает доступные позиции меню, опционально по категории
func (s *MenuService) Items(ctx context.Context, categoryID *int64) ([]*domain.MenuItem, error) {
	items, err := s.menu.ListItems(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("menu service: failed to list items: %w", err)
	}
	return items, nil
}

// Item получает пункт меню по ID
func (s *MenuService) Item(ctx context.Context, id int64) (*domain.MenuItem, error) {
	item, err := s.menu.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrMenuItemNotFound) {
			return nil, domain.ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("menu service: failed to get item %d: %w", id, err)
	}
	return item, nil
}

// Stories получает активные сторис витрины
func (s *MenuService) Stories(ctx context.Context) ([]*domain.Story, error) {
	stories, err := s.menu.ListStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("menu service: failed to list stories: %w", err)
	}
	return stories, nil
}

// AddItem добавляет пункт меню. Доступно персоналу.
func (s *MenuService) AddItem(ctx context.Context, actorID int64, item domain.MenuItem) (int64, error) {
	if !s.gate.Resolve(ctx, actorID).CanManageMenu() {
		return 0, domain.ErrUnauthorized
	}
	if item.Name == "" || item.Price < 0 {
		return 0, fmt.Errorf("menu service: invalid menu item %q", item.Name)
	}

	id, err := s.menu.AddItem(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("menu service: failed to add item: %w", err)
	}
	return id, nil
}

// UpdateItem обновляет пункт меню. Доступно персоналу.
func (s *MenuService) UpdateItem(ctx context.Context, actorID int64, item domain.MenuItem) error {
	if !s.gate.Resolve(ctx, actorID).CanManageMenu() {
		return domain.ErrUnauthorized
	}

	if err := s.menu.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, domain.ErrMenuItemNotFound) {
			return domain.ErrMenuItemNotFound
		}
		return fmt.Errorf("menu service: failed to update item %d: %w", item.ID, err)
	}
	return nil
}

// DeleteItem удаляет пункт меню. Доступно персоналу.
func (s *MenuService) DeleteItem(ctx context.Context, actorID, id int64) error {
	if !s.gate.Resolve(ctx, actorID).CanManageMenu() {
		return domain.ErrUnauthorized
	}

	if err := s.menu.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, domain.ErrMenuItemNotFound) {
			return domain.ErrMenuItemNotFound
		}
		return fmt.Errorf("menu service: failed to delete item %d: %w", id, err)
	}
	return nil
}

// ExportJSON выгружает полное меню в JSON. Доступно персоналу.
func (s *MenuService) ExportJSON(ctx context.Context, actorID int64) ([]byte, error) {
	if !s.gate.Resolve(ctx, actorID).CanManageMenu() {
		return nil, domain.ErrUnauthorized
	}

	categories, err := s.menu.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("menu service: failed to export categories: %w", err)
	}
	items, err := s.menu.ListItems(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("menu service: failed to export items: %w", err)
	}

	doc := domain.MenuDocument{}
	for _, cat := range categories {
		doc.Categories = append(doc.Categories, *cat)
	}
	for _, item := range items {
		doc.Items = append(doc.Items, *item)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("menu service: failed to marshal menu: %w", err)
	}
	return data, nil
}

// ImportJSON применяет документ меню из JSON. Доступно персоналу.
// Категории и позиции перезаписываются по ID в одной транзакции.
func (s *MenuService) ImportJSON(ctx context.Context, actorID int64, data []byte) error {
	if !s.gate.Resolve(ctx, actorID).CanManageMenu() {
		return domain.ErrUnauthorized
	}

	var doc domain.MenuDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("menu service: failed to parse menu document: %w", err)
	}
	if len(doc.Categories) == 0 && len(doc.Items) == 0 {
		return fmt.Errorf("menu service: menu document is empty")
	}

	for _, item := range doc.Items {
		if item.ID == 0 || item.Name == "" || item.Price < 0 {
			return fmt.Errorf("menu service: invalid item %d in menu document", item.ID)
		}
	}
	for _, cat := range doc.Categories {
		if cat.ID == 0 || cat.Name == "" {
			return fmt.Errorf("menu service: invalid category %d in menu document", cat.ID)
		}
	}

	if err := s.menu.ReplaceMenu(ctx, doc); err != nil {
		return fmt.Errorf("menu service: failed to import menu: %w", err)
	}
	return nil
}
