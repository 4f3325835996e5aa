package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

const menuItemColumns = `id, category_id, name, description, price, image_url, is_available, is_new, sort_order, created_at`

// MenuRepository реализует domain.MenuRepository
type MenuRepository struct {
	db DBTX
}

// NewMenuRepository создает новый MenuRepository
func NewMenuRepository(db DBTX) *MenuRepository {
	return &MenuRepository{db: db}
}

func scanMenuItem(row pgx.Row) (*domain.MenuItem, error) {
	item := &domain.MenuItem{}
	err := row.Scan(
		&item.ID, &item.CategoryID, &item.Name, &item.Description,
		&item.Price, &item.ImageURL, &item.IsAvailable, &item.IsNew,
		&item.SortOrder, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListCategories получает активные категории в порядке сортировки
func (r *MenuRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, emoji, sort_order, is_active FROM categories
		 WHERE is_active ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		cat := &domain.Category{}
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Emoji, &cat.SortOrder, &cat.IsActive); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}
	return categories, nil
}

// ListItems получает доступные позиции меню, опционально по категории
func (r *MenuRepository) ListItems(ctx context.Context, categoryID *int64) ([]*domain.MenuItem, error) {
	sql := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE is_available`
	var args []any
	if categoryID != nil {
		sql += ` AND category_id = $1`
		args = append(args, *categoryID)
	}
	sql += ` ORDER BY sort_order, id`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list menu items: %w", err)
	}
	defer rows.Close()

	var items []*domain.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating menu items: %w", err)
	}
	return items, nil
}

// GetItem получает пункт меню по ID
func (r *MenuRepository) GetItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)

	item, err := scanMenuItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to get menu item %d: %w", id, err)
	}
	return item, nil
}

// AddItem добавляет новый пункт меню и возвращает его ID
func (r *MenuRepository) AddItem(ctx context.Context, item domain.MenuItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO menu_items (category_id, name, description, price, image_url, is_available, is_new, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		item.CategoryID, item.Name, item.Description, item.Price,
		item.ImageURL, item.IsAvailable, item.IsNew, item.SortOrder,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return 0, fmt.Errorf("repository: category %d does not exist: %w", item.CategoryID, err)
		}
		return 0, fmt.Errorf("repository: failed to add menu item: %w", err)
	}
	return id, nil
}

// UpdateItem обновляет пункт меню целиком
func (r *MenuRepository) UpdateItem(ctx context.Context, item domain.MenuItem) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE menu_items SET
		     category_id = $2, name = $3, description = $4, price = $5,
		     image_url = $6, is_available = $7, is_new = $8, sort_order = $9
		 WHERE id = $1`,
		item.ID, item.CategoryID, item.Name, item.Description, item.Price,
		item.ImageURL, item.IsAvailable, item.IsNew, item.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update menu item %d: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMenuItemNotFound
	}
	return nil
}

// DeleteItem удаляет пункт меню
func (r *MenuRepository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete menu item %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMenuItemNotFound
	}
	return nil
}

// ListStories получает активные сторис в порядке сортировки
func (r *MenuRepository) ListStories(ctx context.Context) ([]*domain.Story, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, image_url, link, story_type, is_active, sort_order
		 FROM stories WHERE is_active ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list stories: %w", err)
	}
	defer rows.Close()

	var stories []*domain.Story
	for rows.Next() {
		st := &domain.Story{}
		err := rows.Scan(&st.ID, &st.Title, &st.Description, &st.ImageURL,
			&st.Link, &st.Type, &st.IsActive, &st.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan story: %w", err)
		}
		stories = append(stories, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating stories: %w", err)
	}
	return stories, nil
}

// ReplaceMenu применяет документ импорта в одной транзакции.
// Категории и позиции перезаписываются по ID: существующие обновляются,
// новые вставляются. Исторические заказы не затрагиваются, так как хранят
// снимки позиций.
func (r *MenuRepository) ReplaceMenu(ctx context.Context, doc domain.MenuDocument) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, cat := range doc.Categories {
		_, err = tx.Exec(ctx,
			`INSERT INTO categories (id, name, emoji, sort_order, is_active)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
			     name = EXCLUDED.name,
			     emoji = EXCLUDED.emoji,
			     sort_order = EXCLUDED.sort_order,
			     is_active = EXCLUDED.is_active`,
			cat.ID, cat.Name, cat.Emoji, cat.SortOrder, cat.IsActive,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to import category %d: %w", cat.ID, err)
		}
	}

	for _, item := range doc.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO menu_items (id, category_id, name, description, price, image_url, is_available, is_new, sort_order)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET
			     category_id = EXCLUDED.category_id,
			     name = EXCLUDED.name,
			     description = EXCLUDED.description,
			     price = EXCLUDED.price,
			     image_url = EXCLUDED.image_url,
			     is_available = EXCLUDED.is_available,
			     is_new = EXCLUDED.is_new,
			     sort_order = EXCLUDED.sort_order`,
			item.ID, item.CategoryID, item.Name, item.Description, item.Price,
			item.ImageURL, item.IsAvailable, item.IsNew, item.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to import menu item %d: %w", item.ID, err)
		}
	}

	// Импортированные ID не должны ломать автоинкремент для последующих вставок
	_, err = tx.Exec(ctx, `SELECT setval('categories_id_seq', (SELECT COALESCE(MAX(id), 1) FROM categories))`)
	if err != nil {
		return fmt.Errorf("repository: failed to advance categories sequence: %w", err)
	}
	_, err = tx.Exec(ctx, `SELECT setval('menu_items_id_seq', (SELECT COALESCE(MAX(id), 1) FROM menu_items))`)
	if err != nil {
		return fmt.Errorf("repository: failed to advance menu_items sequence: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit menu import: %w", err)
	}
	return nil
}
