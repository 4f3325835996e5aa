package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

// MenuService определяет операции с меню и витриной.
type MenuService interface {
	Categories(ctx context.Context) ([]*domain.Category, error)
	Items(ctx context.Context, categoryID *int64) ([]*domain.MenuItem, error)
	Item(ctx context.Context, id int64) (*domain.MenuItem, error)
	Stories(ctx context.Context) ([]*domain.Story, error)
	AddItem(ctx context.Context, actorID int64, item domain.MenuItem) (int64, error)
	UpdateItem(ctx context.Context, actorID int64, item domain.MenuItem) error
	DeleteItem(ctx context.Context, actorID, id int64) error
	ExportJSON(ctx context.Context, actorID int64) ([]byte, error)
	ImportJSON(ctx context.Context, actorID int64, data []byte) error
}

type MenuHandler struct {
	menuService MenuService
	logger      *zap.Logger
}

func NewMenuHandler(menuService MenuService, logger *zap.Logger) *MenuHandler {
	return &MenuHandler{
		menuService: menuService,
		logger:      logger,
	}
}

// Categories возвращает активные категории меню
func (h *MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.menuService.Categories(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, categories)
}

// Items возвращает доступные позиции меню, опционально по категории
func (h *MenuHandler) Items(w http.ResponseWriter, r *http.Request) {
	var categoryID *int64
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		categoryID = &id
	}

	items, err := h.menuService.Items(r.Context(), categoryID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, items)
}

// Item возвращает один пункт меню
func (h *MenuHandler) Item(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	item, err := h.menuService.Item(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, item)
}

// Stories возвращает активные сторис витрины
func (h *MenuHandler) Stories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.menuService.Stories(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, stories)
}

type menuItemRequest struct {
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"gte=0"`
	ImageURL    string `json:"image_url"`
	IsAvailable bool   `json:"is_available"`
	IsNew       bool   `json:"is_new"`
	SortOrder   int    `json:"sort_order"`
}

func (req menuItemRequest) toDomain() domain.MenuItem {
	return domain.MenuItem{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable,
		IsNew:       req.IsNew,
		SortOrder:   req.SortOrder,
	}
}

// AddItem добавляет пункт меню
func (h *MenuHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	id, err := h.menuService.AddItem(r.Context(), accountID, req.toDomain())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateItem обновляет пункт меню
func (h *MenuHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
		return
	}

	item := req.toDomain()
	item.ID = id

	if err := h.menuService.UpdateItem(r.Context(), accountID, item); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteItem удаляет пункт меню
func (h *MenuHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := h.menuService.DeleteItem(r.Context(), accountID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Export выгружает полное меню в JSON
func (h *MenuHandler) Export(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := h.menuService.ExportJSON(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="menu.json"`)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write menu export", zap.Error(err))
	}
}

// Import применяет документ меню из JSON
func (h *MenuHandler) Import(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := h.menuService.ImportJSON(r.Context(), accountID, data); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
