package app

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/avc/cafe-delivery-system/internal/config"
	"github.com/avc/cafe-delivery-system/internal/handlers"
	"github.com/avc/cafe-delivery-system/internal/metrics"
)

// setupRouter создает и настраивает роутер
func setupRouter(cfg *config.Config, deps *dependencies, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(handlers.RequestIDMiddleware())
	r.Use(handlers.LoggingMiddleware(logger))
	r.Use(handlers.RecoveryMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.Compress(5))

	// Health check и метрики
	r.Get("/health", deps.handlers.health.Health)
	r.Get("/ready", deps.handlers.health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Публичная витрина
	r.Get("/api/menu/categories", deps.handlers.menu.Categories)
	r.Get("/api/menu/items", deps.handlers.menu.Items)
	r.Get("/api/menu/items/{itemID}", deps.handlers.menu.Item)
	r.Get("/api/menu/stories", deps.handlers.menu.Stories)

	// Клиентские эндпоинты: аутентификация по init data Telegram Web App
	r.Group(func(r chi.Router) {
		r.Use(handlers.CustomerAuthMiddleware(cfg.BotToken, cfg.AllowInsecureAuth, deps.services.account, logger))

		r.Get("/api/profile", deps.handlers.account.GetProfile)
		r.Put("/api/profile/address", deps.handlers.account.UpdateAddress)
		r.Put("/api/profile/phone", deps.handlers.account.UpdatePhone)

		r.Post("/api/orders", deps.handlers.orders.Checkout)
		r.Get("/api/orders", deps.handlers.orders.History)
		r.Get("/api/orders/{orderID}", deps.handlers.orders.GetOrder)
		r.Post("/api/orders/{orderID}/cancel", deps.handlers.orders.Cancel)

		// Обмен init data на JWT токен персонала
		r.Post("/api/staff/token", deps.handlers.staff.Token)
	})

	// Эндпоинты персонала: аутентификация по JWT
	r.Group(func(r chi.Router) {
		r.Use(handlers.StaffAuthMiddleware(deps.jwtManager))

		r.Get("/api/staff/orders/active", deps.handlers.staff.ActiveOrders)
		r.Get("/api/staff/orders/assigned", deps.handlers.staff.CourierOrders)
		r.Post("/api/staff/orders/{orderID}/status", deps.handlers.staff.SetStatus)
		r.Post("/api/staff/orders/{orderID}/courier", deps.handlers.staff.AssignCourier)
		r.Post("/api/staff/orders/{orderID}/payment", deps.handlers.staff.SetPayment)
		r.Get("/api/staff/stats", deps.handlers.staff.Stats)

		r.Post("/api/staff/roles", deps.handlers.staff.SetRole)
		r.Get("/api/staff/accounts", deps.handlers.staff.ListStaff)
		r.Get("/api/staff/couriers", deps.handlers.staff.ListCouriers)

		r.Post("/api/staff/menu/items", deps.handlers.menu.AddItem)
		r.Put("/api/staff/menu/items/{itemID}", deps.handlers.menu.UpdateItem)
		r.Delete("/api/staff/menu/items/{itemID}", deps.handlers.menu.DeleteItem)
		r.Get("/api/staff/menu/export", deps.handlers.menu.Export)
		r.Post("/api/staff/menu/import", deps.handlers.menu.Import)
	})

	return r
}
