package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avc/cafe-delivery-system/internal/config"
	"github.com/avc/cafe-delivery-system/internal/domain"
	"github.com/avc/cafe-delivery-system/internal/handlers"
	"github.com/avc/cafe-delivery-system/internal/notify"
	"github.com/avc/cafe-delivery-system/internal/repository/postgres"
	"github.com/avc/cafe-delivery-system/internal/service"
	"github.com/avc/cafe-delivery-system/internal/utils/jwt"
)

// repositories содержит все репозитории приложения
type repositories struct {
	account domain.AccountRepository
	order   domain.OrderRepository
	menu    domain.MenuRepository
}

// services содержит все сервисы приложения
type services struct {
	account   *service.AccountService
	order     *service.OrderService
	lifecycle *service.LifecycleService
	menu      *service.MenuService
}

// handlerSet содержит все хендлеры приложения
type handlerSet struct {
	account *handlers.AccountHandler
	orders  *handlers.OrderHandler
	staff   *handlers.StaffHandler
	menu    *handlers.MenuHandler
	health  *handlers.HealthHandler
}

// dependencies содержит все зависимости приложения
type dependencies struct {
	repos      *repositories
	services   *services
	handlers   *handlerSet
	jwtManager *jwt.Manager
	dispatcher *notify.Dispatcher
}

// initDependencies создает все зависимости приложения
func initDependencies(cfg *config.Config, dbPool *pgxpool.Pool, logger *zap.Logger) *dependencies {
	// Создание репозиториев
	repos := &repositories{
		account: postgres.NewAccountRepository(dbPool),
		order:   postgres.NewOrderRepository(dbPool),
		menu:    postgres.NewMenuRepository(dbPool),
	}

	// Создание утилит
	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.JWTTokenTTL)
	gate := service.NewGate(repos.account, cfg.DirectorID)

	// Создание диспетчера уведомлений
	dispatcher := notify.NewDispatcher(
		cfg.NotifierWorkers,
		cfg.NotifierQueueSize,
		notify.NewLogSender(logger),
		logger,
	)

	// Создание сервисов
	svcs := &services{
		account:   service.NewAccountService(repos.account, gate, cfg.DirectorID, cfg.WelcomeBonus),
		order:     service.NewOrderService(repos.order, repos.account, gate, dispatcher),
		lifecycle: service.NewLifecycleService(repos.order, repos.account, gate, dispatcher),
		menu:      service.NewMenuService(repos.menu, gate),
	}

	// Создание handlers
	hdlrs := &handlerSet{
		account: handlers.NewAccountHandler(svcs.account, logger),
		orders:  handlers.NewOrderHandler(svcs.order, svcs.lifecycle, logger),
		staff:   handlers.NewStaffHandler(svcs.account, svcs.order, svcs.lifecycle, jwtManager, logger),
		menu:    handlers.NewMenuHandler(svcs.menu, logger),
		health:  handlers.NewHealthHandler(dbPool, logger),
	}

	return &dependencies{
		repos:      repos,
		services:   svcs,
		handlers:   hdlrs,
		jwtManager: jwtManager,
		dispatcher: dispatcher,
	}
}
