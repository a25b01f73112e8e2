package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/config"
	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/products"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
	"github.com/vladislavdragonenkov/orders/internal/storage/postgres"
)

// Dependencies содержит зависимости приложения.
type Dependencies struct {
	Repo       domain.OrderRepository
	OutboxRepo domain.OutboxRepository
	Products   domain.ProductValidator
	Store      *postgres.Store
	Logger     *log.Entry
}

// NewDependencies инициализирует хранилище и клиента сервиса продуктов
// по конфигурации. Пустой DSN переключает на in-memory хранилище,
// пустой base_url продуктов — на встроенный mock-каталог.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.Postgres.DSN != "" {
		store, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, err
		}
		deps.Store = store
		deps.Repo = postgres.NewOrderRepository(store)
		deps.OutboxRepo = postgres.NewOutboxRepository(store)
		logger.Info("postgres storage initialized")
	} else {
		deps.Repo = memory.NewOrderRepository()
		deps.OutboxRepo = memory.NewOutboxRepository()
		logger.Warn("postgres dsn is empty, using in-memory storage")
	}

	if cfg.ProductService.BaseURL != "" {
		deps.Products = products.NewClient(cfg.ProductService.BaseURL, logger)
		logger.WithField("base_url", cfg.ProductService.BaseURL).Info("product service client initialized")
	} else {
		deps.Products = products.NewMockService(defaultMockCatalog()...)
		logger.Warn("product service url is empty, using mock catalog")
	}

	return deps, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() {
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

// defaultMockCatalog — каталог для локального запуска без сервиса продуктов.
func defaultMockCatalog() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Keyboard", PriceMinor: 1000},
		{ID: "p2", Name: "Mouse", PriceMinor: 500},
		{ID: "p3", Name: "Monitor", PriceMinor: 15000},
	}
}
