package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
	healthcheck "github.com/Dasieloski/dasieloski-store/internal/health"
	"github.com/Dasieloski/dasieloski-store/internal/session"
	"github.com/Dasieloski/dasieloski-store/internal/storage/memory"
	"github.com/Dasieloski/dasieloski-store/internal/storage/postgres"
)

// runtimeDependencies — репозитории выбранного драйвера и хук их закрытия.
type runtimeDependencies struct {
	categories      domain.CategoryRepository
	products        domain.ProductRepository
	currencies      domain.CurrencyRepository
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository
	storageChecker  healthcheck.Checker
	closeFn         func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		categories := memory.NewCategoryRepository()
		return runtimeDependencies{
			categories:      categories,
			products:        memory.NewProductRepository(categories),
			currencies:      memory.NewCurrencyRepository(),
			outboxRepo:      memory.NewOutboxRepository(),
			idempotencyRepo: memory.NewIdempotencyRepository(),
			storageChecker: healthcheck.NewSimpleChecker("storage", func(context.Context) error {
				return nil
			}),
		}, nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return runtimeDependencies{}, fmt.Errorf("postgres dsn is required for postgres storage driver")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return runtimeDependencies{}, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}
		return runtimeDependencies{
			categories:      postgres.NewCategoryRepository(store),
			products:        postgres.NewProductRepository(store),
			currencies:      postgres.NewCurrencyRepository(store),
			outboxRepo:      postgres.NewOutboxRepository(store),
			idempotencyRepo: postgres.NewIdempotencyRepository(store),
			storageChecker:  healthcheck.NewSimpleChecker("storage", store.Ping),
			closeFn:         store.Close,
		}, nil
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// initSessionStore создаёт хранилище слотов сессий; для redis проверяет соединение.
func initSessionStore(ctx context.Context, cfg Config, logger *log.Entry) (domain.SessionStore, func() error, error) {
	switch cfg.SessionDriver {
	case "", SessionDriverMemory:
		return session.NewMemoryStore(), func() error { return nil }, nil
	case SessionDriverRedis:
		if cfg.RedisAddr == "" {
			return nil, nil, fmt.Errorf("redis addr is required for redis session driver")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := session.NewRedisStore(client)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.WithField("addr", cfg.RedisAddr).Info("redis session store initialized")
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session driver %q", cfg.SessionDriver)
	}
}
