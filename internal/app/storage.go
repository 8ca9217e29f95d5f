// Package app wires configuration into concrete adapters and services.
// cmd/server, cmd/sweep, cmd/migrate and cmd/seed share it so every binary
// sees the same backend for the same environment.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/adapters/database"
	"github.com/kevin07696/mealplan-service/internal/adapters/memory"
	"github.com/kevin07696/mealplan-service/internal/adapters/mongodb"
	"github.com/kevin07696/mealplan-service/internal/adapters/postgres"
	"github.com/kevin07696/mealplan-service/internal/adapters/redislock"
	"github.com/kevin07696/mealplan-service/internal/config"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
)

// Repositories is the backend-neutral repository set
type Repositories struct {
	MealPlans     ports.MealPlanRepository
	Subscriptions ports.SubscriptionRepository
	Orders        ports.OrderRepository
	Notifications ports.NotificationRepository
	Restaurants   ports.RestaurantDirectory
	Customers     ports.CustomerDirectory
	Directory     ports.DirectoryWriter
}

// Storage is an open backend
type Storage struct {
	Repositories
	Backend string

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// Ping checks the backend connection
func (s *Storage) Ping(ctx context.Context) error { return s.ping(ctx) }

// Migrate applies the Postgres schema or the Mongo indexes. No-op for memory.
func (s *Storage) Migrate(ctx context.Context) error { return s.migrate(ctx) }

// Close releases the connection
func (s *Storage) Close(ctx context.Context) error { return s.close(ctx) }

func noop(context.Context) error { return nil }

// OpenStorage connects to the configured backend
func OpenStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Storage, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		store := memory.NewStore()
		dir := store.Directory()
		logger.Warn("Using in-memory storage; data is lost on exit")
		return &Storage{
			Repositories: Repositories{
				MealPlans:     store.MealPlans(),
				Subscriptions: store.Subscriptions(),
				Orders:        store.Orders(),
				Notifications: store.Notifications(),
				Restaurants:   dir,
				Customers:     dir,
				Directory:     dir,
			},
			Backend: config.BackendMemory,
			ping:    noop,
			migrate: noop,
			close:   noop,
		}, nil

	case config.BackendPostgres:
		dbCfg := database.DefaultPostgreSQLConfig(cfg.DatabaseURL)
		if cfg.MaxConns > 0 {
			dbCfg.MaxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			dbCfg.MinConns = cfg.MinConns
		}
		adapter, err := database.NewPostgreSQLAdapter(ctx, dbCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		monitorCtx, stopMonitor := context.WithCancel(context.Background())
		adapter.MonitorPool(monitorCtx)
		store := postgres.NewStore(adapter.Pool())
		dir := store.Directory()
		return &Storage{
			Repositories: Repositories{
				MealPlans:     store.MealPlans(),
				Subscriptions: store.Subscriptions(),
				Orders:        store.Orders(),
				Notifications: store.Notifications(),
				Restaurants:   dir,
				Customers:     dir,
				Directory:     dir,
			},
			Backend: config.BackendPostgres,
			ping:    adapter.Ping,
			migrate: store.Migrate,
			close: func(context.Context) error {
				stopMonitor()
				adapter.Close()
				return nil
			},
		}, nil

	case config.BackendMongo:
		store, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase}, logger)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		dir := store.Directory()
		return &Storage{
			Repositories: Repositories{
				MealPlans:     store.MealPlans(),
				Subscriptions: store.Subscriptions(),
				Orders:        store.Orders(),
				Notifications: store.Notifications(),
				Restaurants:   dir,
				Customers:     dir,
				Directory:     dir,
			},
			Backend: config.BackendMongo,
			ping:    store.Ping,
			migrate: store.EnsureIndexes,
			close:   store.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// Locker is the sweep lock plus its connection, if any
type Locker struct {
	ports.SweepLocker
	client *redis.Client
}

// OpenLocker uses Redis when an address is configured and the in-process lock otherwise
func OpenLocker(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Locker, error) {
	if cfg.Addr == "" {
		logger.Info("Sweep lock is process-local; set REDIS_ADDR when running replicas")
		return &Locker{SweepLocker: memory.NewLocker()}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := resilience.Retry(ctx, 3, resilience.DefaultExponentialBackoff(), ping); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Sweep lock backed by Redis", zap.String("addr", cfg.Addr))
	return &Locker{SweepLocker: redislock.New(client), client: client}, nil
}

// Ping checks the Redis connection
func (l *Locker) Ping(ctx context.Context) error {
	if l.client == nil {
		return nil
	}
	return l.client.Ping(ctx).Err()
}

// Close releases the Redis connection
func (l *Locker) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
