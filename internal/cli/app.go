package cli

import (
	"context"
	"fmt"

	"taskflow/internal/config"
	"taskflow/internal/logger"
	"taskflow/internal/model"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

// app is an opened store with the services around it.
type app struct {
	svc   *service.Services
	close func() error
}

func (a *app) Close() {
	if a.close == nil {
		return
	}
	if err := a.close(); err != nil {
		logger.Warn("close store", "error", err)
	}
}

// openApp opens the configured backend, seeds the default categories into an
// empty store and repairs category counts.
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{svc: service.New(store), close: closeStore}

	if cfg.SeedDefaultCategories {
		n, err := a.svc.Categories.SeedDefaults(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		if n > 0 {
			logger.Info("seeded default categories", "count", n)
		}
	}
	if err := a.svc.Categories.RecomputeCounts(ctx); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("store opened", "backend", cfg.StorageBackend)
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config) (repository.Store, func() error, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), nil, nil
	case config.BackendSQLite:
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		store := repository.NewGormStore(db)
		return store, store.Close, nil
	case config.BackendRedis:
		kv, err := repository.NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "taskflow:")
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		opts := repository.KVOptions{}
		if cfg.SeedDefaultCategories {
			opts.DefaultCategories = defaultCategories()
		}
		return repository.NewKVStore(kv, opts), kv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// defaultCategories is the fallback a KV store shows when its categories expire.
func defaultCategories() []model.Category {
	inputs := model.DefaultCategories()
	categories := make([]model.Category, len(inputs))
	for i, in := range inputs {
		categories[i] = model.Category{ID: int64(i + 1), Name: in.Name, Color: in.Color}
	}
	return categories
}
