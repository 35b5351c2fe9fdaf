package store

import (
	"context"
	"fmt"

	"recipe-linker/internal/core/association"
	"recipe-linker/internal/infrastructure/config"
	"recipe-linker/internal/infrastructure/database"
	"recipe-linker/internal/pkg/common"

	"go.uber.org/zap"
)

// New 依設定建立儲存後端，開啟快取時外層再包一層 LRU
func New(ctx context.Context, cfg *config.Config) (association.Store, error) {
	var backend association.Store

	switch cfg.Store.Backend {
	case "redis":
		redisStore, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		backend = redisStore
	case "database", "":
		db, err := database.Open(cfg.Database, cfg.App.Debug)
		if err != nil {
			return nil, err
		}
		gormStore := NewGormStore(db)
		if err := gormStore.Init(ctx); err != nil {
			_ = gormStore.Close()
			return nil, err
		}
		backend = gormStore
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}

	common.LogInfo("關聯儲存已初始化",
		zap.String("backend", cfg.Store.Backend),
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	if !cfg.Cache.Enabled {
		return backend, nil
	}
	cached, err := NewCachedStore(backend, cfg.Cache.MaxSize, cfg.Cache.TTL)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return cached, nil
}
