package di

import (
	"context"
	"log/slog"

	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stock_sync/internal/feature/securities/adapters"
	synclogentity "stock_sync/internal/feature/synclog/domain/entity"
	"stock_sync/internal/platform/config"
	infradb "stock_sync/internal/platform/db"
	infraredis "stock_sync/internal/platform/redis"
)

// Infra はプロセスが保持する外部接続です。
type Infra struct {
	DB    *gorm.DB
	Redis *redisv9.Client // nil when Redis is not configured or unreachable
}

// OpenInfra connects to the store and, when configured, to Redis.
// Redis に接続できない場合はリースなしで続行します。
func OpenInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	models := append(adapters.Models(), &synclogentity.SyncRun{})
	db, err := infradb.OpenDB(cfg.Database, models...)
	if err != nil {
		return nil, err
	}

	infra := &Infra{DB: db}
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable. Running without job lease.", "error", err)
		} else {
			infra.Redis = rdb
		}
	}
	return infra, nil
}

// Close releases the connections.
func (i *Infra) Close() {
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
	if sqlDB, err := i.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
}
