package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	eodusecase "stock_sync/internal/feature/eod/usecase"
	finusecase "stock_sync/internal/feature/financials/usecase"
	logosusecase "stock_sync/internal/feature/logos/usecase"
	pricesusecase "stock_sync/internal/feature/prices/usecase"
	synclogadapters "stock_sync/internal/feature/synclog/adapters"
	syncusecase "stock_sync/internal/feature/synclog/usecase"
	universeusecase "stock_sync/internal/feature/universe/usecase"
	"stock_sync/internal/platform/config"
	"stock_sync/internal/platform/lease"
)

// NewRunner creates the job runner.
// If Redis is available, each job run holds a per-job lease.
// Otherwise, overlapping runs of the same job are not prevented.
func NewRunner(db *gorm.DB, rdb *redis.Client, cfg config.JobsConfig) *syncusecase.Runner {
	opts := []syncusecase.Option{
		syncusecase.WithStaleAfter(cfg.StaleAfter),
		syncusecase.WithCeiling(pricesusecase.JobName, cfg.Ceilings.Prices),
		syncusecase.WithCeiling(eodusecase.JobName, cfg.Ceilings.EOD),
		syncusecase.WithCeiling(universeusecase.JobName, cfg.Ceilings.Profiles),
		syncusecase.WithCeiling(finusecase.JobName, cfg.Ceilings.Financials),
		syncusecase.WithCeiling(logosusecase.JobName, cfg.Ceilings.Logos),
	}
	if rdb != nil {
		opts = append(opts, syncusecase.WithLease(lease.NewRedisLease(rdb, cfg.LeasePrefix)))
	}
	return syncusecase.NewRunner(synclogadapters.NewSyncRunRepository(db), opts...)
}
