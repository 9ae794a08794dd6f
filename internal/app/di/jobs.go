package di

import (
	"fmt"

	"gorm.io/gorm"

	eodusecase "stock_sync/internal/feature/eod/usecase"
	finusecase "stock_sync/internal/feature/financials/usecase"
	logosusecase "stock_sync/internal/feature/logos/usecase"
	pricesusecase "stock_sync/internal/feature/prices/usecase"
	"stock_sync/internal/feature/securities/adapters"
	syncusecase "stock_sync/internal/feature/synclog/usecase"
	universeusecase "stock_sync/internal/feature/universe/usecase"
	"stock_sync/internal/platform/calendar"
	"stock_sync/internal/platform/config"
	infrahttp "stock_sync/internal/platform/http"
	"stock_sync/internal/platform/storage"
	"stock_sync/internal/shared/ratelimiter"
)

// Jobs holds the five sync jobs in trigger order.
type Jobs struct {
	Prices     syncusecase.Job
	EOD        syncusecase.Job
	Profiles   syncusecase.Job
	Financials syncusecase.Job
	Logos      syncusecase.Job
}

// All returns every job.
func (j *Jobs) All() []syncusecase.Job {
	return []syncusecase.Job{j.Prices, j.EOD, j.Profiles, j.Financials, j.Logos}
}

// ByName returns the job registered under name.
func (j *Jobs) ByName(name string) (syncusecase.Job, bool) {
	for _, job := range j.All() {
		if job.Name() == name {
			return job, true
		}
	}
	return nil, false
}

// NewJobs wires the provider gateway, repositories, object store and trading calendar
// into the sync jobs.
func NewJobs(cfg *config.Config, db *gorm.DB) (*Jobs, error) {
	gate, err := calendar.NewWindowGateFromSpec(cfg.Market.Timezone, cfg.Market.Sessions)
	if err != nil {
		return nil, fmt.Errorf("market sessions: %w", err)
	}
	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}

	market := NewMarket(cfg.Provider)

	// Repository
	instruments := adapters.NewInstrumentRepository(db)
	bars := adapters.NewDailyBarRepository(db)
	financials := adapters.NewFinancialsRepository(db)
	funds := adapters.NewFundRepository(db)

	downloader := infrahttp.NewDownloader(infrahttp.NewHTTPClient(cfg.Provider.Timeout), infrahttp.DefaultMaxDownloadBytes)

	return &Jobs{
		Prices: pricesusecase.NewPricesUsecase(market, instruments, gate),
		EOD:    eodusecase.NewEODUsecase(market, instruments, bars, gate),
		Profiles: universeusecase.NewUniverseUsecase(market, instruments, funds,
			ratelimiter.NewPacer(cfg.Jobs.ProfileDelay),
			universeusecase.Config{
				ExchangeSuffix: cfg.Provider.ExchangeSuffix,
				Currency:       cfg.Market.Currency,
				OwnedLogoURL:   store.PublicURL(""),
			}),
		Financials: finusecase.NewFinancialsUsecase(market, instruments, financials, funds,
			ratelimiter.NewPacer(cfg.Jobs.FinancialsDelay),
			finusecase.Config{
				StatementLimit: cfg.Jobs.StatementLimit,
				Currency:       cfg.Market.Currency,
			}),
		Logos: logosusecase.NewLogosUsecase(market, downloader, store, instruments,
			ratelimiter.NewPacer(cfg.Jobs.LogoDelay)),
	}, nil
}
