// Package usecase reconciles the instrument universe with the provider's listings and
// refreshes descriptive profiles.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"stock_sync/internal/feature/securities/domain/entity"
	"stock_sync/internal/platform/externalapi/fmp/dto"
	"stock_sync/internal/shared/ratelimiter"
)

// JobName identifies the job in the job log and trigger routes.
const JobName = "sync-profiles"

// Provider is the subset of the data provider this job reads.
type Provider interface {
	ListStocks(ctx context.Context) []dto.ListedSymbol
	ListFunds(ctx context.Context) []dto.ListedSymbol
	Profile(ctx context.Context, symbol string) *dto.Profile
	FundInfo(ctx context.Context, symbol string) *dto.ETFInfo
}

// InstrumentRepository abstracts instrument persistence.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type InstrumentRepository interface {
	ListAll(ctx context.Context) ([]entity.Instrument, error)
	InsertIfAbsent(ctx context.Context, inst *entity.Instrument) (bool, error)
	ApplyProfile(ctx context.Context, id uint, p entity.ProfileUpdate) error
	SetActive(ctx context.Context, ids []uint, active bool) (int64, error)
}

// FundDetailRepository abstracts fund detail persistence.
type FundDetailRepository interface {
	UpsertFundDetail(ctx context.Context, d *entity.FundDetail) error
}

// Config holds exchange settings for the reconciler.
type Config struct {
	ExchangeSuffix string // e.g. ".KL"
	Currency       string // default currency of new instruments and fund NAVs
	OwnedLogoURL   string // logos under this prefix are already mirrored and are kept
}

// UniverseUsecase inserts newly listed instruments, refreshes every profile and
// deactivates instruments that disappeared from the listings.
type UniverseUsecase struct {
	provider    Provider
	instruments InstrumentRepository
	funds       FundDetailRepository
	pacer       ratelimiter.RateLimiterInterface
	cfg         Config
	now         func() time.Time
}

// NewUniverseUsecase creates a new UniverseUsecase. pacer spaces consecutive profile calls.
func NewUniverseUsecase(p Provider, i InstrumentRepository, f FundDetailRepository, pacer ratelimiter.RateLimiterInterface, cfg Config) *UniverseUsecase {
	return &UniverseUsecase{provider: p, instruments: i, funds: f, pacer: pacer, cfg: cfg, now: time.Now}
}

// Name implements the job interface.
func (u *UniverseUsecase) Name() string { return JobName }

// Run executes the reconciliation. The processed count is the number of instruments
// whose profile was refreshed.
func (u *UniverseUsecase) Run(ctx context.Context) (int, error) {
	stocks := u.provider.ListStocks(ctx)
	funds := u.provider.ListFunds(ctx)

	// 同じシンボルが両方に載っている場合はファンドとして扱う
	listed := make(map[string]entity.AssetClass, len(stocks)+len(funds))
	order := make([]dto.ListedSymbol, 0, len(stocks)+len(funds))
	for _, s := range stocks {
		if _, dup := listed[s.Symbol]; !dup {
			order = append(order, s)
		}
		listed[s.Symbol] = entity.AssetEquity
	}
	for _, s := range funds {
		if _, dup := listed[s.Symbol]; !dup {
			order = append(order, s)
		}
		listed[s.Symbol] = entity.AssetFund
	}

	existing, err := u.instruments.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load instruments: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, inst := range existing {
		known[inst.ExternalSymbol] = struct{}{}
	}

	inserted := 0
	for _, s := range order {
		if _, ok := known[s.Symbol]; ok {
			continue
		}
		inst := entity.NewListedInstrument(s.Symbol, s.Name, u.cfg.ExchangeSuffix, u.cfg.Currency, listed[s.Symbol])
		created, err := u.instruments.InsertIfAbsent(ctx, &inst)
		if err != nil {
			slog.Error("failed to insert instrument", "job", JobName, "symbol", s.Symbol, "error", err)
			continue
		}
		if created {
			inserted++
		}
	}
	if inserted > 0 {
		slog.Info("new instruments listed", "job", JobName, "count", inserted)
	}

	all, err := u.instruments.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reload instruments: %w", err)
	}

	processed := 0
	for _, inst := range all {
		if err := ctx.Err(); err != nil {
			return processed, fmt.Errorf("profile refresh interrupted after %d instruments: %w", processed, err)
		}
		if u.refreshProfile(ctx, inst) {
			processed++
		}
	}

	// 片方のリストだけが空の場合も取得失敗とみなし、その資産クラスは無効化しない
	unlisted := map[entity.AssetClass]bool{
		entity.AssetEquity: len(stocks) == 0,
		entity.AssetFund:   len(funds) == 0,
	}
	u.reconcileActivity(ctx, all, listed, unlisted)
	return processed, nil
}

// refreshProfile overwrites the descriptive fields of one instrument and, for funds,
// its fund detail. It reports whether the profile was written.
func (u *UniverseUsecase) refreshProfile(ctx context.Context, inst entity.Instrument) bool {
	u.pacer.WaitIfNeeded()
	p := u.provider.Profile(ctx, inst.ExternalSymbol)
	if p == nil {
		slog.Warn("no profile returned", "job", JobName, "symbol", inst.ExternalSymbol)
		return false
	}

	update := ProfileFromDTO(p, inst.Symbol, u.now())
	if u.cfg.OwnedLogoURL != "" && inst.LogoURL != nil && strings.HasPrefix(*inst.LogoURL, u.cfg.OwnedLogoURL) {
		update.LogoURL = inst.LogoURL
	}
	if err := u.instruments.ApplyProfile(ctx, inst.ID, update); err != nil {
		slog.Error("failed to update profile", "job", JobName, "symbol", inst.ExternalSymbol, "error", err)
		return false
	}

	if inst.AssetClass == entity.AssetFund {
		u.pacer.WaitIfNeeded()
		if info := u.provider.FundInfo(ctx, inst.ExternalSymbol); info != nil {
			detail := FundDetailFromDTO(info, inst.ID, u.cfg.Currency)
			if err := u.funds.UpsertFundDetail(ctx, &detail); err != nil {
				slog.Error("failed to upsert fund detail", "job", JobName, "symbol", inst.ExternalSymbol, "error", err)
			}
		}
	}
	return true
}

// reconcileActivity deactivates instruments missing from the listings and reactivates
// relisted ones. It runs after inserts and profile refreshes. Instruments of an asset
// class whose listing came back empty are never deactivated.
func (u *UniverseUsecase) reconcileActivity(ctx context.Context, all []entity.Instrument, listed map[string]entity.AssetClass, unlisted map[entity.AssetClass]bool) {
	if len(listed) == 0 {
		// 空のリストはプロバイダ障害と区別できないため、全銘柄を無効化しない
		slog.Warn("provider listings are empty, skipping deactivation", "job", JobName)
		return
	}

	var delisted, relisted []uint
	for _, inst := range all {
		_, ok := listed[inst.ExternalSymbol]
		switch {
		case !ok && inst.IsActivelyTrading:
			if unlisted[inst.AssetClass] {
				continue
			}
			delisted = append(delisted, inst.ID)
		case ok && !inst.IsActivelyTrading:
			relisted = append(relisted, inst.ID)
		}
	}

	if len(delisted) > 0 {
		n, err := u.instruments.SetActive(ctx, delisted, false)
		if err != nil {
			slog.Error("failed to deactivate delisted instruments", "job", JobName, "count", len(delisted), "error", err)
		} else {
			slog.Info("instruments deactivated", "job", JobName, "count", n)
		}
	}
	if len(relisted) > 0 {
		n, err := u.instruments.SetActive(ctx, relisted, true)
		if err != nil {
			slog.Error("failed to reactivate relisted instruments", "job", JobName, "count", len(relisted), "error", err)
		} else {
			slog.Info("instruments reactivated", "job", JobName, "count", n)
		}
	}
}

// ProfileFromDTO maps a provider profile onto the descriptive fields. fallbackName is used
// when the provider has no company name.
func ProfileFromDTO(p *dto.Profile, fallbackName string, now time.Time) entity.ProfileUpdate {
	name := strings.TrimSpace(p.CompanyName)
	if name == "" {
		name = fallbackName
	}
	update := entity.ProfileUpdate{
		Name:               name,
		Sector:             optString(p.Sector),
		Industry:           optString(p.Industry),
		Description:        optString(p.Description),
		Website:            optString(p.Website),
		CEO:                optString(p.CEO),
		Employees:          parseEmployees(p.FullTimeEmployees),
		IPODate:            optDate(p.IPODate),
		LogoURL:            optString(p.Image),
		Beta:               p.Beta,
		PriceAvg50:         p.PriceAvg50,
		PriceAvg200:        p.PriceAvg200,
		LastAnnualDividend: p.LastDiv,
		SyncedAt:           now,
	}
	if p.LastDiv != nil && p.Price != nil && *p.Price > 0 {
		y := *p.LastDiv / *p.Price * 100
		update.DividendYield = &y
	}
	return update
}

// FundDetailFromDTO maps provider fund info. NAV currency defaults to currency.
func FundDetailFromDTO(info *dto.ETFInfo, fundID uint, currency string) entity.FundDetail {
	navCurrency := strings.TrimSpace(info.NAVCurrency)
	if navCurrency == "" {
		navCurrency = currency
	}
	return entity.FundDetail{
		FundID:        fundID,
		ExpenseRatio:  info.ExpenseRatio,
		AUM:           info.AUM,
		NAV:           info.NAV,
		NAVCurrency:   navCurrency,
		Issuer:        optString(info.Issuer),
		InceptionDate: optDate(info.InceptionDate),
		AssetClass:    optString(info.AssetClass),
		HoldingsCount: info.HoldingsCount,
		Category:      optString(info.Category),
	}
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optDate(s string) *time.Time {
	t, ok := dto.ParseDate(s)
	if !ok {
		return nil
	}
	return &t
}

// parseEmployees accepts "12345" or "12,345"; anything else is unknown.
func parseEmployees(s string) *int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
