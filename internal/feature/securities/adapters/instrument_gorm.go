// Package adapters はsecurities機能のgormリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	eodusecase "stock_sync/internal/feature/eod/usecase"
	finusecase "stock_sync/internal/feature/financials/usecase"
	logosusecase "stock_sync/internal/feature/logos/usecase"
	pricesusecase "stock_sync/internal/feature/prices/usecase"
	"stock_sync/internal/feature/securities/domain"
	"stock_sync/internal/feature/securities/domain/entity"
	universeusecase "stock_sync/internal/feature/universe/usecase"
)

type instrumentGorm struct {
	db *gorm.DB
}

var (
	_ universeusecase.InstrumentRepository = (*instrumentGorm)(nil)
	_ pricesusecase.InstrumentRepository   = (*instrumentGorm)(nil)
	_ eodusecase.InstrumentRepository      = (*instrumentGorm)(nil)
	_ finusecase.InstrumentRepository      = (*instrumentGorm)(nil)
	_ logosusecase.InstrumentRepository    = (*instrumentGorm)(nil)
)

// NewInstrumentRepository は instruments テーブルのリポジトリを生成します。
func NewInstrumentRepository(db *gorm.DB) *instrumentGorm {
	return &instrumentGorm{db: db}
}

// ListAll は全銘柄（非アクティブを含む）をID順に返します。
func (r *instrumentGorm) ListAll(ctx context.Context) ([]entity.Instrument, error) {
	var rows []entity.Instrument
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActive は外部シンボルを持つアクティブな銘柄を返します。
func (r *instrumentGorm) ListActive(ctx context.Context) ([]entity.Instrument, error) {
	var rows []entity.Instrument
	err := r.db.WithContext(ctx).
		Where("is_actively_trading = ? AND external_symbol <> ''", true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *instrumentGorm) Get(ctx context.Context, id uint) (*entity.Instrument, error) {
	var inst entity.Instrument
	if err := r.db.WithContext(ctx).First(&inst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// InsertIfAbsent は外部シンボルが未登録の場合のみ挿入し、挿入したかを返します。
func (r *instrumentGorm) InsertIfAbsent(ctx context.Context, inst *entity.Instrument) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_symbol"}},
			DoNothing: true,
		}).
		Create(inst)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *instrumentGorm) ApplyProfile(ctx context.Context, id uint, p entity.ProfileUpdate) error {
	return r.update(ctx, id, map[string]any{
		"name":                 p.Name,
		"sector":               p.Sector,
		"industry":             p.Industry,
		"description":          p.Description,
		"website":              p.Website,
		"ceo":                  p.CEO,
		"employees":            p.Employees,
		"ipo_date":             p.IPODate,
		"logo_url":             p.LogoURL,
		"beta":                 p.Beta,
		"price_avg_50":         p.PriceAvg50,
		"price_avg_200":        p.PriceAvg200,
		"dividend_yield":       p.DividendYield,
		"last_annual_dividend": p.LastAnnualDividend,
		"last_profile_sync":    p.SyncedAt,
	})
}

func (r *instrumentGorm) ApplyQuote(ctx context.Context, id uint, q entity.QuoteUpdate) error {
	return r.update(ctx, id, map[string]any{
		"price":           q.Price,
		"change_1d":       q.Change1D,
		"change_1d_pct":   q.Change1DPct,
		"volume":          q.Volume,
		"day_open":        q.DayOpen,
		"day_high":        q.DayHigh,
		"day_low":         q.DayLow,
		"previous_close":  q.PreviousClose,
		"market_cap":      q.MarketCap,
		"pe_ratio":        q.PERatio,
		"eps":             q.EPS,
		"last_price_sync": q.SyncedAt,
	})
}

// ApplyDerived は派生指標を1回の更新で書き込みます。
// 最高値・最安値は値が更新された場合のみ含めます。
func (r *instrumentGorm) ApplyDerived(ctx context.Context, id uint, d entity.DerivedUpdate) error {
	fields := map[string]any{
		"change_7d_pct": d.Change7DPct,
		"year_high":     d.YearHigh,
		"year_low":      d.YearLow,
		"last_eod_sync": d.SyncedAt,
	}
	if d.AllTimeHigh != nil {
		fields["all_time_high"] = d.AllTimeHigh
		fields["all_time_high_date"] = d.AllTimeHighDate
	}
	if d.AllTimeLow != nil {
		fields["all_time_low"] = d.AllTimeLow
		fields["all_time_low_date"] = d.AllTimeLowDate
	}
	return r.update(ctx, id, fields)
}

func (r *instrumentGorm) SetLogoURL(ctx context.Context, id uint, url string) error {
	return r.update(ctx, id, map[string]any{"logo_url": url})
}

// SetActive は ids の is_actively_trading をまとめて更新し、更新件数を返します。
func (r *instrumentGorm) SetActive(ctx context.Context, ids []uint, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&entity.Instrument{}).
		Where("id IN ?", ids).
		Update("is_actively_trading", active)
	return res.RowsAffected, res.Error
}

func (r *instrumentGorm) update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Instrument{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
