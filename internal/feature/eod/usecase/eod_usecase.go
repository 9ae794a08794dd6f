// Package usecase records the end-of-day bar of every active instrument and recomputes
// the derived rolling statistics from the bar history.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stock_sync/internal/feature/securities/domain/entity"
	"stock_sync/internal/platform/externalapi/fmp/dto"
)

// JobName identifies the job in the job log and trigger routes.
const JobName = "sync-eod"

const (
	changeLookback = 7   // 7日騰落率の基準となる営業日数
	yearWindow     = 252 // 1年の営業日数
)

// QuoteProvider は一括クォート取得のインターフェイスです。
type QuoteProvider interface {
	Quotes(ctx context.Context, symbols []string) []dto.Quote
}

// InstrumentRepository abstracts instrument persistence.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type InstrumentRepository interface {
	ListActive(ctx context.Context) ([]entity.Instrument, error)
	Get(ctx context.Context, id uint) (*entity.Instrument, error)
	ApplyDerived(ctx context.Context, id uint, d entity.DerivedUpdate) error
}

// DailyBarRepository は日足の永続化を抽象化します。
type DailyBarRepository interface {
	// Upsert は (instrument, date) をキーに日足を挿入または更新します。
	Upsert(ctx context.Context, bar *entity.DailyBar) error
	// RecentBefore は date より前の日足を新しい順に最大 limit 件返します。
	RecentBefore(ctx context.Context, instrumentID uint, date time.Time, limit int) ([]entity.DailyBar, error)
	// Recent は date 以前（当日を含む）の日足を新しい順に最大 limit 件返します。
	Recent(ctx context.Context, instrumentID uint, date time.Time, limit int) ([]entity.DailyBar, error)
}

// TradingCalendar maps an instant to the exchange's trading date (midnight UTC).
type TradingCalendar interface {
	TradingDate(t time.Time) time.Time
}

// EODUsecase は終値の記録と派生指標の再計算を行います。
type EODUsecase struct {
	quotes      QuoteProvider
	instruments InstrumentRepository
	bars        DailyBarRepository
	calendar    TradingCalendar
	now         func() time.Time
}

// NewEODUsecase は新しい EODUsecase を作成します。
func NewEODUsecase(q QuoteProvider, i InstrumentRepository, b DailyBarRepository, c TradingCalendar) *EODUsecase {
	return &EODUsecase{quotes: q, instruments: i, bars: b, calendar: c, now: time.Now}
}

// Name implements the job interface.
func (u *EODUsecase) Name() string { return JobName }

// Run processes every active instrument that received a quote. The processed count is the
// number of instruments whose bar and derived fields were both written.
func (u *EODUsecase) Run(ctx context.Context) (int, error) {
	active, err := u.instruments.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active instruments: %w", err)
	}

	byExternal := make(map[string]uint, len(active))
	symbols := make([]string, 0, len(active))
	for _, inst := range active {
		if inst.ExternalSymbol == "" {
			continue
		}
		byExternal[inst.ExternalSymbol] = inst.ID
		symbols = append(symbols, inst.ExternalSymbol)
	}
	if len(symbols) == 0 {
		return 0, nil
	}

	now := u.now()
	today := u.calendar.TradingDate(now)
	quotes := u.quotes.Quotes(ctx, symbols)

	processed := 0
	for _, q := range quotes {
		if err := ctx.Err(); err != nil {
			return processed, fmt.Errorf("eod sync interrupted after %d instruments: %w", processed, err)
		}
		id, ok := byExternal[q.Symbol]
		if !ok {
			continue
		}
		if err := u.processOne(ctx, id, q, today, now); err != nil {
			// 1銘柄の失敗でジョブ全体は止めない
			slog.Error("failed to process eod", "job", JobName, "symbol", q.Symbol, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

// processOne writes today's bar and then the derived fields. Derived work is skipped when
// the bar could not be written.
func (u *EODUsecase) processOne(ctx context.Context, id uint, q dto.Quote, today, now time.Time) error {
	bar := BarFromQuote(id, today, q)
	if err := u.bars.Upsert(ctx, &bar); err != nil {
		return fmt.Errorf("daily bar upsert: %w", err)
	}

	prior, err := u.bars.RecentBefore(ctx, id, today, changeLookback)
	if err != nil {
		// 基準値が取れない場合は騰落率を null として続行
		slog.Warn("failed to load prior bars", "job", JobName, "symbol", q.Symbol, "error", err)
		prior = nil
	}
	window, err := u.bars.Recent(ctx, id, today, yearWindow)
	if err != nil {
		slog.Warn("failed to load year window", "job", JobName, "symbol", q.Symbol, "error", err)
		window = nil
	}
	stored, err := u.instruments.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load instrument: %w", err)
	}

	update := entity.DerivedUpdate{
		Change7DPct: Change7D(q.Price, prior),
		SyncedAt:    now,
	}
	update.YearHigh, update.YearLow = YearRange(window)

	if high, ok := RaiseHigh(stored.AllTimeHigh, q.Price); ok {
		update.AllTimeHigh = high
		update.AllTimeHighDate = &today
	}
	if low, ok := LowerLow(stored.AllTimeLow, q.Price); ok {
		update.AllTimeLow = low
		update.AllTimeLowDate = &today
	}

	if err := u.instruments.ApplyDerived(ctx, id, update); err != nil {
		return fmt.Errorf("derived update: %w", err)
	}
	return nil
}

// BarFromQuote builds the daily bar for date from a quote.
func BarFromQuote(instrumentID uint, date time.Time, q dto.Quote) entity.DailyBar {
	return entity.DailyBar{
		InstrumentID:  instrumentID,
		Date:          date,
		Open:          q.Open,
		High:          q.DayHigh,
		Low:           q.DayLow,
		Close:         q.Price,
		Volume:        q.Shares(),
		Change:        q.Change,
		ChangePercent: q.ChangesPercentage,
	}
}

// Change7D returns the percentage change of price against the close of the 7th prior bar,
// or of the oldest available one when fewer exist. prior is newest-first. A missing or
// non-positive baseline yields nil.
func Change7D(price *float64, prior []entity.DailyBar) *float64 {
	if price == nil || len(prior) == 0 {
		return nil
	}
	idx := len(prior) - 1
	if len(prior) >= changeLookback {
		idx = changeLookback - 1
	}
	base := prior[idx].Close
	if base == nil || *base <= 0 {
		return nil
	}
	pct := (*price - *base) / *base * 100
	return &pct
}

// YearRange returns max(high) and min(low) over window, ignoring nil and zero values.
// Each side is nil when no usable value exists.
func YearRange(window []entity.DailyBar) (high, low *float64) {
	for _, b := range window {
		if b.High != nil && *b.High != 0 && (high == nil || *b.High > *high) {
			v := *b.High
			high = &v
		}
		if b.Low != nil && *b.Low != 0 && (low == nil || *b.Low < *low) {
			v := *b.Low
			low = &v
		}
	}
	return high, low
}

// RaiseHigh returns price when it strictly exceeds the stored watermark or none is stored.
// A zero or missing price never moves the watermark.
func RaiseHigh(stored, price *float64) (*float64, bool) {
	if price == nil || *price == 0 {
		return nil, false
	}
	if stored == nil || *stored == 0 || *price > *stored {
		v := *price
		return &v, true
	}
	return nil, false
}

// LowerLow is the mirror of RaiseHigh with a strictly-less comparison.
func LowerLow(stored, price *float64) (*float64, bool) {
	if price == nil || *price == 0 {
		return nil, false
	}
	if stored == nil || *stored == 0 || *price < *stored {
		v := *price
		return &v, true
	}
	return nil, false
}
