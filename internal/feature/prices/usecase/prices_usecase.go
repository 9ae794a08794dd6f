// Package usecase refreshes the live quote snapshot of active instruments during trading sessions.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stock_sync/internal/feature/securities/domain/entity"
	"stock_sync/internal/platform/calendar"
	"stock_sync/internal/platform/externalapi/fmp/dto"
)

// JobName identifies the job in the job log and trigger routes.
const JobName = "sync-prices"

// QuoteProvider は一括クォート取得のインターフェイスです。
type QuoteProvider interface {
	Quotes(ctx context.Context, symbols []string) []dto.Quote
}

// InstrumentRepository abstracts instrument persistence.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type InstrumentRepository interface {
	ListActive(ctx context.Context) ([]entity.Instrument, error)
	ApplyQuote(ctx context.Context, id uint, q entity.QuoteUpdate) error
}

// PricesUsecase はザラ場中のみクォートを反映します。
type PricesUsecase struct {
	quotes      QuoteProvider
	instruments InstrumentRepository
	gate        calendar.SessionGate
	now         func() time.Time
}

// NewPricesUsecase は新しい PricesUsecase を作成します。
func NewPricesUsecase(q QuoteProvider, i InstrumentRepository, gate calendar.SessionGate) *PricesUsecase {
	return &PricesUsecase{quotes: q, instruments: i, gate: gate, now: time.Now}
}

// Name implements the job interface.
func (u *PricesUsecase) Name() string { return JobName }

// SkipReason reports a skip outside trading sessions. The runner checks it before
// touching the store.
func (u *PricesUsecase) SkipReason(now time.Time) (string, bool) {
	if u.gate.IsOpen(now) {
		return "", false
	}
	return "Outside trading hours (" + u.gate.Describe() + ")", true
}

// Run overwrites the live snapshot of every active instrument that received a quote.
func (u *PricesUsecase) Run(ctx context.Context) (int, error) {
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

	quotes := u.quotes.Quotes(ctx, symbols)
	syncedAt := u.now()

	processed := 0
	for _, q := range quotes {
		if err := ctx.Err(); err != nil {
			return processed, fmt.Errorf("price sync interrupted after %d instruments: %w", processed, err)
		}
		id, ok := byExternal[q.Symbol]
		if !ok {
			continue
		}
		if err := u.instruments.ApplyQuote(ctx, id, QuoteFromDTO(q, syncedAt)); err != nil {
			slog.Error("failed to update quote", "job", JobName, "symbol", q.Symbol, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

// QuoteFromDTO maps a provider quote onto the live snapshot fields.
func QuoteFromDTO(q dto.Quote, now time.Time) entity.QuoteUpdate {
	return entity.QuoteUpdate{
		Price:         q.Price,
		Change1D:      q.Change,
		Change1DPct:   q.ChangesPercentage,
		Volume:        q.Shares(),
		DayOpen:       q.Open,
		DayHigh:       q.DayHigh,
		DayLow:        q.DayLow,
		PreviousClose: q.PreviousClose,
		MarketCap:     q.MarketCap,
		PERatio:       q.PE,
		EPS:           q.EPS,
		SyncedAt:      now,
	}
}
