// Package usecase refreshes periodic statements, key metrics and peers for equities, and
// holdings and sector weights for funds.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"stock_sync/internal/feature/securities/domain/entity"
	"stock_sync/internal/platform/externalapi/fmp/dto"
	"stock_sync/internal/shared/ratelimiter"
)

// JobName identifies the job in the job log and trigger routes.
const JobName = "sync-financials"

const (
	statementPeriod       = "annual"
	defaultStatementLimit = 5
)

// Provider は財務データ取得のインターフェイスです。
type Provider interface {
	IncomeStatements(ctx context.Context, symbol, period string, limit int) []dto.IncomeStatement
	BalanceSheets(ctx context.Context, symbol, period string, limit int) []dto.BalanceSheet
	CashFlowStatements(ctx context.Context, symbol, period string, limit int) []dto.CashFlowStatement
	KeyMetrics(ctx context.Context, symbol, period string, limit int) []dto.KeyMetrics
	Peers(ctx context.Context, symbol string) []string
	FundHoldings(ctx context.Context, symbol string) []dto.ETFHolding
	FundSectorWeights(ctx context.Context, symbol string) []dto.SectorWeight
}

// InstrumentRepository abstracts instrument persistence.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type InstrumentRepository interface {
	ListActive(ctx context.Context) ([]entity.Instrument, error)
}

// FinancialsRepository は財務諸表・指標・ピアの upsert を抽象化します。
type FinancialsRepository interface {
	UpsertIncomeStatement(ctx context.Context, s *entity.IncomeStatement) error
	UpsertBalanceSheet(ctx context.Context, s *entity.BalanceSheet) error
	UpsertCashFlowStatement(ctx context.Context, s *entity.CashFlowStatement) error
	UpsertKeyMetrics(ctx context.Context, m *entity.KeyMetricsSnapshot) error
	UpsertPeer(ctx context.Context, p *entity.PeerRelation) error
}

// FundRepository はファンド構成データの upsert を抽象化します。
type FundRepository interface {
	UpsertHolding(ctx context.Context, h *entity.FundHolding) error
	UpsertSectorWeight(ctx context.Context, w *entity.FundSectorWeight) error
}

// Config holds the job settings.
type Config struct {
	StatementLimit int    // statements and metrics fetched per instrument
	Currency       string // reported currency when the provider omits it
}

// FinancialsUsecase は財務データ同期ジョブです。
type FinancialsUsecase struct {
	provider    Provider
	instruments InstrumentRepository
	financials  FinancialsRepository
	funds       FundRepository
	pacer       ratelimiter.RateLimiterInterface
	cfg         Config
}

// NewFinancialsUsecase は新しい FinancialsUsecase を作成します。
func NewFinancialsUsecase(p Provider, i InstrumentRepository, f FinancialsRepository, fr FundRepository, pacer ratelimiter.RateLimiterInterface, cfg Config) *FinancialsUsecase {
	if cfg.StatementLimit <= 0 {
		cfg.StatementLimit = defaultStatementLimit
	}
	return &FinancialsUsecase{provider: p, instruments: i, financials: f, funds: fr, pacer: pacer, cfg: cfg}
}

// Name implements the job interface.
func (u *FinancialsUsecase) Name() string { return JobName }

// Run processes equities first, then funds. Every instrument visited counts as processed;
// individual upsert failures are logged only.
func (u *FinancialsUsecase) Run(ctx context.Context) (int, error) {
	active, err := u.instruments.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active instruments: %w", err)
	}

	var equities, funds []entity.Instrument
	for _, inst := range active {
		if inst.ExternalSymbol == "" {
			continue
		}
		switch inst.AssetClass {
		case entity.AssetEquity:
			equities = append(equities, inst)
		case entity.AssetFund:
			funds = append(funds, inst)
		}
	}

	processed := 0
	for _, inst := range equities {
		if err := ctx.Err(); err != nil {
			return processed, fmt.Errorf("financials sync interrupted after %d instruments: %w", processed, err)
		}
		u.pacer.WaitIfNeeded()
		u.syncEquity(ctx, inst)
		processed++
	}
	for _, inst := range funds {
		if err := ctx.Err(); err != nil {
			return processed, fmt.Errorf("financials sync interrupted after %d instruments: %w", processed, err)
		}
		u.pacer.WaitIfNeeded()
		u.syncFund(ctx, inst)
		processed++
	}
	return processed, nil
}

func (u *FinancialsUsecase) syncEquity(ctx context.Context, inst entity.Instrument) {
	sym := inst.ExternalSymbol
	limit := u.cfg.StatementLimit

	for _, s := range u.provider.IncomeStatements(ctx, sym, statementPeriod, limit) {
		row, ok := IncomeFromDTO(inst.ID, s, u.cfg.Currency)
		if !ok {
			slog.Warn("skipping statement without a valid date", "job", JobName, "symbol", sym, "kind", "income", "date", s.Date)
			continue
		}
		if err := u.financials.UpsertIncomeStatement(ctx, &row); err != nil {
			slog.Error("failed to upsert income statement", "job", JobName, "symbol", sym, "date", s.Date, "error", err)
		}
	}

	for _, s := range u.provider.BalanceSheets(ctx, sym, statementPeriod, limit) {
		row, ok := BalanceFromDTO(inst.ID, s, u.cfg.Currency)
		if !ok {
			slog.Warn("skipping statement without a valid date", "job", JobName, "symbol", sym, "kind", "balance", "date", s.Date)
			continue
		}
		if err := u.financials.UpsertBalanceSheet(ctx, &row); err != nil {
			slog.Error("failed to upsert balance sheet", "job", JobName, "symbol", sym, "date", s.Date, "error", err)
		}
	}

	for _, s := range u.provider.CashFlowStatements(ctx, sym, statementPeriod, limit) {
		row, ok := CashFlowFromDTO(inst.ID, s, u.cfg.Currency)
		if !ok {
			slog.Warn("skipping statement without a valid date", "job", JobName, "symbol", sym, "kind", "cashflow", "date", s.Date)
			continue
		}
		if err := u.financials.UpsertCashFlowStatement(ctx, &row); err != nil {
			slog.Error("failed to upsert cash flow statement", "job", JobName, "symbol", sym, "date", s.Date, "error", err)
		}
	}

	for _, m := range u.provider.KeyMetrics(ctx, sym, statementPeriod, limit) {
		row, ok := MetricsFromDTO(inst.ID, m)
		if !ok {
			slog.Warn("skipping key metrics without a valid date", "job", JobName, "symbol", sym, "date", m.Date)
			continue
		}
		if err := u.financials.UpsertKeyMetrics(ctx, &row); err != nil {
			slog.Error("failed to upsert key metrics", "job", JobName, "symbol", sym, "date", m.Date, "error", err)
		}
	}

	for _, peer := range u.provider.Peers(ctx, sym) {
		peer = strings.TrimSpace(peer)
		if peer == "" {
			continue
		}
		rel := entity.PeerRelation{InstrumentID: inst.ID, PeerExternalID: peer}
		if err := u.financials.UpsertPeer(ctx, &rel); err != nil {
			slog.Error("failed to upsert peer", "job", JobName, "symbol", sym, "peer", peer, "error", err)
		}
	}
}

func (u *FinancialsUsecase) syncFund(ctx context.Context, inst entity.Instrument) {
	sym := inst.ExternalSymbol

	for _, h := range u.provider.FundHoldings(ctx, sym) {
		asset := strings.TrimSpace(h.Asset)
		if asset == "" {
			continue
		}
		row := entity.FundHolding{
			FundID:           inst.ID,
			HoldingSymbol:    asset,
			HoldingName:      nonEmpty(h.Name),
			WeightPercentage: h.WeightPercentage,
			Shares:           h.SharesNumber,
			MarketValue:      h.MarketValue,
		}
		if err := u.funds.UpsertHolding(ctx, &row); err != nil {
			slog.Error("failed to upsert holding", "job", JobName, "symbol", sym, "holding", asset, "error", err)
		}
	}

	for _, w := range u.provider.FundSectorWeights(ctx, sym) {
		sector := strings.TrimSpace(w.Sector)
		if sector == "" {
			continue
		}
		row := entity.FundSectorWeight{
			FundID:           inst.ID,
			Sector:           sector,
			WeightPercentage: ParseWeight(w.WeightPercentage),
		}
		if err := u.funds.UpsertSectorWeight(ctx, &row); err != nil {
			slog.Error("failed to upsert sector weight", "job", JobName, "symbol", sym, "sector", sector, "error", err)
		}
	}
}

// ParseWeight parses a weight such as "12.5%" or "7.25". Anything unparseable is 0.
func ParseWeight(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// IncomeFromDTO maps one income statement row. ok is false when the date is unusable.
func IncomeFromDTO(instrumentID uint, s dto.IncomeStatement, currency string) (entity.IncomeStatement, bool) {
	date, ok := dto.ParseDate(s.Date)
	if !ok {
		return entity.IncomeStatement{}, false
	}
	return entity.IncomeStatement{
		InstrumentID:      instrumentID,
		Date:              date,
		Period:            entity.NormalizePeriod(s.Period),
		FiscalYear:        nonEmpty(s.CalendarYear),
		ReportedCurrency:  orDefault(s.ReportedCurrency, currency),
		Revenue:           s.Revenue,
		GrossProfit:       s.GrossProfit,
		OperatingIncome:   s.OperatingIncome,
		OperatingExpenses: s.OperatingExpenses,
		NetIncome:         s.NetIncome,
		EPS:               s.EPS,
		EPSDiluted:        s.EPSDiluted,
		EBITDA:            s.EBITDA,
	}, true
}

// BalanceFromDTO maps one balance sheet row.
func BalanceFromDTO(instrumentID uint, s dto.BalanceSheet, currency string) (entity.BalanceSheet, bool) {
	date, ok := dto.ParseDate(s.Date)
	if !ok {
		return entity.BalanceSheet{}, false
	}
	return entity.BalanceSheet{
		InstrumentID:            instrumentID,
		Date:                    date,
		Period:                  entity.NormalizePeriod(s.Period),
		FiscalYear:              nonEmpty(s.CalendarYear),
		ReportedCurrency:        orDefault(s.ReportedCurrency, currency),
		TotalAssets:             s.TotalAssets,
		TotalLiabilities:        s.TotalLiabilities,
		TotalStockholdersEquity: s.TotalStockholdersEquity,
		TotalDebt:               s.TotalDebt,
		NetDebt:                 s.NetDebt,
		CashAndCashEquivalents:  s.CashAndCashEquivalents,
	}, true
}

// CashFlowFromDTO maps one cash flow statement row.
func CashFlowFromDTO(instrumentID uint, s dto.CashFlowStatement, currency string) (entity.CashFlowStatement, bool) {
	date, ok := dto.ParseDate(s.Date)
	if !ok {
		return entity.CashFlowStatement{}, false
	}
	return entity.CashFlowStatement{
		InstrumentID:       instrumentID,
		Date:               date,
		Period:             entity.NormalizePeriod(s.Period),
		FiscalYear:         nonEmpty(s.CalendarYear),
		ReportedCurrency:   orDefault(s.ReportedCurrency, currency),
		OperatingCashFlow:  s.OperatingCashFlow,
		CapitalExpenditure: s.CapitalExpenditure,
		FreeCashFlow:       s.FreeCashFlow,
		DividendsPaid:      s.DividendsPaid,
	}, true
}

// MetricsFromDTO maps one key metrics row. The provider has no plain EPS or ROA in this
// feed: EPS is net income per share and ROA is return on tangible assets.
func MetricsFromDTO(instrumentID uint, m dto.KeyMetrics) (entity.KeyMetricsSnapshot, bool) {
	date, ok := dto.ParseDate(m.Date)
	if !ok {
		return entity.KeyMetricsSnapshot{}, false
	}
	return entity.KeyMetricsSnapshot{
		InstrumentID:      instrumentID,
		Date:              date,
		PERatio:           m.PERatio,
		PSRatio:           m.PriceToSalesRatio,
		PBRatio:           m.PBRatio,
		EPS:               m.NetIncomePerShare,
		DividendYield:     m.DividendYield,
		ROE:               m.ROE,
		ROA:               m.ReturnOnTangibleAssets,
		DebtToEquity:      m.DebtToEquity,
		CurrentRatio:      m.CurrentRatio,
		MarketCap:         m.MarketCap,
		EnterpriseValue:   m.EnterpriseValue,
		RevenuePerShare:   m.RevenuePerShare,
		NetIncomePerShare: m.NetIncomePerShare,
		BookValuePerShare: m.BookValuePerShare,
	}, true
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
