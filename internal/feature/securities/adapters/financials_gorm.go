package adapters

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	finusecase "stock_sync/internal/feature/financials/usecase"
	"stock_sync/internal/feature/securities/domain/entity"
	universeusecase "stock_sync/internal/feature/universe/usecase"
)

var (
	statementKey = []string{"instrument_id", "date", "period"}
	metricsKey   = []string{"instrument_id", "date"}
)

type financialsGorm struct {
	db *gorm.DB
}

var _ finusecase.FinancialsRepository = (*financialsGorm)(nil)

func NewFinancialsRepository(db *gorm.DB) *financialsGorm {
	return &financialsGorm{db: db}
}

func (r *financialsGorm) UpsertIncomeStatement(ctx context.Context, s *entity.IncomeStatement) error {
	return upsert(ctx, r.db, s, statementKey, []string{
		"fiscal_year", "reported_currency", "revenue", "gross_profit", "operating_income",
		"operating_expenses", "net_income", "eps", "eps_diluted", "ebitda", "updated_at",
	})
}

func (r *financialsGorm) UpsertBalanceSheet(ctx context.Context, s *entity.BalanceSheet) error {
	return upsert(ctx, r.db, s, statementKey, []string{
		"fiscal_year", "reported_currency", "total_assets", "total_liabilities",
		"total_stockholders_equity", "total_debt", "net_debt", "cash_and_cash_equivalents", "updated_at",
	})
}

func (r *financialsGorm) UpsertCashFlowStatement(ctx context.Context, s *entity.CashFlowStatement) error {
	return upsert(ctx, r.db, s, statementKey, []string{
		"fiscal_year", "reported_currency", "operating_cash_flow", "capital_expenditure",
		"free_cash_flow", "dividends_paid", "updated_at",
	})
}

func (r *financialsGorm) UpsertKeyMetrics(ctx context.Context, m *entity.KeyMetricsSnapshot) error {
	return upsert(ctx, r.db, m, metricsKey, []string{
		"pe_ratio", "ps_ratio", "pb_ratio", "eps", "dividend_yield", "roe", "roa",
		"debt_to_equity", "current_ratio", "market_cap", "enterprise_value",
		"revenue_per_share", "net_income_per_share", "book_value_per_share", "updated_at",
	})
}

func (r *financialsGorm) UpsertPeer(ctx context.Context, p *entity.PeerRelation) error {
	return upsert(ctx, r.db, p, []string{"instrument_id", "peer_external_symbol"}, []string{"updated_at"})
}

type fundGorm struct {
	db *gorm.DB
}

var (
	_ finusecase.FundRepository            = (*fundGorm)(nil)
	_ universeusecase.FundDetailRepository = (*fundGorm)(nil)
)

func NewFundRepository(db *gorm.DB) *fundGorm {
	return &fundGorm{db: db}
}

func (r *fundGorm) UpsertHolding(ctx context.Context, h *entity.FundHolding) error {
	return upsert(ctx, r.db, h, []string{"fund_id", "holding_symbol"}, []string{
		"holding_name", "weight_percentage", "shares", "market_value", "updated_at",
	})
}

func (r *fundGorm) UpsertSectorWeight(ctx context.Context, w *entity.FundSectorWeight) error {
	return upsert(ctx, r.db, w, []string{"fund_id", "sector"}, []string{"weight_percentage", "updated_at"})
}

func (r *fundGorm) UpsertFundDetail(ctx context.Context, d *entity.FundDetail) error {
	return upsert(ctx, r.db, d, []string{"fund_id"}, []string{
		"expense_ratio", "aum", "nav", "nav_currency", "issuer", "inception_date",
		"asset_class", "holdings_count", "category", "updated_at",
	})
}

// upsert は keys の衝突時に updates の列だけを上書きします。
func upsert(ctx context.Context, db *gorm.DB, value any, keys, updates []string) error {
	cols := make([]clause.Column, 0, len(keys))
	for _, k := range keys {
		cols = append(cols, clause.Column{Name: k})
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(value).Error
}
