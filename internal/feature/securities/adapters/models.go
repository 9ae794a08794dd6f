package adapters

import "stock_sync/internal/feature/securities/domain/entity"

// Models はマイグレーション対象のモデル一覧です。
func Models() []any {
	return []any{
		&entity.Instrument{},
		&entity.DailyBar{},
		&entity.IncomeStatement{},
		&entity.BalanceSheet{},
		&entity.CashFlowStatement{},
		&entity.KeyMetricsSnapshot{},
		&entity.PeerRelation{},
		&entity.FundHolding{},
		&entity.FundSectorWeight{},
		&entity.FundDetail{},
	}
}
