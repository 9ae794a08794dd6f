package entity

import (
	"strings"
	"time"
)

// Period codes of a financial statement.
const (
	PeriodFY = "FY"
	PeriodQ1 = "Q1"
	PeriodQ2 = "Q2"
	PeriodQ3 = "Q3"
	PeriodQ4 = "Q4"
)

// NormalizePeriod maps a provider period label to FY or Q1..Q4. Empty, "ANNUAL" and
// anything unrecognized become FY.
func NormalizePeriod(p string) string {
	switch up := strings.ToUpper(strings.TrimSpace(p)); up {
	case PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4:
		return up
	default:
		return PeriodFY
	}
}

// IncomeStatement is keyed by (instrument, date, period).
type IncomeStatement struct {
	ID               uint      `gorm:"primaryKey"`
	InstrumentID     uint      `gorm:"not null;uniqueIndex:idx_income_key,priority:1"`
	Date             time.Time `gorm:"type:date;not null;uniqueIndex:idx_income_key,priority:2"`
	Period           string    `gorm:"size:4;not null;uniqueIndex:idx_income_key,priority:3"`
	FiscalYear       *string   `gorm:"size:8"`
	ReportedCurrency string    `gorm:"size:8;not null"`

	Revenue           *float64
	GrossProfit       *float64
	OperatingIncome   *float64
	OperatingExpenses *float64
	NetIncome         *float64
	EPS               *float64 `gorm:"column:eps"`
	EPSDiluted        *float64 `gorm:"column:eps_diluted"`
	EBITDA            *float64 `gorm:"column:ebitda"`
	UpdatedAt         time.Time
}

// BalanceSheet is keyed by (instrument, date, period).
type BalanceSheet struct {
	ID               uint      `gorm:"primaryKey"`
	InstrumentID     uint      `gorm:"not null;uniqueIndex:idx_balance_key,priority:1"`
	Date             time.Time `gorm:"type:date;not null;uniqueIndex:idx_balance_key,priority:2"`
	Period           string    `gorm:"size:4;not null;uniqueIndex:idx_balance_key,priority:3"`
	FiscalYear       *string   `gorm:"size:8"`
	ReportedCurrency string    `gorm:"size:8;not null"`

	TotalAssets             *float64
	TotalLiabilities        *float64
	TotalStockholdersEquity *float64
	TotalDebt               *float64
	NetDebt                 *float64
	CashAndCashEquivalents  *float64
	UpdatedAt               time.Time
}

// CashFlowStatement is keyed by (instrument, date, period).
type CashFlowStatement struct {
	ID               uint      `gorm:"primaryKey"`
	InstrumentID     uint      `gorm:"not null;uniqueIndex:idx_cashflow_key,priority:1"`
	Date             time.Time `gorm:"type:date;not null;uniqueIndex:idx_cashflow_key,priority:2"`
	Period           string    `gorm:"size:4;not null;uniqueIndex:idx_cashflow_key,priority:3"`
	FiscalYear       *string   `gorm:"size:8"`
	ReportedCurrency string    `gorm:"size:8;not null"`

	OperatingCashFlow  *float64
	CapitalExpenditure *float64
	FreeCashFlow       *float64
	DividendsPaid      *float64
	UpdatedAt          time.Time
}

// KeyMetricsSnapshot is keyed by (instrument, date).
type KeyMetricsSnapshot struct {
	ID                uint      `gorm:"primaryKey"`
	InstrumentID      uint      `gorm:"not null;uniqueIndex:idx_metrics_key,priority:1"`
	Date              time.Time `gorm:"type:date;not null;uniqueIndex:idx_metrics_key,priority:2"`
	PERatio           *float64  `gorm:"column:pe_ratio"`
	PSRatio           *float64  `gorm:"column:ps_ratio"`
	PBRatio           *float64  `gorm:"column:pb_ratio"`
	EPS               *float64  `gorm:"column:eps"`
	DividendYield     *float64
	ROE               *float64 `gorm:"column:roe"`
	ROA               *float64 `gorm:"column:roa"`
	DebtToEquity      *float64
	CurrentRatio      *float64
	MarketCap         *float64
	EnterpriseValue   *float64
	RevenuePerShare   *float64
	NetIncomePerShare *float64
	BookValuePerShare *float64
	UpdatedAt         time.Time
}

// TableName keeps the historical table name.
func (KeyMetricsSnapshot) TableName() string {
	return "key_metrics"
}

// PeerRelation links an equity to a peer by the peer's external symbol.
type PeerRelation struct {
	ID             uint   `gorm:"primaryKey"`
	InstrumentID   uint   `gorm:"not null;uniqueIndex:idx_peer_key,priority:1"`
	PeerExternalID string `gorm:"column:peer_external_symbol;size:32;not null;uniqueIndex:idx_peer_key,priority:2"`
	UpdatedAt      time.Time
}

// TableName keeps the historical table name.
func (PeerRelation) TableName() string {
	return "stock_peers"
}
