package entity

import "time"

// FundHolding is keyed by (fund instrument, holding symbol).
type FundHolding struct {
	ID               uint    `gorm:"primaryKey"`
	FundID           uint    `gorm:"not null;uniqueIndex:idx_holding_key,priority:1"`
	HoldingSymbol    string  `gorm:"size:64;not null;uniqueIndex:idx_holding_key,priority:2"`
	HoldingName      *string `gorm:"size:255"`
	WeightPercentage *float64
	Shares           *float64
	MarketValue      *float64
	UpdatedAt        time.Time
}

// FundSectorWeight is keyed by (fund instrument, sector label).
type FundSectorWeight struct {
	ID               uint    `gorm:"primaryKey"`
	FundID           uint    `gorm:"not null;uniqueIndex:idx_sector_key,priority:1"`
	Sector           string  `gorm:"size:128;not null;uniqueIndex:idx_sector_key,priority:2"`
	WeightPercentage float64 `gorm:"not null"`
	UpdatedAt        time.Time
}

// FundDetail is one-to-one with a fund instrument.
type FundDetail struct {
	FundID        uint `gorm:"primaryKey;autoIncrement:false"`
	ExpenseRatio  *float64
	AUM           *float64 `gorm:"column:aum"`
	NAV           *float64 `gorm:"column:nav"`
	NAVCurrency   string   `gorm:"column:nav_currency;size:8;not null"`
	Issuer        *string  `gorm:"size:255"`
	InceptionDate *time.Time
	AssetClass    *string `gorm:"size:64"`
	HoldingsCount *int
	Category      *string `gorm:"size:128"`
	UpdatedAt     time.Time
}
