// Package entity defines the domain models for listed securities and their market data.
package entity

import (
	"strings"
	"time"
)

// AssetClass distinguishes ordinary shares from exchange-traded funds.
type AssetClass string

const (
	AssetEquity AssetClass = "equity"
	AssetFund   AssetClass = "fund"
)

// Instrument is a tradable security on the exchange.
// ExternalSymbol (e.g. "1155.KL") is the natural key; Symbol is the local code ("1155").
// Instruments are never deleted; delisting only clears IsActivelyTrading.
type Instrument struct {
	ID                uint       `gorm:"primaryKey"`
	Symbol            string     `gorm:"size:32;not null;index"`
	ExternalSymbol    string     `gorm:"size:32;not null;uniqueIndex"`
	AssetClass        AssetClass `gorm:"size:16;not null"`
	IsActivelyTrading bool       `gorm:"not null;index"`
	Currency          string     `gorm:"size:8;not null"`

	// profile
	Name               string  `gorm:"size:255;not null"`
	Sector             *string `gorm:"size:128"`
	Industry           *string `gorm:"size:128"`
	Description        *string
	Website            *string `gorm:"size:512"`
	CEO                *string `gorm:"column:ceo;size:255"`
	Employees          *int
	IPODate            *time.Time `gorm:"column:ipo_date"`
	LogoURL            *string    `gorm:"size:1024"`
	Beta               *float64
	PriceAvg50         *float64 `gorm:"column:price_avg_50"`
	PriceAvg200        *float64 `gorm:"column:price_avg_200"`
	DividendYield      *float64
	LastAnnualDividend *float64
	LastProfileSync    *time.Time

	// live quote snapshot
	Price         *float64
	Change1D      *float64 `gorm:"column:change_1d"`
	Change1DPct   *float64 `gorm:"column:change_1d_pct"`
	Volume        *int64
	DayOpen       *float64
	DayHigh       *float64
	DayLow        *float64
	PreviousClose *float64
	MarketCap     *float64
	PERatio       *float64 `gorm:"column:pe_ratio"`
	EPS           *float64 `gorm:"column:eps"`
	LastPriceSync *time.Time

	// derived
	YearHigh        *float64
	YearLow         *float64
	AllTimeHigh     *float64
	AllTimeHighDate *time.Time
	AllTimeLow      *float64
	AllTimeLowDate  *time.Time
	Change7DPct     *float64   `gorm:"column:change_7d_pct"`
	LastEODSync     *time.Time `gorm:"column:last_eod_sync"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LocalSymbol strips the exchange suffix from an external symbol: "1155.KL" -> "1155".
func LocalSymbol(external, suffix string) string {
	if suffix == "" {
		return external
	}
	return strings.TrimSuffix(external, suffix)
}

// NewListedInstrument builds a freshly discovered, active instrument.
func NewListedInstrument(external, name, suffix, currency string, class AssetClass) Instrument {
	local := LocalSymbol(external, suffix)
	if name == "" {
		name = local
	}
	return Instrument{
		Symbol:            local,
		ExternalSymbol:    external,
		AssetClass:        class,
		IsActivelyTrading: true,
		Currency:          currency,
		Name:              name,
	}
}

// ProfileUpdate holds the descriptive fields overwritten by the profile refresh.
type ProfileUpdate struct {
	Name               string
	Sector             *string
	Industry           *string
	Description        *string
	Website            *string
	CEO                *string
	Employees          *int
	IPODate            *time.Time
	LogoURL            *string
	Beta               *float64
	PriceAvg50         *float64
	PriceAvg200        *float64
	DividendYield      *float64
	LastAnnualDividend *float64
	SyncedAt           time.Time
}

// QuoteUpdate holds the live snapshot fields overwritten by the price sync.
type QuoteUpdate struct {
	Price         *float64
	Change1D      *float64
	Change1DPct   *float64
	Volume        *int64
	DayOpen       *float64
	DayHigh       *float64
	DayLow        *float64
	PreviousClose *float64
	MarketCap     *float64
	PERatio       *float64
	EPS           *float64
	SyncedAt      time.Time
}

// DerivedUpdate holds the end-of-day analytics. The all-time fields are applied only
// when the corresponding watermark moved (non-nil).
type DerivedUpdate struct {
	Change7DPct     *float64
	YearHigh        *float64
	YearLow         *float64
	AllTimeHigh     *float64
	AllTimeHighDate *time.Time
	AllTimeLow      *float64
	AllTimeLowDate  *time.Time
	SyncedAt        time.Time
}
