package entity

import "time"

// DailyBar is one OHLCV row per instrument and trading date.
// Date is the exchange-local calendar date stored as midnight UTC.
type DailyBar struct {
	ID            uint      `gorm:"primaryKey"`
	InstrumentID  uint      `gorm:"not null;uniqueIndex:daily_bar_instrument_date,priority:1"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:daily_bar_instrument_date,priority:2"`
	Open          *float64
	High          *float64
	Low           *float64
	Close         *float64
	Volume        *int64
	Change        *float64
	ChangePercent *float64
	UpdatedAt     time.Time
}
