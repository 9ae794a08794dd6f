// Package dto defines the parsed response structs for the Financial Modeling Prep endpoints.
//
// Every numeric field the provider may omit or send as null is a pointer; callers
// must treat nil as "unknown", never as zero.
package dto

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the provider's calendar date format.
const DateLayout = "2006-01-02"

// ParseDate parses a provider date such as "2023-12-31" (a trailing time part is ignored)
// into midnight UTC. ok is false for empty or malformed input.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ListedSymbol is one row of /v3/stock/list or /v3/etf/list.
type ListedSymbol struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchangeShortName,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Quote is one row of /v3/quote/{symbols}.
type Quote struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name,omitempty"`
	Price             *float64 `json:"price"`
	ChangesPercentage *float64 `json:"changesPercentage"`
	Change            *float64 `json:"change"`
	DayLow            *float64 `json:"dayLow"`
	DayHigh           *float64 `json:"dayHigh"`
	YearHigh          *float64 `json:"yearHigh"`
	YearLow           *float64 `json:"yearLow"`
	MarketCap         *float64 `json:"marketCap"`
	Volume            *float64 `json:"volume"` // sometimes sent as 1.2345e6
	Open              *float64 `json:"open"`
	PreviousClose     *float64 `json:"previousClose"`
	EPS               *float64 `json:"eps"`
	PE                *float64 `json:"pe"`
	Timestamp         *int64   `json:"timestamp"`
}

// Shares returns Volume as a whole share count. Negative, non-finite or out-of-range
// values are unknown.
func (q Quote) Shares() *int64 {
	if q.Volume == nil || math.IsNaN(*q.Volume) || *q.Volume < 0 {
		return nil
	}
	r := math.Round(*q.Volume)
	// float64(math.MaxInt64) は 2^63 に丸められるため >= で比較する
	if r >= float64(math.MaxInt64) {
		return nil
	}
	n := int64(r)
	return &n
}

// Profile is the first row of /v3/profile/{symbol}.
type Profile struct {
	Symbol            string   `json:"symbol"`
	CompanyName       string   `json:"companyName"`
	Currency          string   `json:"currency"`
	Sector            string   `json:"sector"`
	Industry          string   `json:"industry"`
	Description       string   `json:"description"`
	Website           string   `json:"website"`
	CEO               string   `json:"ceo"`
	FullTimeEmployees string   `json:"fullTimeEmployees"` // numeric string, may be empty
	IPODate           string   `json:"ipoDate"`
	Image             string   `json:"image"`
	Price             *float64 `json:"price"`
	Beta              *float64 `json:"beta"`
	LastDiv           *float64 `json:"lastDiv"`
	PriceAvg50        *float64 `json:"priceAvg50"`
	PriceAvg200       *float64 `json:"priceAvg200"`
	IsETF             bool     `json:"isEtf"`
	IsFund            bool     `json:"isFund"`
}

// ETFInfo is the first row of /v4/etf-info.
type ETFInfo struct {
	Symbol        string   `json:"symbol"`
	ExpenseRatio  *float64 `json:"expenseRatio"`
	AUM           *float64 `json:"aum"`
	NAV           *float64 `json:"nav"`
	NAVCurrency   string   `json:"navCurrency"`
	Issuer        string   `json:"issuer"`
	InceptionDate string   `json:"inceptionDate"`
	AssetClass    string   `json:"assetClass"`
	HoldingsCount *int     `json:"holdingsCount"`
	Category      string   `json:"etfCategory"`
}

// IncomeStatement is one row of /v3/income-statement/{symbol}.
type IncomeStatement struct {
	Date              string   `json:"date"`
	Period            string   `json:"period"`
	CalendarYear      string   `json:"calendarYear"`
	ReportedCurrency  string   `json:"reportedCurrency"`
	Revenue           *float64 `json:"revenue"`
	GrossProfit       *float64 `json:"grossProfit"`
	OperatingIncome   *float64 `json:"operatingIncome"`
	OperatingExpenses *float64 `json:"operatingExpenses"`
	NetIncome         *float64 `json:"netIncome"`
	EPS               *float64 `json:"eps"`
	EPSDiluted        *float64 `json:"epsdiluted"`
	EBITDA            *float64 `json:"ebitda"`
}

// BalanceSheet is one row of /v3/balance-sheet-statement/{symbol}.
type BalanceSheet struct {
	Date                    string   `json:"date"`
	Period                  string   `json:"period"`
	CalendarYear            string   `json:"calendarYear"`
	ReportedCurrency        string   `json:"reportedCurrency"`
	TotalAssets             *float64 `json:"totalAssets"`
	TotalLiabilities        *float64 `json:"totalLiabilities"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
	TotalDebt               *float64 `json:"totalDebt"`
	NetDebt                 *float64 `json:"netDebt"`
	CashAndCashEquivalents  *float64 `json:"cashAndCashEquivalents"`
}

// CashFlowStatement is one row of /v3/cash-flow-statement/{symbol}.
type CashFlowStatement struct {
	Date               string   `json:"date"`
	Period             string   `json:"period"`
	CalendarYear       string   `json:"calendarYear"`
	ReportedCurrency   string   `json:"reportedCurrency"`
	OperatingCashFlow  *float64 `json:"operatingCashFlow"`
	CapitalExpenditure *float64 `json:"capitalExpenditure"`
	FreeCashFlow       *float64 `json:"freeCashFlow"`
	DividendsPaid      *float64 `json:"dividendsPaid"`
}

// KeyMetrics is one row of /v3/key-metrics/{symbol}.
type KeyMetrics struct {
	Date                   string   `json:"date"`
	PERatio                *float64 `json:"peRatio"`
	PriceToSalesRatio      *float64 `json:"priceToSalesRatio"`
	PBRatio                *float64 `json:"pbRatio"`
	NetIncomePerShare      *float64 `json:"netIncomePerShare"`
	DividendYield          *float64 `json:"dividendYield"`
	ROE                    *float64 `json:"roe"`
	ReturnOnTangibleAssets *float64 `json:"returnOnTangibleAssets"`
	DebtToEquity           *float64 `json:"debtToEquity"`
	CurrentRatio           *float64 `json:"currentRatio"`
	MarketCap              *float64 `json:"marketCap"`
	EnterpriseValue        *float64 `json:"enterpriseValue"`
	RevenuePerShare        *float64 `json:"revenuePerShare"`
	BookValuePerShare      *float64 `json:"bookValuePerShare"`
}

// PeerList is one row of /v4/stock_peers.
type PeerList struct {
	Symbol    string   `json:"symbol"`
	PeersList []string `json:"peersList"`
}

// ETFHolding is one row of /v3/etf-holder/{symbol}.
type ETFHolding struct {
	Asset            string   `json:"asset"`
	Name             string   `json:"name"`
	WeightPercentage *float64 `json:"weightPercentage"`
	SharesNumber     *float64 `json:"sharesNumber"`
	MarketValue      *float64 `json:"marketValue"`
}

// SectorWeight is one row of /v3/etf-sector-weightings/{symbol}.
// WeightPercentage arrives as a string such as "12.5%".
type SectorWeight struct {
	Sector           string `json:"sector"`
	WeightPercentage string `json:"weightPercentage"`
}
