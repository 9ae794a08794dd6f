package fmp

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"stock_sync/internal/platform/externalapi/fmp/dto"
)

// ListStocks returns the equity listing filtered to the configured exchange suffix.
func (c *Client) ListStocks(ctx context.Context) []dto.ListedSymbol {
	return c.listing(ctx, "/v3/stock/list")
}

// ListFunds returns the ETF/fund listing filtered to the configured exchange suffix.
func (c *Client) ListFunds(ctx context.Context) []dto.ListedSymbol {
	return c.listing(ctx, "/v3/etf/list")
}

func (c *Client) listing(ctx context.Context, path string) []dto.ListedSymbol {
	var rows []dto.ListedSymbol
	if !c.fetch(ctx, path, nil, &rows) {
		return nil
	}
	out := make([]dto.ListedSymbol, 0, len(rows))
	for _, r := range rows {
		if r.Symbol == "" {
			continue
		}
		if c.cfg.ExchangeSuffix != "" && !strings.HasSuffix(r.Symbol, c.cfg.ExchangeSuffix) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Profile returns the descriptive profile, or nil when unavailable.
func (c *Client) Profile(ctx context.Context, symbol string) *dto.Profile {
	var rows []dto.Profile
	if !c.fetch(ctx, "/v3/profile/"+url.PathEscape(symbol), nil, &rows) || len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

// Quotes fetches live quotes in groups of QuoteBatchSize and concatenates the results.
// A failed group yields fewer quotes; it does not fail the call.
func (c *Client) Quotes(ctx context.Context, symbols []string) []dto.Quote {
	out := make([]dto.Quote, 0, len(symbols))
	for start := 0; start < len(symbols); start += c.cfg.QuoteBatchSize {
		end := min(start+c.cfg.QuoteBatchSize, len(symbols))
		escaped := make([]string, 0, end-start)
		for _, s := range symbols[start:end] {
			escaped = append(escaped, url.PathEscape(s))
		}
		var rows []dto.Quote
		if c.fetch(ctx, "/v3/quote/"+strings.Join(escaped, ","), nil, &rows) {
			out = append(out, rows...)
		}
	}
	return out
}

func periodParams(period string, limit int) url.Values {
	p := url.Values{}
	p.Set("period", period)
	if limit > 0 {
		p.Set("limit", strconv.Itoa(limit))
	}
	return p
}

// IncomeStatements returns up to limit statements for period ("annual" or "quarter").
func (c *Client) IncomeStatements(ctx context.Context, symbol, period string, limit int) []dto.IncomeStatement {
	var rows []dto.IncomeStatement
	if !c.fetch(ctx, "/v3/income-statement/"+url.PathEscape(symbol), periodParams(period, limit), &rows) {
		return nil
	}
	return rows
}

// BalanceSheets returns up to limit balance sheets.
func (c *Client) BalanceSheets(ctx context.Context, symbol, period string, limit int) []dto.BalanceSheet {
	var rows []dto.BalanceSheet
	if !c.fetch(ctx, "/v3/balance-sheet-statement/"+url.PathEscape(symbol), periodParams(period, limit), &rows) {
		return nil
	}
	return rows
}

// CashFlowStatements returns up to limit cash-flow statements.
func (c *Client) CashFlowStatements(ctx context.Context, symbol, period string, limit int) []dto.CashFlowStatement {
	var rows []dto.CashFlowStatement
	if !c.fetch(ctx, "/v3/cash-flow-statement/"+url.PathEscape(symbol), periodParams(period, limit), &rows) {
		return nil
	}
	return rows
}

// KeyMetrics returns up to limit key-metrics snapshots.
func (c *Client) KeyMetrics(ctx context.Context, symbol, period string, limit int) []dto.KeyMetrics {
	var rows []dto.KeyMetrics
	if !c.fetch(ctx, "/v3/key-metrics/"+url.PathEscape(symbol), periodParams(period, limit), &rows) {
		return nil
	}
	return rows
}

// Peers returns the peer symbols of the first row of /v4/stock_peers.
func (c *Client) Peers(ctx context.Context, symbol string) []string {
	var rows []dto.PeerList
	if !c.fetch(ctx, "/v4/stock_peers", url.Values{"symbol": {symbol}}, &rows) || len(rows) == 0 {
		return nil
	}
	return rows[0].PeersList
}

// FundHoldings returns the full holdings list of a fund.
func (c *Client) FundHoldings(ctx context.Context, symbol string) []dto.ETFHolding {
	var rows []dto.ETFHolding
	if !c.fetch(ctx, "/v3/etf-holder/"+url.PathEscape(symbol), nil, &rows) {
		return nil
	}
	return rows
}

// FundSectorWeights returns the sector breakdown of a fund.
func (c *Client) FundSectorWeights(ctx context.Context, symbol string) []dto.SectorWeight {
	var rows []dto.SectorWeight
	if !c.fetch(ctx, "/v3/etf-sector-weightings/"+url.PathEscape(symbol), nil, &rows) {
		return nil
	}
	return rows
}

// FundInfo returns fund details, or nil when unavailable.
func (c *Client) FundInfo(ctx context.Context, symbol string) *dto.ETFInfo {
	var rows []dto.ETFInfo
	if !c.fetch(ctx, "/v4/etf-info", url.Values{"symbol": {symbol}}, &rows) || len(rows) == 0 {
		return nil
	}
	return &rows[0]
}
