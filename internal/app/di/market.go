// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"stock_sync/internal/platform/externalapi/fmp"
	infrahttp "stock_sync/internal/platform/http"
	"stock_sync/internal/shared/ratelimiter"
)

// NewMarket creates a fully configured provider gateway with HTTP client.
// CallsPerMinute > 0 の場合はプロバイダのクォータ用レートリミッタを挟みます。
func NewMarket(cfg fmp.Config) *fmp.Client {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)

	var limiter ratelimiter.RateLimiterInterface
	if cfg.CallsPerMinute > 0 {
		limiter = ratelimiter.NewRateLimiter(cfg.CallsPerMinute, time.Minute)
	}
	return fmp.NewClient(cfg, httpClient, limiter)
}
