// Package usecase mirrors externally hosted instrument logos into owned object storage.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stock_sync/internal/feature/securities/domain/entity"
	"stock_sync/internal/platform/externalapi/fmp/dto"
	"stock_sync/internal/shared/ratelimiter"
)

// JobName identifies the job in the job log and trigger routes.
const JobName = "sync-logos"

// ProfileProvider はロゴURL解決のためのプロファイル取得です。
type ProfileProvider interface {
	Profile(ctx context.Context, symbol string) *dto.Profile
}

// ImageFetcher は画像本文と Content-Type を取得します。
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// ObjectStore はロゴの保存先です。Put は同じキーを上書きします。
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	PublicURL(key string) string
}

// InstrumentRepository abstracts instrument persistence.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type InstrumentRepository interface {
	ListActive(ctx context.Context) ([]entity.Instrument, error)
	SetLogoURL(ctx context.Context, id uint, url string) error
}

// LogosUsecase はロゴのミラーリングジョブです。
type LogosUsecase struct {
	profiles    ProfileProvider
	images      ImageFetcher
	store       ObjectStore
	instruments InstrumentRepository
	pacer       ratelimiter.RateLimiterInterface
}

// NewLogosUsecase は新しい LogosUsecase を作成します。
func NewLogosUsecase(p ProfileProvider, f ImageFetcher, s ObjectStore, i InstrumentRepository, pacer ratelimiter.RateLimiterInterface) *LogosUsecase {
	return &LogosUsecase{profiles: p, images: f, store: s, instruments: i, pacer: pacer}
}

// Name implements the job interface.
func (u *LogosUsecase) Name() string { return JobName }

// Run mirrors every active instrument whose logo is missing or still external.
func (u *LogosUsecase) Run(ctx context.Context) (int, error) {
	active, err := u.instruments.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active instruments: %w", err)
	}

	owned := u.store.PublicURL("")
	processed := 0
	for _, inst := range active {
		if inst.ExternalSymbol == "" || !NeedsMirror(inst.LogoURL, owned) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return processed, fmt.Errorf("logo sync interrupted after %d instruments: %w", processed, err)
		}
		if err := u.mirrorOne(ctx, inst); err != nil {
			slog.Warn("skipping logo", "job", JobName, "symbol", inst.Symbol, "error", err)
			continue
		}
		processed++
		u.pacer.WaitIfNeeded()
	}
	return processed, nil
}

func (u *LogosUsecase) mirrorOne(ctx context.Context, inst entity.Instrument) error {
	src := ""
	if inst.LogoURL != nil && isExternal(*inst.LogoURL) {
		src = *inst.LogoURL
	} else {
		u.pacer.WaitIfNeeded()
		p := u.profiles.Profile(ctx, inst.ExternalSymbol)
		if p == nil || !isExternal(p.Image) {
			return fmt.Errorf("no source image")
		}
		src = p.Image
	}

	body, contentType, err := u.images.Fetch(ctx, src)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if contentType == "" {
		contentType = "image/png"
	}

	key := ObjectKey(inst.Symbol, contentType)
	url, err := u.store.Put(ctx, key, body, contentType)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := u.instruments.SetLogoURL(ctx, inst.ID, url); err != nil {
		return fmt.Errorf("update logo url: %w", err)
	}
	return nil
}

// NeedsMirror reports whether a stored logo reference still has to be copied: it is
// absent, or an http(s) URL outside the owned prefix.
func NeedsMirror(logo *string, ownedPrefix string) bool {
	if logo == nil || strings.TrimSpace(*logo) == "" {
		return true
	}
	if !isExternal(*logo) {
		return false
	}
	return ownedPrefix == "" || !strings.HasPrefix(*logo, ownedPrefix)
}

// ObjectKey is the lowercased local symbol plus an extension inferred from contentType.
func ObjectKey(symbol, contentType string) string {
	return strings.ToLower(symbol) + "." + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "svg"):
		return "svg"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	default:
		return "png"
	}
}

func isExternal(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
