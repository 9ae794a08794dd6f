// Package ratelimiter はプロバイダ呼び出しの頻度制御を提供します。
package ratelimiter

import (
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// RateLimiter は interval あたり limit 回までに呼び出しを制限します。
// 複数のジョブが同じゲートウェイを共有するため、ゴルーチンセーフです。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // interval あたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit が0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// WaitIfNeeded はレートリミットの上限に達しているかを確認し、必要であれば待機します。
func (rl *RateLimiter) WaitIfNeeded() {
	if rl.limit <= 0 {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count > rl.limit {
		wait := rl.interval - now.Sub(rl.lastReset)
		if wait > 0 {
			slog.Warn("rate limit reached, sleeping", "limit", rl.limit, "wait", wait)
			rl.sleep(wait)
		}
		rl.count = 1
		rl.lastReset = rl.now()
	}
}

// Pacer は呼び出しの間に固定の待機を挟みます（例: 銘柄ごとに100ms）。
// 最初の呼び出しは待機しません。
type Pacer struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

var _ RateLimiterInterface = (*Pacer)(nil)

// NewPacer は delay 間隔のPacerを生成します。
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay, now: time.Now, sleep: time.Sleep}
}

// WaitIfNeeded は前回の呼び出しから delay が経過するまで待機します。
func (p *Pacer) WaitIfNeeded() {
	if p.delay <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := p.delay - p.now().Sub(p.last); wait > 0 {
			p.sleep(wait)
		}
	}
	p.last = p.now()
}
