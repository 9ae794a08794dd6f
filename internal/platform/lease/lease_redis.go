// Package lease はジョブ名ごとの排他リースをRedisで提供します。
package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLeaseHeld は同じジョブのリースが他の実行に保持されていることを表します。
	ErrLeaseHeld = errors.New("lease: held by another run")
	// ErrLeaseLost は解放時に自分のリースでなくなっていたこと（TTL切れ等）を表します。
	ErrLeaseLost = errors.New("lease: expired or taken over before release")
)

// releaseScript は所有者トークンが一致する場合のみキーを削除します。
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease は SET NX PX によるリース実装です。
type RedisLease struct {
	client   *redis.Client
	prefix   string
	newToken func() string
}

// NewRedisLease creates a new RedisLease. prefix defaults to "lease".
func NewRedisLease(client *redis.Client, prefix string) *RedisLease {
	if prefix == "" {
		prefix = "lease"
	}
	return &RedisLease{
		client:   client,
		prefix:   prefix,
		newToken: uuid.NewString,
	}
}

// key returns the Redis key for a job lease.
func (l *RedisLease) key(job string) string {
	return fmt.Sprintf("%s:%s", l.prefix, job)
}

// Acquire は ttl 付きでリースを取得し、解放に使う所有者トークンを返します。
// 既に保持されている場合は ErrLeaseHeld を返します。
func (l *RedisLease) Acquire(ctx context.Context, job string, ttl time.Duration) (string, error) {
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, l.key(job), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lease %s: %w", job, err)
	}
	if !ok {
		return "", ErrLeaseHeld
	}
	return token, nil
}

// Release はトークンが一致する場合のみリースを解放します。
func (l *RedisLease) Release(ctx context.Context, job, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key(job)}, token).Int64()
	if err != nil {
		return fmt.Errorf("release lease %s: %w", job, err)
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}
