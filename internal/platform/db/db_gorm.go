// Package db はPostgreSQLへのgorm接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// Config はデータベース接続設定です。
type Config struct {
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	SSLMode        string        `mapstructure:"sslmode"`
	InstanceName   string        `mapstructure:"instance_connection_name"` // Cloud SQL (unix socket)
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RunMigrations  bool          `mapstructure:"run_migrations"`
}

// Opener はDSNからgorm接続を開く関数です。テストで差し替え可能にしています。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN は設定からpgx用のDSN文字列を生成します。
// InstanceName が設定されている場合はCloud SQLのUnixソケットを優先します。
func BuildDSN(cfg Config) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	if cfg.InstanceName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.InstanceName, cfg.User, cfg.Password, cfg.Name, sslmode)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
}

// ConnectWithRetry は timeout に達するまで retryInterval 間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		wait := retryInterval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		if wait > 0 {
			time.Sleep(wait)
		}
	}
}

// postgresOpener はpgxドライバ経由でPostgreSQLへ接続します。
func postgresOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// OpenDB は接続を確立し、RunMigrations が有効なら与えられたモデルをマイグレーションします。
func OpenDB(cfg Config, models ...any) (*gorm.DB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, postgresOpener)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		slog.Info("migrations applied", "models", len(models))
	}
	return db, nil
}
