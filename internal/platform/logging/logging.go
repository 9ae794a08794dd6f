// Package logging はプロセス全体のslogロガーを設定します。
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel は "debug" / "info" / "warn" / "error" を slog.Level に変換します。未知の値は info です。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup はJSONハンドラのロガーをデフォルトに設定して返します。
func Setup(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}
