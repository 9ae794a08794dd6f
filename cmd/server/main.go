package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"stock_sync/internal/app/di"
	"stock_sync/internal/app/router"
	jobhandler "stock_sync/internal/feature/jobs/transport/handler"
	"stock_sync/internal/platform/config"
	platformhandler "stock_sync/internal/platform/http/handler"
	"stock_sync/internal/platform/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// db / Redis
	infra, err := di.OpenInfra(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer infra.Close()

	// Usecase
	jobs, err := di.NewJobs(cfg, infra.DB)
	if err != nil {
		slog.Error("failed to build jobs", "error", err)
		os.Exit(1)
	}
	runner := di.NewRunner(infra.DB, infra.Redis, cfg.Jobs)

	// Handler
	handlers := make(map[string]*jobhandler.JobHandler)
	for _, job := range jobs.All() {
		handlers[job.Name()] = jobhandler.NewJobHandler(runner, job)
	}
	var pinger platformhandler.Pinger
	if sqlDB, err := infra.DB.DB(); err == nil {
		pinger = sqlDB
	}
	healthH := platformhandler.NewHealthHandler(pinger)

	// ルータ生成
	r := router.NewRouter(healthH, handlers, cfg.Trigger.Secret)

	// ローカルストレージの場合はミラーしたロゴをこのサーバーから配信する
	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		if u, err := url.Parse(cfg.Storage.Local.BaseURL); err == nil && u.Path != "" && u.Path != "/" {
			r.Static(u.Path, cfg.Storage.Local.BasePath)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// 実行中のリクエストは最大30秒待つ
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
}
