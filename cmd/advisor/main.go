// Package main runs Paulo, the financial advisor Telegram bot.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/easeaico/finadvisor/internal/app"
	"github.com/easeaico/finadvisor/internal/config"
	"github.com/easeaico/finadvisor/internal/logging"
	"github.com/easeaico/finadvisor/internal/telegram"
	"github.com/easeaico/finadvisor/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logging.Init(cfg.Environment, cfg.LogLevel)
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.Info("configuration loaded", "provider", cfg.LLMProvider, "model", cfg.LLMModel, "storage", cfg.StorageBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize advisor: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			slog.Error("failed to close storage", "error", err.Error())
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.Metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("metrics server starting", "addr", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err.Error())
			}
		}()
	}

	bot := telegram.New(cfg.TelegramToken, a.Advisor, telegram.Options{
		Rand: utils.NewRand(cfg.RandomSeed),
		Pace: true,
	})
	me, err := bot.Client().GetMe(ctx)
	if err != nil {
		log.Fatalf("failed to reach telegram: %v", err)
	}
	slog.Info("telegram bot connected", "username", me.Username)

	if err := bot.Run(ctx); err != nil {
		slog.Error("bot stopped with error", "error", err.Error())
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	slog.Info("advisor shutdown complete")
}
