// Package main запускает HTTP-сервер симулятора кассы.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/checkout-sim/internal/catalog"
	"github.com/mmeshcher/checkout-sim/internal/config"
	"github.com/mmeshcher/checkout-sim/internal/handler"
	"github.com/mmeshcher/checkout-sim/internal/middleware"
	"github.com/mmeshcher/checkout-sim/internal/pricing"
	"github.com/mmeshcher/checkout-sim/internal/repository"
	"github.com/mmeshcher/checkout-sim/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		sugar.Fatalw("catalog error", "error", err.Error())
	}

	var journal service.Journal
	if cfg.DatabaseURI != "" {
		repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		journal = repo
	} else {
		sugar.Info("DATABASE_URI is not set, audit journal disabled")
	}

	svc := service.NewService(cat, pricing.NewEngine(cfg.Multipliers()), service.Config{
		Settings:     cfg.GameSettings(),
		TickInterval: cfg.TickInterval,
		IdleTTL:      cfg.IdleGameTTL,
	}, journal, logger)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Горутины игр, журнал и уборщик
	g.Go(func() error {
		return svc.Run(ctx)
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting checkout simulator", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
