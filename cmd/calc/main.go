package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stroy-calc/internal/config"
	"stroy-calc/internal/service/calculator"
	"stroy-calc/internal/service/report"
	"stroy-calc/internal/storage/sqlstore"
)

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env, cfg.ErrorsLog)

	storage, err := sqlstore.New(*cfg)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	if cfg.MigrateOnStart {
		if err := storage.Migrate(); err != nil {
			log.Error("failed to migrate db", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	calcService := calculator.NewCalculatorService(log, storage)
	adminService := calculator.NewAdminService(log, storage)
	estimateService := report.NewEstimateService(calcService)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, storage, calcService, adminService, estimateService),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: 3 * cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}
