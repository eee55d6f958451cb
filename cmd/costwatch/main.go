package main

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"costwatch/internal/config"
	apphttp "costwatch/internal/http"
	"costwatch/internal/rates"
	"costwatch/internal/report"
	"costwatch/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	openCtx, openCancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	store, err := storage.Open(openCtx, cfg.SQLiteDBPath)
	openCancel()
	if err != nil {
		// Schema failures are fatal for the session; never run against a
		// partially migrated store.
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	cacheCtx, cacheCancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	cache, err := rates.New(cacheCtx, store, &nethttp.Client{Timeout: cfg.RateFetchTimeout}, cfg.RatesURL)
	cacheCancel()
	if err != nil {
		logger.Error("Failed to initialize rate cache", "error", err)
		os.Exit(1)
	}

	repo := storage.NewRepository(store)
	engine := report.NewEngine(cache)

	srv := apphttp.NewServer(":"+cfg.Port, repo, cache, engine)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting costwatch server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
