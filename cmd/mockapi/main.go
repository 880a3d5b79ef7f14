package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contentpilot/internal/config"
	"contentpilot/internal/mockapi"
	"contentpilot/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	secret := cfg.SigningSecret
	if secret == "" {
		secret = "contentpilot-dev-secret"
		logger.Warn("MOCKAPI_SECRET not set; using the built-in development secret")
	}

	auth := mockapi.NewAuthService(secret, 12*time.Hour)
	store := mockapi.NewJobStore(cfg.MonthlyQuota)
	handler := mockapi.NewHandler(auth, store, logger)
	router := mockapi.NewRouter(cfg, handler, auth, logger)

	pipeline := mockapi.NewPipeline(store, logger)
	go pipeline.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("mock backend listening", "addr", srv.Addr, "monthly_quota", cfg.MonthlyQuota)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
