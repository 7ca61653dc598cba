package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/amqp"
	"finanzas/internal/auth"
	"finanzas/internal/config"
	"finanzas/internal/currency"
	apphttp "finanzas/internal/http"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

func main() {
	// Load .env for local development; ignore errors in production.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	converter := currency.NewConverter(cfg.QuoteAPIURL, cfg.QuoteTimeout)
	tokens := auth.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret)

	// The event stream is optional: without a broker, mutations simply are
	// not audited.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client, continuing without event stream", "error", err)
			events = nil
		} else {
			defer events.Close()
			logger.Info("AMQP event stream initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, no AMQP_URL provided")
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	defer limiter.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Users:       services.NewUserService(repo, tokens, cfg.EmailVerification),
		Elements:    services.NewElementService(repo, converter, events),
		Feedback:    services.NewFeedbackService(repo),
		Tokens:      tokens,
		Repo:        repo,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
	})

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

	logger.Info("Starting finanzas server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
