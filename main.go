package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"enact/internal/config"
	"enact/internal/gemini"
	"enact/internal/ratelimit"
	"enact/internal/repository"
	"enact/internal/server"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	if v := os.Getenv("ENACT_CONFIG"); v != "" {
		cfgPath = v
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, cfg.Database.MigrationsURL, logger)

	// Gemini client
	geminiClient, err := gemini.NewClient(gemini.Config{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		BaseURL:           cfg.Gemini.BaseURL,
		MaxRetries:        cfg.Gemini.MaxRetries,
		RetryBaseDelay:    cfg.GeminiRetryBaseDelay(),
		Timeout:           cfg.GeminiTimeout(),
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
		Burst:             cfg.Gemini.Burst,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Per-user request limiter with a background sweep of idle entries
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimitWindow())
	go limiter.CleanupLoop(ctx.Done(), cfg.RateLimitWindow())

	srv := server.NewServer(db, cfg, geminiClient, limiter, logger)

	go func() {
		if err := srv.Run(cfg.Server.Port); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Application stopped.")
}
