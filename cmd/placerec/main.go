// Package main is the entry point for the placerec service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/moim-labs/placerec/internal/config"
	"github.com/moim-labs/placerec/internal/embeddings"
	"github.com/moim-labs/placerec/internal/events"
	"github.com/moim-labs/placerec/internal/llm"
	"github.com/moim-labs/placerec/internal/server"
	"github.com/moim-labs/placerec/internal/store"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("PLACEREC_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := store.Migrate(ctx, db); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// Embedding provider
	var embedder embeddings.Provider
	switch cfg.EmbeddingBackend {
	case "openai":
		embedder = embeddings.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel, cfg.ExternalTimeout)
	default:
		embedder = embeddings.NewSimpleProvider()
	}
	logger.Info("embedding provider initialized", "backend", embedder.Name())

	// Category extractor
	extractor := llm.NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIChatModel, cfg.ExternalTimeout, logger)

	// NATS — optional, service works without it
	var eventsClient *events.Client
	if cfg.NatsURL != "" {
		eventsClient, err = events.NewClient(cfg.NatsURL, logger)
		if err != nil {
			logger.Warn("failed to connect to NATS, running without event bus", "error", err)
			eventsClient = nil
		} else {
			defer eventsClient.Close()
			logger.Info("connected to NATS", "url", cfg.NatsURL)
		}
	}

	// Server
	srv := server.New(cfg, db, eventsClient, embedder, extractor, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down gracefully...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("placerec starting", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("placerec stopped")
}
