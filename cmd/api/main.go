package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ai-model4vda/lamp2-4.0/internal/caseindex"
	"github.com/ai-model4vda/lamp2-4.0/internal/config"
	apphttp "github.com/ai-model4vda/lamp2-4.0/internal/http"
	"github.com/ai-model4vda/lamp2-4.0/internal/llm"
	"github.com/ai-model4vda/lamp2-4.0/internal/prompts"
	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	"github.com/ai-model4vda/lamp2-4.0/internal/telemetry"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: lamp.yaml in . or ./config)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "lamp-api: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting API",
		zap.String("version", version),
		zap.String("backend", cfg.Retrieval.Backend),
		zap.String("prompts", prompts.Version),
	)
	for _, name := range cfg.MissingCredentials() {
		logger.Warn("credential not set, calls that need it will fail", zap.String("env", name))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	templates, err := prompts.Load(cfg.Prompts.Dir, logger.Named("prompts"))
	if err != nil {
		return err
	}
	if cfg.Prompts.Dir != "" {
		if err := templates.Watch(ctx); err != nil {
			logger.Warn("prompt hot reload disabled", zap.Error(err))
		}
	}

	store, closeStore, err := caseindex.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	embeddings := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	completions := llm.NewGroqClient(llm.GroqConfig{
		APIKey:  cfg.Completion.APIKey,
		BaseURL: cfg.Completion.BaseURL,
	})

	svc := rag.NewService(embeddings, store, completions, templates,
		rag.WithDefaultModel(cfg.Completion.DefaultModel),
		rag.WithLogger(logger.Named("rag")),
	)

	httpLogger := logger.Named("http")
	handler := apphttp.Wrap(
		apphttp.NewRouter(apphttp.NewHandler(svc, httpLogger)),
		httpLogger,
		apphttp.StackOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RateLimitRPS:   cfg.RateLimit.RPS,
			RateLimitBurst: cfg.RateLimit.Burst,
		},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("API stopped")
	return nil
}
