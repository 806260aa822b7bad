package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ai-model4vda/lamp2-4.0/internal/caseindex"
	"github.com/ai-model4vda/lamp2-4.0/internal/config"
	"github.com/ai-model4vda/lamp2-4.0/internal/ingest"
	"github.com/ai-model4vda/lamp2-4.0/internal/llm"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	backend := flag.String("backend", "", "vector store: pinecone or pgvector (default from config)")
	path := flag.String("path", "", "file or directory of cases (.json, .jsonl, .txt, .md, .html, .pdf)")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "required: -path")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *backend, *path); err != nil {
		fmt.Fprintf(os.Stderr, "import-cases: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, backend, path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Retrieval.Backend = backend
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	im := ingest.NewImporter(embeddings, store, logger.Named("ingest"))

	logger.Info("importing cases", zap.String("path", path), zap.String("backend", cfg.Retrieval.Backend))
	stats, err := im.ImportPath(ctx, path)
	logger.Info("import finished",
		zap.Int("files", stats.Files),
		zap.Int("skipped", stats.Skipped),
		zap.Int("cases", stats.Cases),
	)
	return err
}
