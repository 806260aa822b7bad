package caseindex

import (
	"context"
	"fmt"

	"github.com/ai-model4vda/lamp2-4.0/internal/config"
	"github.com/ai-model4vda/lamp2-4.0/internal/db"
	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
)

// Store both searches and indexes cases.
type Store interface {
	rag.CaseRetriever
	rag.CaseIndexer
}

// Open builds the configured backend. The returned close func releases the
// database pool for pgvector and is a no-op for Pinecone.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.Retrieval.Backend {
	case config.BackendPinecone:
		return NewPineconeIndex(PineconeConfig{
			APIKey:    cfg.Pinecone.APIKey,
			Host:      cfg.Pinecone.Host,
			Namespace: cfg.Pinecone.Namespace,
		}), func() {}, nil

	case config.BackendPgvector:
		pool, err := db.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return NewPgRepository(pool), pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown retrieval backend %q", cfg.Retrieval.Backend)
}
