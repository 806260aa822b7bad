package rag

import "context"

type EmbeddingsClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CaseRetriever returns the cases nearest to embedding, closest first.
type CaseRetriever interface {
	SearchCases(ctx context.Context, embedding []float32, limit int) ([]RetrievedCase, error)
}

// CaseIndexer stores a case and its embedding, replacing any case with the same ID.
type CaseIndexer interface {
	IndexCase(ctx context.Context, c IndexedCase, embedding []float32) error
}

type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TemplateSource provides the system prompts.
type TemplateSource interface {
	RAG() string
	Plain() string
}
