// Package ragtest provides in-memory fakes of the external clients used by
// rag.Service, recording every call for assertions.
package ragtest

import (
	"context"
	"sync"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
)

// Embedder returns Vector (or Err) and records queried texts.
type Embedder struct {
	Vector []float32
	Err    error

	mu    sync.Mutex
	texts []string
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.texts = append(e.texts, text)
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	if e.Vector == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return e.Vector, nil
}

// Texts returns the texts embedded so far.
func (e *Embedder) Texts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.texts...)
}

func (e *Embedder) Calls() int { return len(e.Texts()) }

// Retriever returns Cases (or Err) and records requested limits.
type Retriever struct {
	Cases []rag.RetrievedCase
	Err   error

	mu     sync.Mutex
	limits []int
}

func (r *Retriever) SearchCases(ctx context.Context, embedding []float32, limit int) ([]rag.RetrievedCase, error) {
	r.mu.Lock()
	r.limits = append(r.limits, limit)
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Cases, nil
}

func (r *Retriever) Limits() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.limits...)
}

func (r *Retriever) Calls() int { return len(r.Limits()) }

// Completer answers with Text (or Err) and records every request.
type Completer struct {
	Text string
	Err  error

	mu       sync.Mutex
	requests []rag.CompletionRequest
}

func (c *Completer) Complete(ctx context.Context, req rag.CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	return c.Text, nil
}

func (c *Completer) Requests() []rag.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]rag.CompletionRequest(nil), c.requests...)
}

func (c *Completer) Calls() int { return len(c.Requests()) }

// Indexer stores indexed cases in memory, keyed by ID.
type Indexer struct {
	Err error

	mu    sync.Mutex
	cases map[string]rag.IndexedCase
	calls int
}

func (x *Indexer) IndexCase(ctx context.Context, c rag.IndexedCase, embedding []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.calls++
	if x.Err != nil {
		return x.Err
	}
	if x.cases == nil {
		x.cases = make(map[string]rag.IndexedCase)
	}
	x.cases[c.ID] = c
	return nil
}

// Cases returns the stored cases by ID.
func (x *Indexer) Cases() map[string]rag.IndexedCase {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make(map[string]rag.IndexedCase, len(x.cases))
	for id, c := range x.cases {
		out[id] = c
	}
	return out
}

func (x *Indexer) Calls() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.calls
}

// Templates is a fixed rag.TemplateSource.
type Templates struct {
	RAGText   string
	PlainText string
}

func (t Templates) RAG() string   { return t.RAGText }
func (t Templates) Plain() string { return t.PlainText }

var (
	_ rag.EmbeddingsClient = (*Embedder)(nil)
	_ rag.CaseRetriever    = (*Retriever)(nil)
	_ rag.CompletionClient = (*Completer)(nil)
	_ rag.CaseIndexer      = (*Indexer)(nil)
	_ rag.TemplateSource   = Templates{}
)
