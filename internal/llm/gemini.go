package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	"google.golang.org/genai"
)

const (
	defaultEmbeddingModel = "models/text-embedding-004"
	defaultEmbedDim       = 768
)

type GeminiConfig struct {
	APIKey     string
	Model      string
	Dimensions int
}

type embedModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

var newGenaiClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GeminiClient embeds text with the Gemini embedding API. The underlying
// client is created on first use, so a missing key fails the first call.
type GeminiClient struct {
	cfg GeminiConfig

	once    sync.Once
	models  embedModels
	initErr error
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = defaultEmbeddingModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultEmbedDim
	}
	return &GeminiClient{cfg: cfg}
}

func (g *GeminiClient) init() {
	if g.cfg.APIKey == "" {
		g.initErr = errors.New("missing GEMINI_API_KEY or GOOGLE_API_KEY")
		return
	}
	c, err := newGenaiClient(context.Background(), &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		g.initErr = fmt.Errorf("create genai client: %w", err)
		return
	}
	g.models = c.Models
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	g.once.Do(g.init)
	if g.initErr != nil {
		return nil, g.initErr
	}

	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("empty text for embedding")
	}

	resp, err := g.models.EmbedContent(
		ctx,
		g.cfg.Model,
		genai.Text(clean),
		&genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(g.cfg.Dimensions)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Embeddings[0].Values
	if len(values) != g.cfg.Dimensions {
		return nil, fmt.Errorf("unexpected embedding size %d (expected %d)", len(values), g.cfg.Dimensions)
	}

	out := make([]float32, len(values))
	copy(out, values)
	return out, nil
}

func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			if !space {
				b.WriteRune(' ')
				space = true
			}
		} else {
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

var _ rag.EmbeddingsClient = (*GeminiClient)(nil)
