package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type stubEmbedModels struct {
	resp  *genai.EmbedContentResponse
	err   error
	calls int

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.EmbedContentConfig
}

func (s *stubEmbedModels) EmbedContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	s.calls++
	s.gotModel = model
	s.gotContents = contents
	s.gotConfig = cfg
	return s.resp, s.err
}

func newTestGemini(cfg GeminiConfig, stub *stubEmbedModels) *GeminiClient {
	g := NewGeminiClient(cfg)
	g.once.Do(func() { g.models = stub })
	return g
}

func embedding(n int) *genai.EmbedContentResponse {
	values := make([]float32, n)
	for i := range values {
		values[i] = float32(i) / 10
	}
	return &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: values}},
	}
}

func TestGeminiClient_Embed(t *testing.T) {
	stub := &stubEmbedModels{resp: embedding(768)}
	g := newTestGemini(GeminiConfig{APIKey: "k"}, stub)

	vec, err := g.Embed(context.Background(), "  husband   denied\n maintenance ")
	require.NoError(t, err)
	require.Len(t, vec, 768)
	assert.InDelta(t, 0.1, vec[1], 1e-6)

	assert.Equal(t, "models/text-embedding-004", stub.gotModel)
	require.Len(t, stub.gotContents, 1)
	require.Len(t, stub.gotContents[0].Parts, 1)
	assert.Equal(t, "husband denied maintenance", stub.gotContents[0].Parts[0].Text)
	require.NotNil(t, stub.gotConfig.OutputDimensionality)
	assert.Equal(t, int32(768), *stub.gotConfig.OutputDimensionality)
}

func TestGeminiClient_EmbedErrors(t *testing.T) {
	tests := []struct {
		name string
		stub *stubEmbedModels
		text string
	}{
		{"empty text", &stubEmbedModels{resp: embedding(768)}, "  \n "},
		{"api error", &stubEmbedModels{err: errors.New("quota exhausted")}, "q"},
		{"no embeddings", &stubEmbedModels{resp: &genai.EmbedContentResponse{}}, "q"},
		{"wrong size", &stubEmbedModels{resp: embedding(12)}, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGemini(GeminiConfig{APIKey: "k"}, tt.stub)
			_, err := g.Embed(context.Background(), tt.text)
			require.Error(t, err)
		})
	}
}

func TestGeminiClient_MissingKeyFailsOnUse(t *testing.T) {
	orig := newGenaiClient
	defer func() { newGenaiClient = orig }()

	created := false
	newGenaiClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		created = true
		return &genai.Client{}, nil
	}

	g := NewGeminiClient(GeminiConfig{})
	_, err := g.Embed(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.False(t, created)
}

func TestGeminiClient_ClientCreatedOnce(t *testing.T) {
	orig := newGenaiClient
	defer func() { newGenaiClient = orig }()

	var got *genai.ClientConfig
	calls := 0
	newGenaiClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		calls++
		got = cfg
		return nil, errors.New("boom")
	}

	g := NewGeminiClient(GeminiConfig{APIKey: "secret"})
	for i := 0; i < 3; i++ {
		_, err := g.Embed(context.Background(), "q")
		require.Error(t, err)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, "secret", got.APIKey)
	assert.Equal(t, genai.BackendGeminiAPI, got.Backend)
}
