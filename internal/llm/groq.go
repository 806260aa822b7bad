package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const groqDefaultBaseURL = "https://api.groq.com/openai/v1"

type GroqConfig struct {
	APIKey  string
	BaseURL string
	// HTTPClient defaults to http.DefaultClient, so only the network
	// stack's own timeouts apply.
	HTTPClient *http.Client
}

// GroqClient sends chat completions to Groq's OpenAI-compatible endpoint.
// Every call is a single attempt.
type GroqClient struct {
	client openai.Client
	hasKey bool
}

func NewGroqClient(cfg GroqConfig) *GroqClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = groqDefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &GroqClient{client: client, hasKey: cfg.APIKey != ""}
}

func (c *GroqClient) Complete(ctx context.Context, req rag.CompletionRequest) (string, error) {
	if !c.hasKey {
		return "", NewProviderError(ErrCodeAuthentication, "missing GROQ_API_KEY", nil)
	}
	params, err := buildChatParams(req)
	if err != nil {
		return "", NewProviderError(ErrCodeInvalidRequest, "build request", err)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", NewProviderError(ErrCodeServerError, "completion returned no choices", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

func buildChatParams(req rag.CompletionRequest) (openai.ChatCompletionNewParams, error) {
	if req.Model == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
		TopP:        openai.Float(req.TopP),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	return params, nil
}

func toChatMessageParam(msg rag.ConversationMessage) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case rag.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case rag.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case rag.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
	}
}

func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProviderError(ErrCodeTimeout, "request timed out or cancelled", err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return NewProviderError(ErrCodeAuthentication, "groq rejected credentials", err)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return NewProviderError(ErrCodeRateLimit, "groq rate limit", err)
		case apiErr.StatusCode == http.StatusNotFound:
			return NewProviderError(ErrCodeModelNotFound, "groq model not found", err)
		case apiErr.StatusCode >= 500:
			return NewProviderError(ErrCodeServerError, "groq server error", err)
		default:
			return NewProviderError(ErrCodeInvalidRequest, "groq rejected request", err)
		}
	}

	return NewProviderError(ErrCodeServerError, "groq unreachable", err)
}

var _ rag.CompletionClient = (*GroqClient)(nil)
