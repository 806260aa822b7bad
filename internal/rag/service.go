package rag

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/ai-model4vda/lamp2-4.0/internal/rag"

type mode string

const (
	modeRAG   mode = "rag"
	modePlain mode = "plain"
)

// Service answers legal-assistance requests, with or without retrieved cases.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	embeddings   EmbeddingsClient
	retriever    CaseRetriever
	llm          CompletionClient
	prompts      TemplateSource
	defaultModel string
	logger       *zap.Logger
	tracer       trace.Tracer
}

type Option func(*Service)

// WithDefaultModel overrides DefaultModel for requests that name no model.
func WithDefaultModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.defaultModel = model
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func NewService(embeddings EmbeddingsClient, retriever CaseRetriever, llm CompletionClient, prompts TemplateSource, opts ...Option) *Service {
	s := &Service{
		embeddings:   embeddings,
		retriever:    retriever,
		llm:          llm,
		prompts:      prompts,
		defaultModel: DefaultModel,
		logger:       zap.NewNop(),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond runs the retrieval-augmented path. Embedding and retrieval failures
// are returned as errors; a completion failure yields a degraded Reply.
func (s *Service) Respond(ctx context.Context, req IncomingRequest) (Reply, error) {
	ctx, span := s.tracer.Start(ctx, "rag.Respond")
	defer span.End()

	cases, err := s.retrieve(ctx, RetrievalQuery(req))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return Reply{}, err
	}

	system := s.prompts.RAG() + AssembleContext(cases)
	return s.complete(ctx, modeRAG, system, req), nil
}

// RespondWithoutRetrieval answers from the plain template only; it never
// calls the embedding or retrieval clients.
func (s *Service) RespondWithoutRetrieval(ctx context.Context, req IncomingRequest) (Reply, error) {
	ctx, span := s.tracer.Start(ctx, "rag.RespondWithoutRetrieval")
	defer span.End()

	return s.complete(ctx, modePlain, s.prompts.Plain(), req), nil
}

// RetrievalQuery picks the text cases are retrieved for: the first history
// turn when there is one, so retrieval stays anchored to how the conversation
// opened, otherwise the current message.
func RetrievalQuery(req IncomingRequest) string {
	if len(req.History) > 0 {
		return req.History[0].Content
	}
	return req.CurrentMessage
}

// BuildMessages returns [system] + history + [current user message].
func BuildMessages(system string, history []ConversationMessage, current string) []ConversationMessage {
	messages := make([]ConversationMessage, 0, len(history)+2)
	messages = append(messages, ConversationMessage{Role: RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, ConversationMessage{Role: RoleUser, Content: current})
	return messages
}

func (s *Service) retrieve(ctx context.Context, query string) ([]RetrievedCase, error) {
	start := time.Now()
	lang := DetectLanguage(query)

	ctx, span := s.tracer.Start(ctx, "rag.retrieve", trace.WithAttributes(
		attribute.String("query.language", lang),
		attribute.Int("retrieval.top_k", TopK),
	))
	defer span.End()

	vec, err := s.embeddings.Embed(ctx, query)
	if err != nil {
		retrievalsTotal.WithLabelValues("embed_error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("embed query: %w", err)
	}

	cases, err := s.retriever.SearchCases(ctx, vec, TopK)
	if err != nil {
		retrievalsTotal.WithLabelValues("search_error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("search similar cases: %w", err)
	}

	retrievalsTotal.WithLabelValues("ok").Inc()
	retrievalDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("retrieval.matches", len(cases)))

	s.logger.Debug("similar cases retrieved",
		zap.String("language", lang),
		zap.Int("matches", len(cases)),
		zap.Duration("duration", time.Since(start)),
	)
	return cases, nil
}

func (s *Service) complete(ctx context.Context, m mode, system string, req IncomingRequest) Reply {
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	ctx, span := s.tracer.Start(ctx, "rag.complete", trace.WithAttributes(
		attribute.String("rag.mode", string(m)),
		attribute.String("llm.model", model),
		attribute.Int("llm.history_turns", len(req.History)),
	))
	defer span.End()

	text, err := s.llm.Complete(ctx, CompletionRequest{
		Model:       model,
		Messages:    BuildMessages(system, req.History, req.CurrentMessage),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		TopP:        TopP,
	})
	if err != nil {
		completionFailures.WithLabelValues(string(m)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.logger.Warn("completion failed, returning fallback message",
			zap.String("mode", string(m)),
			zap.String("model", model),
			zap.Error(err),
		)
		return Reply{Text: CompletionFailureMessage, Degraded: true}
	}

	completionsTotal.WithLabelValues(string(m)).Inc()
	return Reply{Text: text}
}
