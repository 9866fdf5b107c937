package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"creditmemo/internal/ai"
	"creditmemo/internal/model"
	"creditmemo/internal/rag"
	"creditmemo/internal/telemetry"
	"creditmemo/internal/vectorstore"
)

const (
	DefaultTopK = 8
	MaxTopK     = 50
)

type RetrievalConfig struct {
	SystemPrompt string
	MatchCount   int
	Dimensions   int
}

type SearchInput struct {
	Scope       model.TenantScope
	PortfolioID string
	Query       string
	TopK        int
}

type GenerateInput struct {
	Scope       model.TenantScope
	Prompt      string
	PortfolioID string
	UseRAG      bool
}

type GenerateResult struct {
	Text    string
	Prompt  string
	RAGUsed bool
	Matches []model.QueryMatch
}

// RetrievalService answers similarity searches and generates memo text,
// optionally grounded on retrieved chunks.
type RetrievalService struct {
	embedder  Embedder
	completer Completer
	chunks    vectorstore.Storage
	cfg       RetrievalConfig
	logger    *slog.Logger
}

func NewRetrievalService(embedder Embedder, completer Completer, chunks vectorstore.Storage, cfg RetrievalConfig, logger *slog.Logger) *RetrievalService {
	if cfg.MatchCount <= 0 {
		cfg.MatchCount = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrievalService{
		embedder:  embedder,
		completer: completer,
		chunks:    chunks,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *RetrievalService) Search(ctx context.Context, in SearchInput) (matches []model.QueryMatch, err error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	scope, err := in.Scope.WithPortfolio(in.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	topK := in.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	matches, err = s.search(ctx, scope, vec, topK)
	if err != nil {
		return nil, rag.Fail(rag.ErrPersistenceFailure, err)
	}
	return matches, nil
}

func (s *RetrievalService) Generate(ctx context.Context, in GenerateInput) (res *GenerateResult, err error) {
	instruction := strings.TrimSpace(in.Prompt)
	if instruction == "" {
		return nil, ErrInvalidInput
	}
	if !in.Scope.Valid() {
		return nil, model.ErrMissingScope
	}

	ctx, span := telemetry.StartSpan(ctx, "rag.generate",
		attribute.String("tenant.id", in.Scope.TenantID()),
		attribute.Bool("rag.requested", in.UseRAG),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	// RAGUsed reports that retrieval was attempted, even if it found nothing.
	useRAG := in.UseRAG && in.PortfolioID != ""
	var matches []model.QueryMatch
	if useRAG {
		scope, err := in.Scope.WithPortfolio(in.PortfolioID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		vec, err := s.embedQuery(ctx, instruction)
		if err != nil {
			return nil, err
		}
		found, err := s.search(ctx, scope, vec, s.cfg.MatchCount)
		if err != nil {
			s.logger.Warn("retrieval failed, generating without context",
				"tenant", in.Scope.TenantID(), "portfolio", in.PortfolioID, "error", err)
		}
		for _, m := range found {
			if strings.TrimSpace(m.Content) != "" {
				matches = append(matches, m)
			}
		}
	}

	prompt := rag.BuildPrompt(instruction, matches)
	text, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("memo generated", "tenant", in.Scope.TenantID(), "matches", len(matches), "chars", len(text))
	return &GenerateResult{
		Text:    text,
		Prompt:  prompt,
		RAGUsed: useRAG,
		Matches: matches,
	}, nil
}

func (s *RetrievalService) embedQuery(ctx context.Context, query string) (vec []float32, err error) {
	ctx, span := telemetry.StartSpan(ctx, "rag.embed_query")
	defer func() { telemetry.EndSpan(span, err) }()

	vec, err = s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, rag.Fail(rag.ErrEmbeddingServiceFailure, err)
	}
	if s.cfg.Dimensions > 0 && len(vec) != s.cfg.Dimensions {
		return nil, rag.Fail(rag.ErrEmbeddingServiceFailure,
			fmt.Errorf("query embedding has %d dimensions, want %d", len(vec), s.cfg.Dimensions))
	}
	return vec, nil
}

func (s *RetrievalService) search(ctx context.Context, scope model.PortfolioScope, vec []float32, limit int) (matches []model.QueryMatch, err error) {
	ctx, span := telemetry.StartSpan(ctx, "rag.search",
		attribute.String("portfolio.id", scope.PortfolioID()),
		attribute.Int("limit", limit),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	matches, err = s.chunks.Search(ctx, scope, vec, limit)
	span.SetAttributes(attribute.Int("matches", len(matches)))
	return matches, err
}

func (s *RetrievalService) complete(ctx context.Context, prompt string) (text string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "rag.complete")
	defer func() { telemetry.EndSpan(span, err) }()

	text, err = s.completer.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: s.cfg.SystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", rag.Fail(rag.ErrCompletionServiceFailure, err)
	}
	return text, nil
}
