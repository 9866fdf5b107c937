package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditmemo/internal/ai"
	"creditmemo/internal/model"
	"creditmemo/internal/rag"
	"creditmemo/internal/vectorstore/memory"
)

type retrievalFixture struct {
	tenant    model.TenantScope
	portfolio string
	embedder  *fakeEmbedder
	completer *fakeCompleter
	store     *spyStorage
}

func newRetrievalFixture(t *testing.T) *retrievalFixture {
	t.Helper()
	tenant, err := model.NewTenantScope(uuid.NewString())
	require.NoError(t, err)
	return &retrievalFixture{
		tenant:    tenant,
		portfolio: uuid.NewString(),
		embedder:  &fakeEmbedder{dims: testDims},
		completer: &fakeCompleter{reply: "Credit memo body"},
		store:     &spyStorage{Storage: memory.NewStorage()},
	}
}

func (f *retrievalFixture) service() *RetrievalService {
	return NewRetrievalService(f.embedder, f.completer, f.store, RetrievalConfig{
		SystemPrompt: "You are an assistant that writes credit risk memoranda.",
		MatchCount:   8,
		Dimensions:   testDims,
	}, quietLogger)
}

func (f *retrievalFixture) seed(t *testing.T, contents ...string) {
	t.Helper()
	pid := f.portfolio
	rows := make([]model.DocumentChunk, len(contents))
	for i, c := range contents {
		rows[i] = model.DocumentChunk{
			TenantID:    f.tenant.TenantID(),
			DocumentID:  "doc-1",
			PortfolioID: &pid,
			ChunkIndex:  i,
			Content:     c,
			Embedding:   pgvector.NewVector([]float32{float32(i + 1), 1, 1, 1}),
		}
	}
	require.NoError(t, f.store.InsertBatch(context.Background(), f.tenant, rows))
}

func TestGenerate_WithoutRAGSkipsRetrieval(t *testing.T) {
	f := newRetrievalFixture(t)
	f.seed(t, "Revenue grew 12% year over year.")

	res, err := f.service().Generate(context.Background(), GenerateInput{
		Scope:       f.tenant,
		Prompt:      "Write a credit memo for ACME.",
		PortfolioID: f.portfolio,
		UseRAG:      false,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.embedder.queryCalls)
	assert.Equal(t, 0, f.store.searchCalls)
	assert.Equal(t, "Write a credit memo for ACME.", res.Prompt)
	assert.False(t, res.RAGUsed)
	require.Len(t, f.completer.messages, 1)
	assert.Equal(t, "system", f.completer.messages[0][0].Role)
	assert.Equal(t, "Write a credit memo for ACME.", f.completer.messages[0][1].Content)
	assert.Equal(t, "Credit memo body", res.Text)
}

func TestGenerate_RAGWithoutPortfolioSkipsRetrieval(t *testing.T) {
	f := newRetrievalFixture(t)

	res, err := f.service().Generate(context.Background(), GenerateInput{Scope: f.tenant, Prompt: "Assess leverage.", UseRAG: true})
	require.NoError(t, err)
	assert.False(t, res.RAGUsed)
	assert.Equal(t, 0, f.embedder.queryCalls)
	assert.Equal(t, "Assess leverage.", res.Prompt)
}

func TestGenerate_GroundedPrompt(t *testing.T) {
	f := newRetrievalFixture(t)
	f.seed(t, "Revenue grew 12% year over year.", "   ", "Net leverage is 3.1x.")

	res, err := f.service().Generate(context.Background(), GenerateInput{
		Scope:       f.tenant,
		Prompt:      "Assess leverage.",
		PortfolioID: f.portfolio,
		UseRAG:      true,
	})
	require.NoError(t, err)

	assert.True(t, res.RAGUsed)
	require.Len(t, res.Matches, 2, "blank chunks are dropped")
	assert.Contains(t, res.Prompt, "[#1]")
	assert.Contains(t, res.Prompt, "[#2]")
	assert.NotContains(t, res.Prompt, "[#3]")
	assert.Contains(t, res.Prompt, "Net leverage is 3.1x.")
	assert.Equal(t, res.Prompt, f.completer.messages[0][1].Content)
}

func TestGenerate_SearchFailureDegrades(t *testing.T) {
	f := newRetrievalFixture(t)
	f.store.searchErr = errors.New("pgvector timeout")

	res, err := f.service().Generate(context.Background(), GenerateInput{
		Scope:       f.tenant,
		Prompt:      "Assess leverage.",
		PortfolioID: f.portfolio,
		UseRAG:      true,
	})
	require.NoError(t, err)
	assert.True(t, res.RAGUsed, "retrieval was requested with a portfolio")
	assert.Empty(t, res.Matches)
	assert.Equal(t, "Assess leverage.", res.Prompt)
	assert.Equal(t, 1, f.store.searchCalls)
}

func TestGenerate_QueryEmbeddingFailureIsHard(t *testing.T) {
	f := newRetrievalFixture(t)
	f.embedder.queryErr = &ai.ProviderError{Op: ai.OpEmbedding, StatusCode: 401, Message: "Incorrect API key provided"}

	_, err := f.service().Generate(context.Background(), GenerateInput{
		Scope:       f.tenant,
		Prompt:      "Assess leverage.",
		PortfolioID: f.portfolio,
		UseRAG:      true,
	})
	assert.ErrorIs(t, err, rag.ErrEmbeddingServiceFailure)
	assert.Empty(t, f.completer.messages)
}

func TestGenerate_CompletionFailure(t *testing.T) {
	f := newRetrievalFixture(t)
	f.completer.err = &ai.ProviderError{Op: ai.OpCompletion, StatusCode: 429, Message: "Rate limit reached"}

	_, err := f.service().Generate(context.Background(), GenerateInput{Scope: f.tenant, Prompt: "Assess leverage."})
	assert.ErrorIs(t, err, rag.ErrCompletionServiceFailure)
	assert.Equal(t, "completion", rag.Stage(err))

	var pe *ai.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 429, pe.StatusCode)
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	f := newRetrievalFixture(t)
	_, err := f.service().Generate(context.Background(), GenerateInput{Scope: f.tenant, Prompt: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearch_TopKDefaultsAndCap(t *testing.T) {
	f := newRetrievalFixture(t)
	contents := make([]string, 60)
	for i := range contents {
		contents[i] = "chunk body"
	}
	f.seed(t, contents...)
	svc := f.service()
	ctx := context.Background()

	matches, err := svc.Search(ctx, SearchInput{Scope: f.tenant, PortfolioID: f.portfolio, Query: "liquidity"})
	require.NoError(t, err)
	assert.Len(t, matches, DefaultTopK)

	matches, err = svc.Search(ctx, SearchInput{Scope: f.tenant, PortfolioID: f.portfolio, Query: "liquidity", TopK: 500})
	require.NoError(t, err)
	assert.Len(t, matches, MaxTopK)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
}

func TestSearch_Errors(t *testing.T) {
	f := newRetrievalFixture(t)
	svc := f.service()
	ctx := context.Background()

	_, err := svc.Search(ctx, SearchInput{Scope: f.tenant, PortfolioID: f.portfolio, Query: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Search(ctx, SearchInput{Scope: f.tenant, Query: "liquidity"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	f.store.searchErr = errors.New("pgvector timeout")
	_, err = svc.Search(ctx, SearchInput{Scope: f.tenant, PortfolioID: f.portfolio, Query: "liquidity"})
	assert.ErrorIs(t, err, rag.ErrPersistenceFailure)

	f.embedder.queryErr = errors.New("dial tcp: connection refused")
	_, err = svc.Search(ctx, SearchInput{Scope: f.tenant, PortfolioID: f.portfolio, Query: "liquidity"})
	assert.ErrorIs(t, err, rag.ErrEmbeddingServiceFailure)
}
