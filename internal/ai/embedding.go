package ai

import (
	"context"
	"fmt"
	"strings"
)

// Embed returns the embedding vector for a single text.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per input, in input order. Blank inputs are
// rejected so positions always line up with the caller's slice.
func (c *OpenAICompatibleClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("input %d: %w", i, ErrEmptyInput)
		}
	}

	reqBody := map[string]interface{}{
		"model": c.cfg.EmbeddingModel,
		"input": texts,
	}

	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.post(ctx, OpEmbedding, "/embeddings", reqBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, &ProviderError{
			Op:         OpEmbedding,
			StatusCode: 200,
			Message:    fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(parsed.Data)),
		}
	}

	result := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(result) || result[d.Index] != nil {
			return nil, &ProviderError{Op: OpEmbedding, StatusCode: 200, Message: fmt.Sprintf("invalid embedding index %d", d.Index)}
		}
		if len(d.Embedding) == 0 {
			return nil, &ProviderError{Op: OpEmbedding, StatusCode: 200, Message: fmt.Sprintf("empty embedding at index %d", d.Index)}
		}
		result[d.Index] = d.Embedding
	}
	return result, nil
}
