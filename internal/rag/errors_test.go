package rag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFail_KeepsKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("ingest doc-1: %w", Fail(ErrEmbeddingServiceFailure, cause))

	assert.ErrorIs(t, err, ErrEmbeddingServiceFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrPersistenceFailure)
	assert.Equal(t, "embedding", Stage(err))
	assert.Contains(t, err.Error(), "embedding service failure: connection reset")
}

func TestFail_NilCause(t *testing.T) {
	err := Fail(ErrNoIngestibleContent, nil)
	assert.Equal(t, "no ingestible content", err.Error())
	assert.ErrorIs(t, err, ErrNoIngestibleContent)
	assert.Equal(t, "chunking", Stage(err))
}

func TestStage_OutsideTaxonomy(t *testing.T) {
	assert.Equal(t, "", Stage(errors.New("boom")))
	assert.Equal(t, "", Stage(nil))
}
