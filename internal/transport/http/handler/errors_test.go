package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditmemo/internal/ai"
	"creditmemo/internal/app"
	"creditmemo/internal/model"
	"creditmemo/internal/rag"
	"creditmemo/internal/transport/http/response"
)

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestStatusFor(t *testing.T) {
	providerErr := &ai.ProviderError{Op: ai.OpEmbedding, StatusCode: 429, Message: "rate limited"}
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"document not found", rag.Fail(rag.ErrDocumentNotFound, errors.New("doc-1")), http.StatusNotFound, response.CodeDocumentNotFound},
		{"extraction", rag.Fail(rag.ErrExtractionFailure, errors.New("bad xref")), http.StatusUnprocessableEntity, response.CodeUnprocessable},
		{"no content", rag.Fail(rag.ErrNoIngestibleContent, nil), http.StatusUnprocessableEntity, response.CodeUnprocessable},
		{"embedding", rag.Fail(rag.ErrEmbeddingServiceFailure, providerErr), http.StatusBadGateway, response.CodeUpstream},
		{"completion", rag.Fail(rag.ErrCompletionServiceFailure, errors.New("500")), http.StatusBadGateway, response.CodeUpstream},
		{"storage read", rag.Fail(rag.ErrStorageReadFailure, errors.New("NoSuchKey")), http.StatusBadGateway, response.CodeUpstream},
		{"persistence", rag.Fail(rag.ErrPersistenceFailure, errors.New("conn reset")), http.StatusInternalServerError, response.CodeInternalServer},
		{"invalid input", fmt.Errorf("%w: empty query", app.ErrInvalidInput), http.StatusBadRequest, response.CodeBadRequest},
		{"missing scope", model.ErrMissingScope, http.StatusBadRequest, response.CodeBadRequest},
		{"portfolio not found", app.ErrPortfolioNotFound, http.StatusNotFound, response.CodePortfolioNotFound},
		{"file too large", app.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge},
		{"memo enqueue", app.ErrMemoEnqueue, http.StatusServiceUnavailable, response.CodeUpstream},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.CodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestWriteError_StageFailureCarriesStageAndMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := rag.Fail(rag.ErrEmbeddingServiceFailure, &ai.ProviderError{Op: ai.OpEmbedding, StatusCode: 401, Message: "Incorrect API key provided"})
	writeError(c, err, "ingest failed", gin.H{"document_id": "doc-1", "chunks_inserted": 50})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	env := decode(t, w)
	assert.Equal(t, response.CodeUpstream, env.Code)
	assert.Contains(t, env.Message, "embedding service failure")
	assert.Contains(t, env.Message, "Incorrect API key provided")
	assert.Equal(t, "embedding", env.Data["stage"])
	assert.EqualValues(t, 50, env.Data["chunks_inserted"])
	assert.Equal(t, "doc-1", env.Data["document_id"])
}

func TestWriteError_UnclassifiedErrorUsesFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeError(c, errors.New("pq: password authentication failed for user postgres"), "list documents failed", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w)
	assert.Equal(t, "list documents failed", env.Message)
	assert.Nil(t, env.Data)
}

func TestWriteError_PersistenceStageHidesDriverText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	cause := errors.New(`ERROR: relation "document_chunks" does not exist (SQLSTATE 42P01)`)
	writeError(c, rag.Fail(rag.ErrPersistenceFailure, cause), "ingest failed", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w)
	assert.Equal(t, "persistence failure", env.Message)
	assert.NotContains(t, w.Body.String(), "document_chunks")
	assert.Equal(t, "persistence", env.Data["stage"])
}
