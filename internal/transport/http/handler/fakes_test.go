package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"creditmemo/internal/ai"
	"creditmemo/internal/app"
	"creditmemo/internal/model"
	"creditmemo/internal/transport/http/middleware"
	"creditmemo/internal/vectorstore/memory"
)

type memoryDocumentStore struct {
	docs map[string]*model.Document
}

func newMemoryDocumentStore() *memoryDocumentStore {
	return &memoryDocumentStore{docs: map[string]*model.Document{}}
}

func (s *memoryDocumentStore) Create(ctx context.Context, scope model.TenantScope, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.TenantID = scope.TenantID()
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *memoryDocumentStore) GetByID(ctx context.Context, scope model.TenantScope, id string) (*model.Document, error) {
	d, ok := s.docs[id]
	if !ok || d.TenantID != scope.TenantID() {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *memoryDocumentStore) LinkPortfolio(ctx context.Context, scope model.TenantScope, id, portfolioID string) (bool, error) {
	d, ok := s.docs[id]
	if !ok || d.TenantID != scope.TenantID() || d.PortfolioID != nil {
		return false, nil
	}
	d.PortfolioID = &portfolioID
	return true, nil
}

func (s *memoryDocumentStore) List(ctx context.Context, scope model.TenantScope) ([]model.Document, error) {
	var out []model.Document
	for _, d := range s.docs {
		if d.TenantID == scope.TenantID() {
			out = append(out, *d)
		}
	}
	return out, nil
}

type memoryObjectStore struct {
	objects map[string][]byte
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: map[string][]byte{}}
}

func (s *memoryObjectStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	s.objects[bucket+"/"+path] = append([]byte(nil), data...)
	return nil
}

func (s *memoryObjectStore) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	b, ok := s.objects[bucket+"/"+path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return b, nil
}

// plainTextExtractor treats the stored bytes as already extracted text.
type plainTextExtractor struct{}

func (plainTextExtractor) ExtractText(b []byte) (string, error) { return string(b), nil }

// stubEmbedder derives a vector from the text length. failOnBatch makes the
// n-th EmbedBatch call (1-based) fail.
type stubEmbedder struct {
	batchCalls  int
	failOnBatch int
}

func (e *stubEmbedder) vector(text string) []float32 {
	return []float32{float32(len(text)), 1, 1}
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	if e.failOnBatch > 0 && e.batchCalls == e.failOnBatch {
		return nil, &ai.ProviderError{Op: ai.OpEmbedding, StatusCode: 500, Message: fmt.Sprintf("batch %d rejected", e.batchCalls)}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

type stubCompleter struct {
	messages [][]ai.ChatMessage
}

func (c *stubCompleter) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	c.messages = append(c.messages, messages)
	return "Draft credit memo.", nil
}

type pipelineFixture struct {
	docs      *memoryDocumentStore
	objects   *memoryObjectStore
	embedder  *stubEmbedder
	completer *stubCompleter
	chunks    *memory.Storage
	scope     model.TenantScope
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	scope, err := model.NewTenantScope(uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}
	return &pipelineFixture{
		docs:      newMemoryDocumentStore(),
		objects:   newMemoryObjectStore(),
		embedder:  &stubEmbedder{},
		completer: &stubCompleter{},
		chunks:    memory.NewStorage(),
		scope:     scope,
	}
}

// seedDocument stores text as an uploaded object and returns its document.
func (f *pipelineFixture) seedDocument(t *testing.T, text string) *model.Document {
	t.Helper()
	doc := &model.Document{
		Bucket:     "tenant-docs",
		ObjectPath: f.scope.TenantID() + "/1700000000000_report.pdf",
		Filename:   "report.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  int64(len(text)),
	}
	if err := f.docs.Create(context.Background(), f.scope, doc); err != nil {
		t.Fatal(err)
	}
	f.objects.objects[doc.Bucket+"/"+doc.ObjectPath] = []byte(text)
	return doc
}

func (f *pipelineFixture) router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	documents := NewDocumentHandler(
		app.NewDocumentService(f.docs, f.objects, "tenant-docs", 1<<20, nil),
		app.NewIngestService(f.docs, f.objects, plainTextExtractor{}, f.embedder, f.chunks, app.IngestConfig{BatchSize: 50}, nil),
		1<<20,
	)
	ragHandler := NewRAGHandler(app.NewRetrievalService(f.embedder, f.completer, f.chunks, app.RetrievalConfig{}, nil))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.NewString())
		c.Set(middleware.ContextTenantScopeKey, f.scope)
		c.Next()
	})
	r.POST("/docs/upload", documents.Upload)
	r.POST("/docs/ingest", documents.Ingest)
	r.POST("/rag/search", ragHandler.Search)
	r.POST("/generate", ragHandler.Generate)
	return r
}
