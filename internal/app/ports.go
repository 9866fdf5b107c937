package app

import (
	"context"

	"creditmemo/internal/ai"
	"creditmemo/internal/model"
)

// The interfaces below are what the services need from their collaborators.
// Production wiring passes the gorm repositories, the S3 object store and
// the OpenAI-compatible client; tests pass fakes.

type DocumentStore interface {
	Create(ctx context.Context, scope model.TenantScope, doc *model.Document) error
	GetByID(ctx context.Context, scope model.TenantScope, id string) (*model.Document, error)
	LinkPortfolio(ctx context.Context, scope model.TenantScope, id, portfolioID string) (bool, error)
	List(ctx context.Context, scope model.TenantScope) ([]model.Document, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	Download(ctx context.Context, bucket, path string) ([]byte, error)
}

type TextExtractor interface {
	ExtractText(b []byte) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}
