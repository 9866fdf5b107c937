package vectorstore

import (
	"context"

	"creditmemo/internal/model"
)

// Storage persists document chunks and ranks them against a query vector.
// Every method takes a scope value, so no call can reach another tenant's
// rows.
type Storage interface {
	DeleteByDocument(ctx context.Context, scope model.TenantScope, documentID string) (int64, error)
	InsertBatch(ctx context.Context, scope model.TenantScope, chunks []model.DocumentChunk) error
	CountByDocument(ctx context.Context, scope model.TenantScope, documentID string) (int64, error)
	// Search returns at most limit matches ordered by descending similarity,
	// restricted to the tenant and portfolio in scope.
	Search(ctx context.Context, scope model.PortfolioScope, query []float32, limit int) ([]model.QueryMatch, error)
	// Transaction runs fn against a Storage whose writes commit only if fn
	// returns nil.
	Transaction(ctx context.Context, fn func(tx Storage) error) error
}
