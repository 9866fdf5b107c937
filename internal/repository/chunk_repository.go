package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"creditmemo/internal/model"
	"creditmemo/internal/vectorstore"
)

// ChunkRepository is the pgvector-backed vectorstore.Storage.
type ChunkRepository struct {
	db *gorm.DB
}

var _ vectorstore.Storage = (*ChunkRepository)(nil)

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) DeleteByDocument(ctx context.Context, scope model.TenantScope, documentID string) (int64, error) {
	if !scope.Valid() {
		return 0, model.ErrMissingScope
	}
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ?", scope.TenantID(), documentID).
		Delete(&model.DocumentChunk{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete document chunks failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ChunkRepository) InsertBatch(ctx context.Context, scope model.TenantScope, chunks []model.DocumentChunk) error {
	if !scope.Valid() {
		return model.ErrMissingScope
	}
	if len(chunks) == 0 {
		return nil
	}
	for i := range chunks {
		if chunks[i].TenantID != scope.TenantID() {
			return fmt.Errorf("chunk %d belongs to another tenant", chunks[i].ChunkIndex)
		}
	}
	if err := r.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		return fmt.Errorf("create document chunks batch failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) CountByDocument(ctx context.Context, scope model.TenantScope, documentID string) (int64, error) {
	if !scope.Valid() {
		return 0, model.ErrMissingScope
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).
		Where("tenant_id = ? AND document_id = ?", scope.TenantID(), documentID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count document chunks failed: %w", err)
	}
	return n, nil
}

// Search ranks by cosine distance (<=>); similarity is 1 - distance.
func (r *ChunkRepository) Search(ctx context.Context, scope model.PortfolioScope, query []float32, limit int) ([]model.QueryMatch, error) {
	if !scope.Valid() {
		return nil, model.ErrMissingScope
	}
	if limit <= 0 {
		limit = 8
	}

	var matches []model.QueryMatch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		matches, err = searchScoped(tx, scope, pgvector.NewVector(query), limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search document chunks failed: %w", err)
	}
	return matches, nil
}

// searchScoped must run inside a transaction. The HNSW index is global, so
// iterative scan (pgvector 0.8+) keeps walking the graph until the tenant and
// portfolio filter has yielded limit rows. relaxed_order may return rows
// slightly out of distance order, hence the final sort.
func searchScoped(tx *gorm.DB, scope model.PortfolioScope, vec pgvector.Vector, limit int) ([]model.QueryMatch, error) {
	if err := tx.Exec("SET LOCAL hnsw.iterative_scan = relaxed_order").Error; err != nil {
		return nil, err
	}
	matches := make([]model.QueryMatch, 0, limit)
	err := tx.Raw(`
		SELECT document_id, chunk_index, content, 1 - (embedding <=> ?) AS similarity
		FROM document_chunks
		WHERE tenant_id = ? AND portfolio_id = ?
		ORDER BY embedding <=> ?
		LIMIT ?
	`, vec, scope.Tenant().TenantID(), scope.PortfolioID(), vec, limit).Find(&matches).Error
	if err != nil {
		return nil, err
	}
	sortBySimilarity(matches)
	return matches, nil
}

func sortBySimilarity(matches []model.QueryMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
}

func (r *ChunkRepository) Transaction(ctx context.Context, fn func(tx vectorstore.Storage) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ChunkRepository{db: tx})
	})
}
