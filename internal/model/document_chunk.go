package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// EmbeddingDimensions matches the vector column width below.
const EmbeddingDimensions = 1536

// DocumentChunk stores one embeddable passage of a document. ChunkIndex is
// zero-based and unique per (tenant, document).
type DocumentChunk struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    string          `gorm:"type:uuid;not null;uniqueIndex:idx_chunk_tenant_doc_index,priority:1" json:"tenant_id"`
	DocumentID  string          `gorm:"type:uuid;not null;uniqueIndex:idx_chunk_tenant_doc_index,priority:2" json:"document_id"`
	PortfolioID *string         `gorm:"type:uuid;index" json:"portfolio_id"`
	ChunkIndex  int             `gorm:"not null;uniqueIndex:idx_chunk_tenant_doc_index,priority:3" json:"chunk_index"`
	Content     string          `gorm:"type:text;not null" json:"content"`
	Embedding   pgvector.Vector `gorm:"type:vector(1536);not null" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (c *DocumentChunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// QueryMatch is one similarity search hit. It is never persisted.
type QueryMatch struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
