package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"creditmemo/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, scope model.TenantScope, doc *model.Document) error {
	if !scope.Valid() {
		return model.ErrMissingScope
	}
	doc.TenantID = scope.TenantID()
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the document does not exist or belongs to
// another tenant.
func (r *DocumentRepository) GetByID(ctx context.Context, scope model.TenantScope, id string) (*model.Document, error) {
	if !scope.Valid() {
		return nil, model.ErrMissingScope
	}
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, scope.TenantID()).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document failed: %w", err)
	}
	return &doc, nil
}

// LinkPortfolio records portfolioID on the document only if none is set yet.
// It reports whether this call made the link.
func (r *DocumentRepository) LinkPortfolio(ctx context.Context, scope model.TenantScope, id, portfolioID string) (bool, error) {
	if !scope.Valid() {
		return false, model.ErrMissingScope
	}
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND tenant_id = ? AND portfolio_id IS NULL", id, scope.TenantID()).
		Update("portfolio_id", portfolioID)
	if res.Error != nil {
		return false, fmt.Errorf("link document portfolio failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *DocumentRepository) List(ctx context.Context, scope model.TenantScope) ([]model.Document, error) {
	if !scope.Valid() {
		return nil, model.ErrMissingScope
	}
	var list []model.Document
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", scope.TenantID()).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}
