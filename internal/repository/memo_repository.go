package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"creditmemo/internal/model"
)

type MemoRepository struct {
	db *gorm.DB
}

func NewMemoRepository(db *gorm.DB) *MemoRepository {
	return &MemoRepository{db: db}
}

// Create is idempotent on the memo id so a redelivered queue message does not
// fail.
func (r *MemoRepository) Create(ctx context.Context, memo *model.Memo) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(memo).Error; err != nil {
		return fmt.Errorf("create memo failed: %w", err)
	}
	return nil
}

func (r *MemoRepository) ListByTenant(ctx context.Context, scope model.TenantScope, limit int) ([]model.Memo, error) {
	if !scope.Valid() {
		return nil, model.ErrMissingScope
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var memos []model.Memo
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", scope.TenantID()).Order("created_at DESC").Limit(limit).Find(&memos).Error; err != nil {
		return nil, fmt.Errorf("list memos failed: %w", err)
	}
	return memos, nil
}
