package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"creditmemo/internal/model"
)

type PortfolioRepository struct {
	db *gorm.DB
}

func NewPortfolioRepository(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) Create(ctx context.Context, scope model.TenantScope, company *model.PortfolioCompany) error {
	if !scope.Valid() {
		return model.ErrMissingScope
	}
	company.TenantID = scope.TenantID()
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		return fmt.Errorf("create portfolio company failed: %w", err)
	}
	return nil
}

func (r *PortfolioRepository) List(ctx context.Context, scope model.TenantScope) ([]model.PortfolioCompany, error) {
	if !scope.Valid() {
		return nil, model.ErrMissingScope
	}
	var list []model.PortfolioCompany
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", scope.TenantID()).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list portfolio failed: %w", err)
	}
	return list, nil
}

// Delete reports whether a row of this tenant was removed.
func (r *PortfolioRepository) Delete(ctx context.Context, scope model.TenantScope, id string) (bool, error) {
	if !scope.Valid() {
		return false, model.ErrMissingScope
	}
	res := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, scope.TenantID()).Delete(&model.PortfolioCompany{})
	if res.Error != nil {
		return false, fmt.Errorf("delete portfolio company failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
