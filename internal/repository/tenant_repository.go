package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"creditmemo/internal/model"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// CreateWithOwner inserts the user, the tenant and an owner membership
// linking them, all or nothing.
func (r *TenantRepository) CreateWithOwner(ctx context.Context, user *model.User, tenant *model.Tenant) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user failed: %w", err)
		}
		if err := tx.Create(tenant).Error; err != nil {
			return fmt.Errorf("create tenant failed: %w", err)
		}
		membership := &model.TenantMembership{
			TenantID: tenant.ID,
			UserID:   user.ID,
			Role:     model.RoleOwner,
		}
		if err := tx.Create(membership).Error; err != nil {
			return fmt.Errorf("create membership failed: %w", err)
		}
		return nil
	})
	return err
}

// TenantForUser returns the user's earliest membership tenant, or nil when
// the user belongs to none.
func (r *TenantRepository) TenantForUser(ctx context.Context, userID string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.WithContext(ctx).
		Joins("JOIN tenant_memberships ON tenant_memberships.tenant_id = tenants.id").
		Where("tenant_memberships.user_id = ?", userID).
		Order("tenant_memberships.created_at ASC").
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query tenant for user failed: %w", err)
	}
	return &tenant, nil
}
