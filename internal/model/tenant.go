package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RoleOwner = "owner"

// Tenant is an isolated customer organization. Every document, chunk,
// portfolio entry and memo row carries its ID.
type Tenant struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type TenantMembership struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_membership_tenant_user,priority:1" json:"tenant_id"`
	UserID    string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_membership_tenant_user,priority:2" json:"user_id"`
	Role      string    `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *TenantMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
