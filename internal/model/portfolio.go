package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PortfolioCompany struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID    string    `gorm:"type:uuid;index" json:"user_id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Ticker    string    `gorm:"size:32" json:"ticker"`
	Industry  string    `gorm:"size:128" json:"industry"`
	Country   string    `gorm:"size:64" json:"country"`
	LEI       string    `gorm:"column:lei;size:20" json:"lei"`
	CreatedAt time.Time `json:"created_at"`
}

func (PortfolioCompany) TableName() string {
	return "portfolio"
}

func (p *PortfolioCompany) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
