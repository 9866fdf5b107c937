package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is one uploaded source file. PortfolioID is set at most once, by
// the first ingest request that supplies it.
type Document struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    string    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID      string    `gorm:"type:uuid;index" json:"user_id"`
	Bucket      string    `gorm:"size:128;not null" json:"bucket"`
	ObjectPath  string    `gorm:"size:512;not null" json:"object_path"`
	Filename    string    `gorm:"size:256;not null" json:"filename"`
	MimeType    string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	PortfolioID *string   `gorm:"type:uuid;index" json:"portfolio_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
