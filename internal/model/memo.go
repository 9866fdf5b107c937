package model

import "time"

// Memo is a saved generation result. IDs are assigned before the row is
// queued for persistence, so there is no BeforeCreate hook.
type Memo struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
