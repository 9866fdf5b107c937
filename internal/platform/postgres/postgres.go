package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"creditmemo/internal/model"
	"creditmemo/internal/platform"
)

func New(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get postgres sql db failed: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := platform.Ping(ctx, "postgres", sqlDB.PingContext); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate enables pgvector, creates the tables and adds the cosine index the
// similarity search relies on.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector extension failed: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Tenant{},
		&model.TenantMembership{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.PortfolioCompany{},
		&model.Memo{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	// GORM has no vector index support. Filtered search relies on
	// hnsw.iterative_scan, which needs pgvector 0.8 or later.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding
		ON document_chunks USING hnsw (embedding vector_cosine_ops)
	`).Error; err != nil {
		return fmt.Errorf("create vector index failed: %w", err)
	}
	return nil
}
