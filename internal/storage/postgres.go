package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressDocumentRow is the single-table layout for the Postgres backend:
// one JSON blob per key, mirroring the key-value contract of the other
// backends.
type ProgressDocumentRow struct {
	Key       string         `gorm:"primaryKey;size:100"`
	Document  datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (ProgressDocumentRow) TableName() string {
	return "progress_documents"
}

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&ProgressDocumentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate progress documents table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Read(ctx context.Context, key string) ([]byte, error) {
	var row ProgressDocumentRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return []byte(row.Document), nil
}

func (s *PostgresStore) Write(ctx context.Context, key string, document []byte) error {
	row := ProgressDocumentRow{
		Key:       key,
		Document:  datatypes.JSON(document),
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Delete(&ProgressDocumentRow{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}
