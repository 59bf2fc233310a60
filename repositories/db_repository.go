package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"translation-pipeline/domain"
	"translation-pipeline/models"
)

type PostgresDBRepository struct {
	DB *gorm.DB
}

func NewDBRepository(db *gorm.DB) *PostgresDBRepository {
	return &PostgresDBRepository{DB: db}
}

// Migrate creates or updates the result table.
func (repo *PostgresDBRepository) Migrate() error {
	if err := repo.DB.AutoMigrate(&models.TranslationResult{}); err != nil {
		return fmt.Errorf("failed to migrate translation_results: %w", err)
	}
	return nil
}

// RecordResult upserts the record of a persisted artifact. Recording the
// same filename twice updates the existing row.
func (repo *PostgresDBRepository) RecordResult(ctx context.Context, rec domain.ResultRecord) error {
	row := models.TranslationResult{
		Filename:  rec.Filename,
		Bucket:    rec.Bucket,
		ObjectKey: rec.Key,
		LineCount: rec.LineCount,
		SavedAt:   rec.SavedAt,
	}

	err := repo.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "filename"}},
			DoUpdates: clause.AssignmentColumns([]string{"bucket", "object_key", "line_count", "saved_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to record result for %s: %w", rec.Filename, err)
	}
	return nil
}
