package models

import (
	"time"
)

// TranslationResult records an artifact written by the persister
type TranslationResult struct {
	ID        int       `gorm:"primaryKey;autoIncrement"`
	Filename  string    `gorm:"type:text;not null;uniqueIndex:idx_translation_results_filename"`
	Bucket    string    `gorm:"type:text;not null"`
	ObjectKey string    `gorm:"column:object_key;type:text;not null"`
	LineCount int       `gorm:"column:line_count;default:0"`
	SavedAt   time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP"`
}

// TableName overrides the table name
func (TranslationResult) TableName() string {
	return "translation_results"
}
