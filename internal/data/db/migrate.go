package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
)

// AutoMigrateAll creates the catalog tables and their plain foreign-key indexes.
// Uniqueness is left to Repairer so that duplicates are cleaned before the
// unique indexes go in.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(catalog.Models()...); err != nil {
		return fmt.Errorf("automigrate catalog: %w", err)
	}
	return nil
}
