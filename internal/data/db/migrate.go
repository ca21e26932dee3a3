package db

import (
	"fmt"

	types "github.com/yungbote/learnproof-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrateAll creates every table plus the unique indexes the issuance path
// relies on (one certificate per learner and subject).
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
