package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/casetree-backend/internal/domain"
)

// AutoMigrateAll creates or updates every table, parents before children so
// the cascading foreign keys resolve.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}
