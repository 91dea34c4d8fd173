// internal/database/database.go
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
)

// InitDB opens the Postgres connection used by the record store.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// MigrateDB runs auto migration for the persisted schema.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(&models.ImageRecord{})
}
