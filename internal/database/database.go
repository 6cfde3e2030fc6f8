package database

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the SQLite reference database at path with foreign keys
// enforced.
func NewDatabase(path string) (*gorm.DB, error) {
	return open(fmt.Sprintf("file:%s?_foreign_keys=on", path))
}

// NewTestDB opens a private in-memory database.
func NewTestDB() (*gorm.DB, error) {
	return open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()))
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// MigrateSchema creates or updates the reference data tables.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&BuyerRecord{}, &PropertyRecord{}, &EventRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
