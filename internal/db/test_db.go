package db

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing.
// A single connection keeps every query on the same in-memory database.
func SetupTestDB() (*gorm.DB, error) {
	db, err := openTestDB(":memory:")
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return prepareTestDB(db)
}

// SetupFileTestDB creates a SQLite database file at path that several
// connections write to at once. Transactions take the write lock up front
// and wait on the busy timeout.
func SetupFileTestDB(path string, maxConns int) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate&_foreign_keys=1", path)
	db, err := openTestDB(dsn)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxConns)
	return prepareTestDB(db)
}

func openTestDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

func prepareTestDB(db *gorm.DB) (*gorm.DB, error) {
	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}
	if err := Seed(db); err != nil {
		return nil, err
	}
	return db, nil
}

// CleanupTestDB cleans up the test database
func CleanupTestDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get DB instance: %v", err)
		return
	}
	sqlDB.Close()
}

// TruncateAllTables removes all rows except the seeded groups
func TruncateAllTables(db *gorm.DB) error {
	tables := []string{"order_items", "orders", "cart_items", "carts", "menu_items", "categories", "user_groups", "users"}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return err
		}
	}
	return nil
}
