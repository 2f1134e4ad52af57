package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

// Options tunes the sqlite connection.
type Options struct {
	// Silent disables gorm's SQL logging.
	Silent bool
}

func NewSQLiteDB(path string, opts Options) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	if !strings.HasPrefix(path, ":memory:") && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	level := logger.Warn
	if opts.Silent {
		level = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; serialize access through one connection.
	conn, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	conn.SetMaxOpenConns(1)

	return db, nil
}

func RunMigrations(db *gorm.DB) error {
	models := []interface{}{
		&models.Setting{},
		&models.StateEntry{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
