package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gradebook/internal/config"
	"gradebook/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB opens the configured store and migrates the schema.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(SQLiteDSN(cfg.DBPath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := Open(dialector)
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == config.DriverSQLite {
		// One connection keeps concurrent snapshot reads from racing the writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Open connects through dialector and auto-migrates the record tables.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to the database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the students, subjects and grade tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Student{}, &model.Subject{}, &model.GradeRecord{}); err != nil {
		return fmt.Errorf("auto-migrate the database: %w", err)
	}
	return nil
}

// OpenMemory opens a private in-memory SQLite database identified by name.
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := Open(sqlite.Open("file:" + name + "?mode=memory&cache=shared&_foreign_keys=1"))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// SQLiteDSN turns a file path (or ":memory:") into a DSN with foreign keys on.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1"
}
