package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tadeyemo32/prospect-backend/config"
	"github.com/tadeyemo32/prospect-backend/logger"
	"github.com/tadeyemo32/prospect-backend/models"
)

// Open connects to Postgres when DATABASE_URL is set and to a local SQLite file
// otherwise, then migrates the schema.
func Open(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var (
		conn *gorm.DB
		err  error
	)
	if cfg.DatabaseURL != "" {
		conn, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gcfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info("Connected to Postgres")
	} else {
		if cfg.SupabaseURL != "" {
			log.Warn("SUPABASE_URL is set without DATABASE_URL; the REST endpoint is not used, falling back to SQLite",
				"supabase_url", cfg.SupabaseURL)
		}
		path := cfg.DatabasePath
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		conn, err = gorm.Open(sqlite.Open(path), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		log.Info("SQLite database ready", "path", path)
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// OpenMemory returns a migrated in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&models.SearchRecord{}, &models.Candidate{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
