package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/products-api/internal/config"
	"github.com/sandeepkv93/products-api/internal/observability"
)

// Open connects to the configured relational engine. Driver errors are
// translated by gorm so unique violations surface as gorm.ErrDuplicatedKey.
func Open(cfg *config.Config) (*gorm.DB, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "connect", time.Since(start))
	}()

	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	case config.DriverPostgres, "":
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		observability.RecordDatabaseStartupEvent(context.Background(), "connect", "error")
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.DatabaseLogLevel)),
		TranslateError: true,
	})
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "connect", "error")
		return nil, fmt.Errorf("open %s database: %w", cfg.DatabaseDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "connect", "error")
		return nil, err
	}
	if cfg.DatabaseDriver == config.DriverSQLite {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY under concurrent requests.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	}
	if cfg.DatabaseConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
	}

	observability.RecordDatabaseStartupEvent(context.Background(), "connect", "success")
	return db, nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(v string) logger.LogLevel {
	switch v {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
