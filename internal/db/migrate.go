package db

import (
	"fmt" // Error wrapping

	"gorm.io/driver/mysql"  // MySQL driver for GORM
	"gorm.io/driver/sqlite" // SQLite driver for GORM
	"gorm.io/gorm"          // GORM ORM library
	"gorm.io/gorm/logger"   // GORM log levels

	"race_access/internal/config" // Configuration
	"race_access/internal/domain" // Importing domain models
)

// Models lists every table of the service in migration order
func Models() []any {
	return []any{
		&domain.User{},
		&domain.HandicapperProfile{},
		&domain.Meeting{},
		&domain.Race{},
		&domain.Forecast{},
		&domain.MeetingConsumption{},
		&domain.UnlockedRace{},
		&domain.LedgerEntry{},
	}
}

// Open connects to the configured database
func Open(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath + "?_busy_timeout=5000&_foreign_keys=on")
	default:
		dialector = mysql.Open(cfg.DSN())
	}
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1) // SQLite allows one writer; serialize transactions on one connection
	}
	return db, nil
}

// Migrate creates tables, missing columns and indexes
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
