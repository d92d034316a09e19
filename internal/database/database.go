package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Options configures the connection pool
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     gormlogger.LogLevel
}

// dialectorFor picks postgres for URL/keyword DSNs and SQLite for everything else (file paths, :memory:)
func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// Open connects and configures the pool but does not touch the global DB
func Open(dsn string, opts Options) (*gorm.DB, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = gormlogger.Silent
	}
	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(opts.LogLevel),
		// Surface unique violations as gorm.ErrDuplicatedKey regardless of driver
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Connect opens the database, stores it in DB and returns it
func Connect(dsn string, opts Options) (*gorm.DB, error) {
	db, err := Open(dsn, opts)
	if err != nil {
		return nil, err
	}
	DB = db
	logger.Info().
		Str("dialect", db.Dialector.Name()).
		Int("max_open", opts.MaxOpenConns).
		Int("max_idle", opts.MaxIdleConns).
		Msg("Connected to database")
	return db, nil
}

// AutoMigrate creates or updates every chat table
func AutoMigrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return nil
}

// Ping reports whether the database answers
func Ping(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialised")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
