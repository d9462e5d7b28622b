package gormstore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/config"
)

// NewConnection opens the configured backend. SQLite gets a single open
// connection so writers are serialized; PostgreSQL gets a bounded pool.
func NewConnection(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	case "postgres", "postgresql":
		if cfg.URL == "" {
			return nil, fmt.Errorf("database.url is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := logger.Silent
	if cfg.LogQueries {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, &apperrors.ConnectionError{Err: fmt.Errorf("failed to connect to database: %w", err)}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if db.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(max(cfg.MaxOpenConns, 1))
		sqlDB.SetMaxIdleConns(max(cfg.MaxIdleConns, 1))
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, &apperrors.ConnectionError{Err: err}
	}

	log.Info("Connected to database",
		zap.String("driver", db.Dialector.Name()),
		zap.Bool("auto_migrate", cfg.AutoMigrate),
	)
	return db, nil
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "gic.db"
	}
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_foreign_keys=on"
}

// RunMigrations creates or extends the schema. There is no versioning:
// AutoMigrate only adds what is missing.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&customerRow{}, &activityRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := backfillSearchText(db); err != nil {
		return fmt.Errorf("failed to backfill search text: %w", err)
	}
	return nil
}

// backfillSearchText fills search_text on rows written before the column
// existed.
func backfillSearchText(db *gorm.DB) error {
	var stale []customerRow
	if err := db.Select("id", "name", "email", "phone").
		Where("search_text = ? OR search_text IS NULL", "").
		Find(&stale).Error; err != nil {
		return err
	}
	for _, row := range stale {
		if err := db.Model(&customerRow{}).
			Where("id = ?", row.ID).
			UpdateColumn("search_text", searchText(row.Name, row.Email, row.Phone)).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError maps driver failures onto the shared taxonomy. email is the
// value reported when a unique constraint fires.
func translateError(err error, email string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return &apperrors.DuplicateRecordError{Field: "email", Value: email}
	}
	if isConnectionError(err) {
		return &apperrors.ConnectionError{Err: err}
	}
	return err
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "unable to open database file")
}
