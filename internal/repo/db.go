// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and PostgreSQL, tracing, and schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// sqlitePragmas are applied by the driver on every pooled connection.
// _txlock=immediate makes BEGIN take the write lock up front so two
// concurrent transactions queue on busy_timeout instead of failing on a lock
// upgrade.
const sqlitePragmas = "_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(5000)" +
	"&_txlock=immediate"

// Options control Open.
type Options struct {
	Driver     string // sqlite|postgres
	SQLitePath string
	DSN        string
	Tracing    bool
	LogLevel   logger.LogLevel // 0 = silent
}

// Open connects to the configured database.
func Open(o Options) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(o.Driver) {
	case "", "sqlite":
		db, err = OpenSQLite(o.SQLitePath)
	case "postgres":
		db, err = OpenPostgres(o.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", o.Driver)
	}
	if err != nil {
		return nil, err
	}
	if o.LogLevel != 0 {
		db.Logger = db.Logger.LogMode(o.LogLevel)
	}
	if o.Tracing {
		if err := EnableTracing(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + sqlitePragmas
	} else {
		dsn += "?" + sqlitePragmas
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// OpenPostgres connects through the pgx-backed GORM driver.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// EnableTracing registers the OpenTelemetry GORM plugin so every statement
// becomes a child span of the request span.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&domain.ContactRecord{},
		&domain.PlatformIdentity{},
		&domain.ConnectionEdge{},
		&domain.ConnectionRequest{},
		&domain.Introduction{},
		&domain.DispatchBatch{},
		&domain.DispatchRecord{},
		&domain.Idempotency{},
	}
}

// AutoMigrate creates or updates all tables and indexes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
