// Package database opens the GORM connection for the configured driver.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Option customises Open.
type Option func(*options)

type options struct {
	observer QueryObserver
	pool     bool
}

// WithObserver registers a callback receiving every statement duration.
func WithObserver(o QueryObserver) Option {
	return func(opts *options) { opts.observer = o }
}

// WithoutPool leaves database/sql pool defaults untouched. In-memory sqlite
// needs a single connection, so tests use this.
func WithoutPool() Option {
	return func(opts *options) { opts.pool = false }
}

// Open connects to driver/dsn, configures the pool and pings the server.
// It never exits the process; the caller decides how to shut down.
func Open(driver, dsn string, opt ...Option) (*gorm.DB, error) {
	opts := options{pool: true}
	for _, o := range opt {
		o(&opts)
	}

	dialector, err := buildDialector(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: build dialector: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent), // pkg/logger handles output
	})
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	if opts.observer != nil {
		if err := db.Use(&observerPlugin{observe: opts.observer}); err != nil {
			return nil, fmt.Errorf("database: register observer: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: get sql.DB: %w", err)
	}
	if opts.pool {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(2 * time.Minute)
	} else {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return db, nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func buildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, mysql, sqlserver)", driver)
	}
}
