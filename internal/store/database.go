// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/go-sql-driver/mysql" // MySQL driver for database/sql
	_ "modernc.org/sqlite"             // SQLite driver for database/sql
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

// Supported drivers. The names match config.DriverSQLite and config.DriverMySQL.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DBConfig holds database connection pool options.
type DBConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible pool defaults for a small site.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// sqlitePragmas are applied to every pooled connection through the DSN,
// so foreign keys (and with them ON DELETE CASCADE) hold on all of them.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

// NewDB opens a SQLite database at path.
func NewDB(path string) (*sql.DB, error) {
	q := url.Values{}
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	q.Set("_time_format", "sqlite")
	return open(DriverSQLite, path+"?"+q.Encode(), DefaultDBConfig())
}

// NewMySQL opens a MySQL database using dsn. The DSN must set parseTime=true.
func NewMySQL(dsn string) (*sql.DB, error) {
	return open(DriverMySQL, dsn, DefaultDBConfig())
}

// Open opens a database for driver. For SQLite source is a file path, for
// MySQL it is a DSN.
func Open(driver, source string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		return NewDB(source)
	case DriverMySQL:
		return NewMySQL(source)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func open(driver, dsn string, cfg DBConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Migrate runs all pending migrations for driver.
func Migrate(db *sql.DB, driver string) error {
	var dialect, dir string
	switch driver {
	case DriverSQLite:
		dialect, dir = "sqlite3", "migrations/sqlite"
	case DriverMySQL:
		dialect, dir = "mysql", "migrations/mysql"
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
