package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPermissions  = 0750
	filePermissions = 0600

	// pingTimeout bounds the connectivity check made by Open.
	pingTimeout = 5 * time.Second

	connMaxIdleTime = 30 * time.Minute
)

// DB wraps the SQLite handle that stores light state history.
type DB struct {
	*sql.DB
	path string
}

// Config contains database connection options.
type Config struct {
	// Path is the SQLite file. Its directory is created when missing.
	Path string

	// WALMode lets history reads proceed while a state change is written.
	WALMode bool

	// BusyTimeout is the lock wait in seconds.
	BusyTimeout int
}

// Open connects to the SQLite file described by cfg and verifies it with a ping.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("opening database: path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path, (time.Duration(cfg.BusyTimeout) * time.Second).Milliseconds())
	if cfg.WALMode {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One writer at a time; the bridge writes at most one row per state change.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // best effort on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // file may appear on first write

	return &DB{DB: sqlDB, path: cfg.Path}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck runs a trivial query to confirm the database answers.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
