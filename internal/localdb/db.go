// Package localdb keeps tracked repositories and GitHub profiles in a local
// SQLite or Postgres database, for use without the companion service.
package localdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultDSN is the in-memory SQLite database used when no DSN is configured.
// It does not outlive the process; callers that need persistence pass a file.
const DefaultDSN = ":memory:"

// timeLayout is how timestamps are stored. TEXT columns keep the schema
// identical on both drivers.
const timeLayout = time.RFC3339Nano

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// errUniqueViolation marks inserts rejected by a unique constraint.
var errUniqueViolation = errors.New("unique constraint violated")

// Config selects the database.
type Config struct {
	Driver string
	DSN    string
}

// DB is a migrated local database.
type DB struct {
	db  *sqlx.DB
	now func() time.Time
}

// migrations is applied in order on open. Every statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS repositories (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		name        TEXT NOT NULL,
		full_name   TEXT NOT NULL UNIQUE,
		description TEXT,
		url         TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS repositories_user_id_idx ON repositories (user_id)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id          TEXT PRIMARY KEY,
		login       TEXT NOT NULL,
		name        TEXT,
		avatar_url  TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
}

// Open connects to the database and applies migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	dsn := cfg.DSN
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = DefaultDSN
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return &DB{db: db, now: time.Now}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) timestamp() string {
	return d.now().UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// classify maps driver errors to package errors.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return errUniqueViolation
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errUniqueViolation
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
