// Package db persists peak tables, aggregates and classification runs in
// SQLite. The schema is owned by the embedded migrations.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/spectro.report/internal/timeutil"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DevMode makes the migrate commands read internal/db/migrations from the
// working tree instead of the embedded copy.
var DevMode = false

// getMigrationsFS returns the migrations directory as an fs.FS rooted at the
// migration files.
func getMigrationsFS() (fs.FS, error) {
	if DevMode {
		return os.DirFS(filepath.Join("internal", "db", "migrations")), nil
	}
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return sub, nil
}

// pragmas are applied to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(ON)",
}

// DB wraps the SQLite handle with the analysis stores.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

func dsn(path string) string {
	q := make([]string, len(pragmas))
	for i, p := range pragmas {
		q[i] = "_pragma=" + p
	}
	return "file:" + path + "?" + strings.Join(q, "&")
}

// OpenDB opens the database at path with the standard pragmas but does not
// touch the schema. The migrate command uses it.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &DB{DB: sqlDB, clock: timeutil.System{}}, nil
}

// NewDB opens the database at path and applies any pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	migrations, err := getMigrationsFS()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.MigrateUp(migrations); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SetClock replaces the clock used for timestamps and retry backoff.
func (db *DB) SetClock(c timeutil.Clock) {
	db.clock = c
}

func (db *DB) now() time.Time {
	return db.clock.Now()
}

const (
	maxBusyAttempts  = 5
	initialBusyDelay = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a lock contention error worth
// retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// retryOnBusy runs fn up to maxBusyAttempts times, doubling the delay after
// each busy error. Other errors are returned immediately.
func (db *DB) retryOnBusy(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxBusyAttempts; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyAttempts {
			db.clock.Sleep(timeutil.Backoff(initialBusyDelay, attempt))
		}
	}
	return fmt.Errorf("database still busy after %d attempts: %w", maxBusyAttempts, err)
}

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

func unixNanos(t time.Time) int64 { return t.UnixNano() }

func fromUnixNanos(n int64) time.Time { return time.Unix(0, n).UTC() }
