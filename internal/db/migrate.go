package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/banshee-data/spectro.report/internal/monitoring"
)

// migrateLog routes golang-migrate output through monitoring.Logf.
type migrateLog struct{}

func (migrateLog) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (migrateLog) Verbose() bool { return false }

// withMigrator builds a migrator over the shared handle and passes it to fn.
// The migrator is not closed: that would close db.DB too.
func (db *DB) withMigrator(migrations fs.FS, fn func(*migrate.Migrate) error) error {
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = migrateLog{}
	return fn(m)
}

func noChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// MigrateUp applies every pending migration. An up-to-date schema is not an
// error.
func (db *DB) MigrateUp(migrations fs.FS) error {
	return db.withMigrator(migrations, func(m *migrate.Migrate) error {
		if err := noChange(m.Up()); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		return nil
	})
}

// MigrateDown reverts the most recent migration.
func (db *DB) MigrateDown(migrations fs.FS) error {
	return db.withMigrator(migrations, func(m *migrate.Migrate) error {
		if err := noChange(m.Steps(-1)); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		return nil
	})
}

// MigrateTo moves the schema up or down to version.
func (db *DB) MigrateTo(migrations fs.FS, version uint) error {
	return db.withMigrator(migrations, func(m *migrate.Migrate) error {
		if err := noChange(m.Migrate(version)); err != nil {
			return fmt.Errorf("migration to version %d failed: %w", version, err)
		}
		return nil
	})
}

// MigrateForce records version as applied and clears the dirty flag without
// running any SQL. Use it only to recover from a failed migration.
func (db *DB) MigrateForce(migrations fs.FS, version int) error {
	return db.withMigrator(migrations, func(m *migrate.Migrate) error {
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force to version %d failed: %w", version, err)
		}
		return nil
	})
}

// MigrateVersion returns the applied version and dirty flag; 0 when nothing
// has been applied.
func (db *DB) MigrateVersion(migrations fs.FS) (version uint, dirty bool, err error) {
	err = db.withMigrator(migrations, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}

// MigrationStatus compares the applied schema with the embedded one.
type MigrationStatus struct {
	CurrentVersion       uint
	LatestVersion        uint
	Dirty                bool
	MigrationsTableExist bool
}

// Pending is the number of versions between current and latest.
func (s MigrationStatus) Pending() uint {
	if s.CurrentVersion >= s.LatestVersion {
		return 0
	}
	return s.LatestVersion - s.CurrentVersion
}

// GetMigrationStatus reads the applied version and the newest available.
func (db *DB) GetMigrationStatus(migrations fs.FS) (MigrationStatus, error) {
	var st MigrationStatus
	if err := db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations')`,
	).Scan(&st.MigrationsTableExist); err != nil {
		return st, fmt.Errorf("failed to look up schema_migrations: %w", err)
	}

	var err error
	if st.CurrentVersion, st.Dirty, err = db.MigrateVersion(migrations); err != nil {
		return st, fmt.Errorf("failed to read migration version: %w", err)
	}
	if st.LatestVersion, err = GetLatestMigrationVersion(migrations); err != nil {
		return st, err
	}
	return st, nil
}

// GetLatestMigrationVersion walks the migration source to its last version.
func GetLatestMigrationVersion(migrations fs.FS) (uint, error) {
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}
	defer src.Close()

	return lastVersion(src)
}

func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("no migration files found")
		}
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, err
		}
		v = next
	}
}
