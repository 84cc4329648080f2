package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// cleanBreakVersion is the migration that replaces any earlier schema
// by backing up the database file and recreating every table (spec
// section 6 "Migrations are linear and versioned").
const cleanBreakVersion = 5

// Migrate applies every pending migration under migrationsDir to the
// sqlite database at dbPath. Before the clean-break migration runs
// against a database that predates it, the file is copied aside so the
// prior schema and data are recoverable.
func Migrate(dbPath, migrationsDir string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("store: open db: %w", err)
	}
	defer db.Close()

	driver, err := WithInstance(db)
	if err != nil {
		return fmt.Errorf("store: init migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, driverName, driver)
	if err != nil {
		return fmt.Errorf("store: init migrator: %w", err)
	}

	if err := backupBeforeCleanBreak(dbPath, m); err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

func backupBeforeCleanBreak(dbPath string, m *migrate.Migrate) error {
	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("store: read migration version: %w", err)
	}
	if version >= cleanBreakVersion {
		return nil
	}
	if _, statErr := os.Stat(dbPath); statErr != nil {
		return nil // fresh database, nothing to back up
	}
	return copyFile(dbPath, dbPath+".pre-v5.bak")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("store: open backup source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("store: create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("store: copy backup: %w", err)
	}
	return out.Close()
}
