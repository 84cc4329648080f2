package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/golang-migrate/migrate/v4/database"
	_ "modernc.org/sqlite"
)

// driverName is how this package registers itself with golang-migrate.
// No upstream golang-migrate driver targets modernc.org/sqlite (the
// project's built-in sqlite3 driver hard-depends on the CGO
// mattn/go-sqlite3 binding), so this package supplies one, following
// the shape of golang-migrate's bundled database drivers.
const driverName = "modernc-sqlite"

func init() {
	database.Register(driverName, &Driver{})
}

// Driver is a golang-migrate database.Driver backed by modernc.org/sqlite.
type Driver struct {
	db *sql.DB
}

// WithInstance adapts an already-open *sql.DB into a migrate driver,
// mirroring the WithInstance constructors every built-in driver offers.
func WithInstance(db *sql.DB) (database.Driver, error) {
	d := &Driver{db: db}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

// Open implements database.Driver. url is a modernc sqlite DSN, e.g.
// "file:/path/to/db.sqlite".
func (d *Driver) Open(url string) (database.Driver, error) {
	dsn := stripScheme(url, driverName+"://")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driverName, err)
	}
	return WithInstance(db)
}

func stripScheme(url, prefix string) string {
	if len(url) >= len(prefix) && url[:len(prefix)] == prefix {
		return url[len(prefix):]
	}
	return url
}

func (d *Driver) ensureVersionTable() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER NOT NULL PRIMARY KEY,
		dirty INTEGER NOT NULL
	)`)
	return err
}

// Close implements database.Driver.
func (d *Driver) Close() error { return d.db.Close() }

// Lock implements database.Driver. Sqlite has no advisory-lock
// primitive and this process owns the file exclusively, so Lock is a
// no-op, matching the built-in sqlite3 driver's own behavior.
func (d *Driver) Lock() error { return nil }

// Unlock implements database.Driver.
func (d *Driver) Unlock() error { return nil }

// Run implements database.Driver, executing one migration's SQL body.
func (d *Driver) Run(migration io.Reader) error {
	body, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	if _, err := d.db.Exec(string(body)); err != nil {
		return fmt.Errorf("%s: run migration: %w", driverName, err)
	}
	return nil
}

// SetVersion implements database.Driver.
func (d *Driver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM schema_migrations`); err != nil {
		tx.Rollback()
		return err
	}
	if version >= 0 {
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirty); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Version implements database.Driver.
func (d *Driver) Version() (int, bool, error) {
	var version int
	var dirty bool
	err := d.db.QueryRow(`SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return database.NilVersion, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

// Drop implements database.Driver, removing every user table.
func (d *Driver) Drop() error {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()

	for _, t := range tables {
		if _, err := d.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", t)); err != nil {
			return err
		}
	}
	return nil
}
