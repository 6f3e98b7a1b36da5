// Package database opens the meeting record database and applies migrations.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open opens the database for driver at dsn and runs migrations.
func Open(driver, dsn string) (*sql.DB, error) {
	var dialect string
	switch driver {
	case DriverSQLite, "":
		driver, dialect = DriverSQLite, "sqlite3"
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		dialect = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases coherent and
		// serializes writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := backfillStartUTC(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("backfill start_utc: %w", err)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func runMigrations(db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// backfillStartUTC fills start_utc for rows written before the column
// existed. Rows whose start_time does not parse are left blank.
func backfillStartUTC(db *sql.DB, driver string) error {
	rows, err := db.Query(`SELECT event_id, start_time FROM meetings WHERE start_utc = ''`)
	if err != nil {
		return fmt.Errorf("query rows: %w", err)
	}

	pending := map[string]string{}
	for rows.Next() {
		var id, start string
		if err := rows.Scan(&id, &start); err != nil {
			rows.Close()
			return fmt.Errorf("scan row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			pending[id] = t.UTC().Format(time.RFC3339)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	update := `UPDATE meetings SET start_utc = ? WHERE event_id = ?`
	if driver == DriverPostgres {
		update = `UPDATE meetings SET start_utc = $1 WHERE event_id = $2`
	}
	for id, utc := range pending {
		if _, err := db.Exec(update, utc, id); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
	}
	return nil
}
