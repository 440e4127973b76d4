package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/mattn/go-sqlite3"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite3" }

// DSN creates the parent directory for file databases (./data/synquiz.db)
// and turns on WAL, a busy timeout and foreign keys.
func (sqliteDialect) DSN(path, _ string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite: empty database path")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", nil
}

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) Configure(db *sql.DB) error {
	// one writer at a time; readers share the WAL
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return fmt.Errorf("set pragmas: %w", err)
	}
	return nil
}

func (sqliteDialect) MigrationsDir() string { return "sqlite" }

func (sqliteDialect) MigrationDriver(db *sql.DB) (migratedb.Driver, error) {
	return migratesqlite.WithInstance(db, &migratesqlite.Config{})
}

func (sqliteDialect) RepairSequence(ctx context.Context, db *sql.DB, table string) (int64, error) {
	max, err := maxID(ctx, db, table)
	if err != nil {
		return 0, err
	}
	// sqlite_sequence only has a row once the table has seen an insert.
	res, err := db.ExecContext(ctx, `UPDATE sqlite_sequence SET seq = ? WHERE name = ?`, max, table)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 && max > 0 {
		if _, err := db.ExecContext(ctx, `INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)`, table, max); err != nil {
			return 0, err
		}
	}
	return max + 1, nil
}
