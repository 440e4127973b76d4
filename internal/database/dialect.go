// internal/database/dialect.go
//
// SQL dialect abstraction. Repositories write queries once with `?`
// placeholders; the dialect rewrites them for the backend and supplies the
// driver-specific bits (DSN shaping, pool settings, migration driver,
// sequence repair).

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	migratedb "github.com/golang-migrate/migrate/v4/database"
)

// Dialect isolates everything that differs between SQLite, PostgreSQL and MySQL.
type Dialect interface {
	// Name is the sql.Open driver name.
	Name() string

	// DSN builds the connection string from a path (SQLite) or URL.
	DSN(path, url string) (string, error)

	// Rebind rewrites `?` placeholders into the backend's syntax.
	Rebind(query string) string

	// Configure applies pool settings and session pragmas after open.
	Configure(db *sql.DB) error

	// MigrationsDir is the subdirectory of migrations/ holding this backend's files.
	MigrationsDir() string

	// MigrationDriver wraps an open connection for golang-migrate.
	MigrationDriver(db *sql.DB) (migratedb.Driver, error)

	// RepairSequence moves the auto-increment counter of table past MAX(id)
	// and returns the next id the table will hand out.
	RepairSequence(ctx context.Context, db *sql.DB, table string) (int64, error)
}

// DialectFor returns the dialect registered under driver.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite", "":
		return sqliteDialect{}, nil
	case "postgres", "postgresql":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebindNumbered converts ? placeholders to $1, $2, ... skipping anything
// inside single-quoted string literals.
func rebindNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func maxID(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var max int64
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM `+table).Scan(&max)
	return max, err
}
