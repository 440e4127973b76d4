package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) DSN(_, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("postgres: empty database url")
	}
	return url, nil
}

func (postgresDialect) Rebind(query string) string { return rebindNumbered(query) }

func (postgresDialect) Configure(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
	return nil
}

func (postgresDialect) MigrationsDir() string { return "postgres" }

func (postgresDialect) MigrationDriver(db *sql.DB) (migratedb.Driver, error) {
	return migratepg.WithInstance(db, &migratepg.Config{})
}

// RepairSequence resyncs the serial sequence behind table.id. Rows
// imported with explicit ids leave the sequence behind and the next
// insert would collide on the primary key.
func (postgresDialect) RepairSequence(ctx context.Context, db *sql.DB, table string) (int64, error) {
	max, err := maxID(ctx, db, table)
	if err != nil {
		return 0, err
	}
	var next int64
	err = db.QueryRowContext(ctx,
		`SELECT setval(pg_get_serial_sequence($1, 'id'), $2, false)`,
		table, max+1,
	).Scan(&next)
	return next, err
}
