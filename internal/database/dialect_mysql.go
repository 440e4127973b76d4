package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

// DSN accepts a go-sql-driver DSN and forces the options the schema relies
// on: DATETIME columns scanned into time.Time and multi-statement
// migration files.
func (mysqlDialect) DSN(_, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("mysql: empty database url")
	}
	cfg, err := mysql.ParseDSN(url)
	if err != nil {
		return "", fmt.Errorf("mysql: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}

func (mysqlDialect) Rebind(query string) string { return query }

func (mysqlDialect) Configure(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
	return nil
}

func (mysqlDialect) MigrationsDir() string { return "mysql" }

func (mysqlDialect) MigrationDriver(db *sql.DB) (migratedb.Driver, error) {
	return migratemysql.WithInstance(db, &migratemysql.Config{})
}

func (mysqlDialect) RepairSequence(ctx context.Context, db *sql.DB, table string) (int64, error) {
	max, err := maxID(ctx, db, table)
	if err != nil {
		return 0, err
	}
	// ALTER TABLE does not take placeholders; table comes from a fixed list.
	if _, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", table, max+1)); err != nil {
		return 0, err
	}
	return max + 1, nil
}
