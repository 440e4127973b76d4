// internal/database/maintenance.go
//
// Operational helpers behind cmd/dbtool: connectivity check and
// primary-key sequence repair.

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// SerialTables lists the tables whose id is an auto-increment counter.
var SerialTables = []string{"quiz_results"}

// PingReport is the outcome of a connectivity check.
type PingReport struct {
	Driver  string
	Latency time.Duration
	Words   int
	Users   int
}

// Ping checks the connection and counts rows in the main tables.
func (db *DB) Ping(ctx context.Context) (PingReport, error) {
	rep := PingReport{Driver: db.Dialect.Name()}
	start := time.Now()
	if err := db.PingContext(ctx); err != nil {
		return rep, fmt.Errorf("ping: %w", err)
	}
	rep.Latency = time.Since(start)
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&rep.Words); err != nil {
		return rep, fmt.Errorf("count words: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&rep.Users); err != nil {
		return rep, fmt.Errorf("count users: %w", err)
	}
	return rep, nil
}

// SequenceRepair records the next id a table will hand out after repair.
type SequenceRepair struct {
	Table  string
	NextID int64
}

// RepairSequences resyncs every serial table so the next generated id is
// past the largest existing one.
func (db *DB) RepairSequences(ctx context.Context) ([]SequenceRepair, error) {
	out := make([]SequenceRepair, 0, len(SerialTables))
	for _, t := range SerialTables {
		next, err := db.Dialect.RepairSequence(ctx, db.DB, t)
		if err != nil {
			return out, fmt.Errorf("repair %s: %w", t, err)
		}
		log.Info().Str("table", t).Int64("next_id", next).Msg("sequence repaired")
		out = append(out, SequenceRepair{Table: t, NextID: next})
	}
	return out, nil
}
