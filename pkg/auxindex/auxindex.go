// Copyright 2025 Certen Protocol
//
// Package auxindex mirrors delivered transactions into Postgres for
// ad-hoc querying (by height, by kind, by outcome) that the record and
// program stores were never meant to answer. It is strictly best-effort:
// a write failure here is logged, never propagated, and it is invoked
// only from Commit, never from CheckTx or ProcessProposal, so a database
// outage can never affect consensus.

package auxindex

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// Index is an optional Postgres mirror of delivered transactions.
type Index struct {
	db     *sql.DB
	logger *log.Logger
}

// Open connects to Postgres and ensures the transactions table exists.
func Open(dsn string) (*Index, error) {
	if dsn == "" {
		return nil, fmt.Errorf("auxindex: dsn must not be empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("auxindex: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("auxindex: ping: %w", err)
	}

	idx := &Index{db: db, logger: log.New(log.Writer(), "[auxindex] ", log.LstdFlags)}
	if err := idx.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("auxindex: migrate: %w", err)
	}
	return idx, nil
}

func (idx *Index) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	tx_id      TEXT PRIMARY KEY,
	height     BIGINT NOT NULL,
	kind       TEXT NOT NULL,
	accepted   BOOLEAN NOT NULL,
	log        TEXT NOT NULL,
	fees       BIGINT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS transactions_height_idx ON transactions (height);
`
	_, err := idx.db.ExecContext(ctx, schema)
	return err
}

// Entry describes one delivered transaction as recorded in the index.
type Entry struct {
	TxID     string
	Height   int64
	Kind     string
	Accepted bool
	Log      string
	Fees     int64
}

// Record inserts or updates a delivered transaction's index entry. Any
// error is logged and swallowed: the caller (Commit) must never fail a
// block because of this index.
func (idx *Index) Record(entries []Entry) {
	if len(entries) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		idx.logger.Printf("begin tx: %v", err)
		return
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO transactions (tx_id, height, kind, accepted, log, fees)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (tx_id) DO UPDATE SET
	height = EXCLUDED.height,
	kind = EXCLUDED.kind,
	accepted = EXCLUDED.accepted,
	log = EXCLUDED.log,
	fees = EXCLUDED.fees`

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, upsert, e.TxID, e.Height, e.Kind, e.Accepted, e.Log, e.Fees); err != nil {
			idx.logger.Printf("record %s: %v", e.TxID, err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		idx.logger.Printf("commit: %v", err)
	}
}

// ByHeight returns every indexed transaction recorded at the given height.
func (idx *Index) ByHeight(ctx context.Context, height int64) ([]Entry, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT tx_id, height, kind, accepted, log, fees FROM transactions WHERE height = $1 ORDER BY tx_id`, height)
	if err != nil {
		return nil, fmt.Errorf("auxindex: query by height: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.TxID, &e.Height, &e.Kind, &e.Accepted, &e.Log, &e.Fees); err != nil {
			return nil, fmt.Errorf("auxindex: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}
