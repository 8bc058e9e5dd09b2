// Package store holds the data access layer for the fundledger budget
// database, split into one store per domain.
//
// Each store owns one domain (budgets, ledger entries, notifications,
// reconciliation) and embeds shared helpers (Pool, logger) via the Base
// struct. Stores never import each other; when one store must write
// another's rows inside its transaction it goes through a package-level
// function such as RecordEntry.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit caps list-query limits regardless of what a handler passes.
const maxListLimit = 1000

// Base carries the pool and logger every store embeds.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout bounds a single query with the default timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}

// notify sends a pg_notify on the ledger_changes channel (best-effort,
// post-commit). External consumers (the funding workflow UI) subscribe to
// this channel to refresh; nothing in this service depends on delivery.
func (b *Base) notify(table, op, projectID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, _ := json.Marshal(map[string]any{ //nolint:errcheck // static keys, cannot fail.
		"table":      table,
		"op":         op,
		"project_id": projectID,
	})
	if _, err := b.Pool.Exec(ctx, "SELECT pg_notify('ledger_changes', $1)", string(payload)); err != nil {
		b.Log.WithError(err).Warn("failed to send " + op + " " + table + " notification")
	}
}
