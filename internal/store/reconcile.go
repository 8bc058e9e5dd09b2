package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/reliefline/fundledger/internal/models"
)

// ReconcileStore reads the period totals reconciliation works from. It is
// strictly read-only; all queries for one snapshot run in a single
// repeatable-read transaction so entry sums and document sums describe the
// same instant even while mutations continue.
type ReconcileStore struct {
	Base
}

// NewReconcileStore creates a new ReconcileStore.
func NewReconcileStore(base Base) *ReconcileStore {
	return &ReconcileStore{Base: base}
}

// Snapshot captures, for one project and inclusive period: the sum and count
// of ledger entry deltas, the sum and count of linked disbursement document
// amounts, and the ids of entries flagged retroactive at insertion time.
func (s *ReconcileStore) Snapshot(ctx context.Context, projectID string, from, to time.Time) (*models.ReconcileSnapshot, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning reconcile snapshot: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var status string
	if err := tx.QueryRow(ctx, "SELECT status FROM project_budgets WHERE project_id = $1", projectID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBudgetNotFound
		}

		return nil, fmt.Errorf("checking project budget: %w", err)
	}

	var snap models.ReconcileSnapshot

	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta_amount), 0), COUNT(*)
			FROM ledger_entries
			WHERE project_id = $1 AND created_at >= $2 AND created_at <= $3`,
		projectID, from, to,
	).Scan(&snap.DeltaSum, &snap.EntryCount)
	if err != nil {
		return nil, fmt.Errorf("summing ledger deltas: %w", err)
	}

	// Documents enter the period through the entries that link them, not
	// through their own issue date. A document referenced by several entries
	// (a disbursement and its rollback) counts once.
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(d.amount), 0), COUNT(*)
			FROM disbursement_documents d
			WHERE d.id IN (
				SELECT e.document_id FROM ledger_entries e
				WHERE e.project_id = $1 AND e.document_id IS NOT NULL
					AND e.created_at >= $2 AND e.created_at <= $3
			)`,
		projectID, from, to,
	).Scan(&snap.DocumentSum, &snap.DocumentCount)
	if err != nil {
		return nil, fmt.Errorf("summing linked document amounts: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM ledger_entries
			WHERE project_id = $1 AND created_at >= $2 AND created_at <= $3
				AND (metadata ->> 'retroactive')::boolean IS TRUE
			ORDER BY id ASC
			LIMIT $4`,
		projectID, from, to, maxListLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying retroactive entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning retroactive entry id: %w", err)
		}

		snap.RetroactiveIDs = append(snap.RetroactiveIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating retroactive entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing reconcile snapshot: %w", err)
	}

	return &snap, nil
}
