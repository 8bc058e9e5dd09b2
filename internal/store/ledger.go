package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// LedgerStore provides read access to the append-only ledger_entries table.
// Appends happen exclusively through RecordEntry inside a BudgetStore
// transaction; entries are never updated or deleted.
type LedgerStore struct {
	Base
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(base Base) *LedgerStore {
	return &LedgerStore{Base: base}
}

const entryColumns = `id, project_id, delta_amount, resulting_available_amount, resulting_annual_credit,
	operation_type, batch_id, sequence_in_batch, document_id, actor_id, created_at, metadata`

// RecordEntry inserts one immutable ledger entry inside the caller's
// transaction. Package-level so BudgetStore can pair the entry with its
// budget write atomically. Fills in the entry's generated id.
func RecordEntry(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("marshalling entry metadata: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (
			project_id, delta_amount, resulting_available_amount, resulting_annual_credit,
			operation_type, batch_id, sequence_in_batch, document_id, actor_id, created_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		e.ProjectID, e.DeltaAmount, e.ResultingAvailable, e.ResultingAnnualCredit,
		string(e.Operation), e.BatchID, e.SequenceInBatch, e.DocumentID, e.ActorID, e.CreatedAt, metaJSON,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("inserting ledger entry: %w", err)
	}

	return nil
}

// buildLedgerFilter builds the WHERE clause and args from LedgerQueryOpts.
// Date bounds are inclusive on both endpoints.
func buildLedgerFilter(opts models.LedgerQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	if opts.ProjectID != "" {
		conditions = append(conditions, "project_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.ProjectID)
		argIdx++
	}
	if opts.Operation != "" {
		conditions = append(conditions, "operation_type = $"+strconv.Itoa(argIdx))
		args = append(args, string(opts.Operation))
		argIdx++
	}
	if opts.ActorID != "" {
		conditions = append(conditions, "actor_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.ActorID)
		argIdx++
	}
	if opts.DateFrom != nil {
		conditions = append(conditions, "created_at >= $"+strconv.Itoa(argIdx))
		args = append(args, *opts.DateFrom)
		argIdx++
	}
	if opts.DateTo != nil {
		conditions = append(conditions, "created_at <= $"+strconv.Itoa(argIdx))
		args = append(args, *opts.DateTo)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// ListEntries returns ledger entries matching the given filters with
// has_more pagination. Ordering is by created_at (newest first unless
// opts.Ascending); ties resolve by sequence_in_batch then id, ascending,
// so batch insertion order is always recoverable.
func (s *LedgerStore) ListEntries(ctx context.Context, opts models.LedgerQueryOpts) ([]models.LedgerEntry, bool, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where, args, argIdx := buildLedgerFilter(opts)

	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM ledger_entries %s ORDER BY created_at %s, sequence_in_batch ASC NULLS LAST, id ASC LIMIT $%d OFFSET $%d",
		entryColumns, where, direction, argIdx, argIdx+1,
	)
	args = append(args, limit+1, offset)

	entries, err := scanEntryRows(ctx, s.Pool, query, args, s.Log)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// ListBatch returns the member entries of one import batch in sequence
// order, with has_more pagination.
func (s *LedgerStore) ListBatch(ctx context.Context, batchID uuid.UUID, limit, offset int) ([]models.LedgerEntry, bool, error) {
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM ledger_entries WHERE batch_id = $1 ORDER BY sequence_in_batch ASC, id ASC LIMIT $2 OFFSET $3",
		entryColumns,
	)

	entries, err := scanEntryRows(ctx, s.Pool, query, []any{batchID, limit + 1, offset}, s.Log)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// GetEntry returns a single ledger entry by id.
func (s *LedgerStore) GetEntry(ctx context.Context, id int64) (*models.LedgerEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+entryColumns+" FROM ledger_entries WHERE id = $1", id)

	e, err := scanEntry(row.Scan, s.Log)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrEntryNotFound
		}

		return nil, fmt.Errorf("fetching ledger entry: %w", err)
	}

	return e, nil
}

// entryQuerier is the slice of dbpool.Pool that scanEntryRows needs.
type entryQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// scanEntryRows executes a query and scans ledger entries from the result.
func scanEntryRows(ctx context.Context, q entryQuerier, query string, args []any, log *logrus.Logger) ([]models.LedgerEntry, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry

	for rows.Next() {
		e, err := scanEntry(rows.Scan, log)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}

		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger entries: %w", err)
	}

	return entries, nil
}

// scanEntry scans one ledger entry row from any source providing a Scan method.
func scanEntry(scan func(dest ...any) error, log *logrus.Logger) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	var op string
	var metaJSON []byte

	err := scan(
		&e.ID, &e.ProjectID, &e.DeltaAmount, &e.ResultingAvailable, &e.ResultingAnnualCredit,
		&op, &e.BatchID, &e.SequenceInBatch, &e.DocumentID, &e.ActorID, &e.CreatedAt, &metaJSON,
	)
	if err != nil {
		return nil, err
	}

	e.Operation = models.OperationType(op)

	if metaJSON != nil {
		if err := json.Unmarshal(metaJSON, &e.Meta); err != nil {
			log.WithError(err).WithField("entry_id", e.ID).Warn("failed to unmarshal entry metadata")
		}
	}

	return &e, nil
}
