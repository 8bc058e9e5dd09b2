package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/reliefline/fundledger/internal/models"
)

// BudgetStore handles project budget records. All figure changes go through
// CompareAndWrite, which pairs them with a ledger entry in one transaction.
type BudgetStore struct {
	Base
}

// NewBudgetStore creates a new BudgetStore.
func NewBudgetStore(base Base) *BudgetStore {
	return &BudgetStore{Base: base}
}

const budgetColumns = `project_id, total_allocation, annual_credit, available_amount,
	q1_allocation, q2_allocation, q3_allocation, q4_allocation,
	status, version, last_entry_at, created_at, updated_at`

// scanBudget scans one budget row from any source providing a Scan method.
func scanBudget(scan func(dest ...any) error) (*models.BudgetRecord, error) {
	var b models.BudgetRecord
	var status string

	err := scan(
		&b.ProjectID, &b.TotalAllocation, &b.AnnualCredit, &b.AvailableAmount,
		&b.QuarterlyAllocation[0], &b.QuarterlyAllocation[1], &b.QuarterlyAllocation[2], &b.QuarterlyAllocation[3],
		&status, &b.Version, &b.LastEntryAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = models.BudgetStatus(status)

	return &b, nil
}

// CreateBudget inserts a budget record for a newly funded project.
// AvailableAmount starts equal to the total allocation.
func (s *BudgetStore) CreateBudget(ctx context.Context, req models.CreateBudgetRequest) (*models.BudgetRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO project_budgets (
			project_id, total_allocation, annual_credit, available_amount,
			q1_allocation, q2_allocation, q3_allocation, q4_allocation, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + budgetColumns

	row := s.Pool.QueryRow(ctx, query,
		req.ProjectID, req.TotalAllocation, req.AnnualCredit, req.TotalAllocation,
		req.QuarterlyAllocation[0], req.QuarterlyAllocation[1], req.QuarterlyAllocation[2], req.QuarterlyAllocation[3],
		string(models.StatusActive),
	)

	rec, err := scanBudget(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrBudgetExists
		}

		return nil, fmt.Errorf("inserting budget: %w", err)
	}

	s.notify("project_budgets", "insert", rec.ProjectID)

	return rec, nil
}

// GetBudget returns the budget record for a project.
func (s *BudgetStore) GetBudget(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+budgetColumns+" FROM project_budgets WHERE project_id = $1", projectID)

	rec, err := scanBudget(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBudgetNotFound
		}

		return nil, fmt.Errorf("fetching budget: %w", err)
	}

	return rec, nil
}

// ListBudgets returns budget records ordered by project id, optionally
// filtered by status, with has_more pagination.
func (s *BudgetStore) ListBudgets(ctx context.Context, status models.BudgetStatus, limit, offset int) ([]models.BudgetRecord, bool, error) {
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

	var conditions []string
	var args []any
	argIdx := 1

	if status != "" {
		conditions = append(conditions, "status = $"+strconv.Itoa(argIdx))
		args = append(args, string(status))
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(
		"SELECT %s FROM project_budgets %s ORDER BY project_id ASC LIMIT $%d OFFSET $%d",
		budgetColumns, where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying budgets: %w", err)
	}
	defer rows.Close()

	records := make([]models.BudgetRecord, 0, limit+1)

	for rows.Next() {
		rec, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning budget row: %w", err)
		}

		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating budget rows: %w", err)
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}

	return records, hasMore, nil
}

// CompareAndWrite applies new figures to a budget iff its version still
// equals expectedVersion, and records the paired ledger entry in the same
// transaction. Either both land or neither does. The entry's CreatedAt is
// taken as the effective date and also advances the budget's last_entry_at
// watermark. Returns the updated record with its new version.
func (s *BudgetStore) CompareAndWrite(
	ctx context.Context,
	projectID string,
	expectedVersion int64,
	newAvailable, newCredit decimal.Decimal,
	entry *models.LedgerEntry,
) (*models.BudgetRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("applying budget write: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query := `UPDATE project_budgets
		SET available_amount = $1,
			annual_credit = $2,
			last_entry_at = GREATEST(COALESCE(last_entry_at, $3), $3),
			version = version + 1,
			updated_at = NOW()
		WHERE project_id = $4 AND version = $5 AND status <> $6
		RETURNING ` + budgetColumns

	row := tx.QueryRow(ctx, query,
		newAvailable, newCredit, entry.CreatedAt,
		projectID, expectedVersion, string(models.StatusArchived),
	)

	rec, err := scanBudget(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyWriteMiss(ctx, tx, projectID)
		}

		return nil, fmt.Errorf("scanning budget after write: %w", err)
	}

	if err := RecordEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing budget write: %w", err)
	}

	s.notify("project_budgets", "update", projectID)

	return rec, nil
}

// classifyWriteMiss distinguishes why a compare-and-write matched no row:
// the project has no budget, the budget is archived, or the version moved.
func (s *BudgetStore) classifyWriteMiss(ctx context.Context, tx pgx.Tx, projectID string) error {
	var status string

	err := tx.QueryRow(ctx, "SELECT status FROM project_budgets WHERE project_id = $1", projectID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrBudgetNotFound
	}

	if err != nil {
		return fmt.Errorf("probing budget after missed write: %w", err)
	}

	if models.BudgetStatus(status) == models.StatusArchived {
		return models.ErrBudgetArchived
	}

	return models.ErrVersionConflict
}

// SetStatus flips the budget's workflow status. Archived budgets are
// immutable; flipping one fails with ErrBudgetArchived.
func (s *BudgetStore) SetStatus(ctx context.Context, projectID string, status models.BudgetStatus) (*models.BudgetRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE project_budgets SET status = $1, updated_at = NOW()
		WHERE project_id = $2 AND status <> $3
		RETURNING ` + budgetColumns

	row := s.Pool.QueryRow(ctx, query, string(status), projectID, string(models.StatusArchived))

	rec, err := scanBudget(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.statusWriteMiss(ctx, projectID)
		}

		return nil, fmt.Errorf("updating budget status: %w", err)
	}

	s.notify("project_budgets", "update", projectID)

	return rec, nil
}

// Archive moves the budget to its terminal archived state. Budget rows are
// never hard-deleted; archiving is how a project leaves the books.
func (s *BudgetStore) Archive(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE project_budgets SET status = $1, updated_at = NOW()
		WHERE project_id = $2 AND status <> $1
		RETURNING ` + budgetColumns

	row := s.Pool.QueryRow(ctx, query, string(models.StatusArchived), projectID)

	rec, err := scanBudget(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.statusWriteMiss(ctx, projectID)
		}

		return nil, fmt.Errorf("archiving budget: %w", err)
	}

	s.notify("project_budgets", "update", projectID)

	return rec, nil
}

// statusWriteMiss distinguishes a missing budget from an archived one after
// a status update matched no row.
func (s *BudgetStore) statusWriteMiss(ctx context.Context, projectID string) error {
	var status string

	err := s.Pool.QueryRow(ctx, "SELECT status FROM project_budgets WHERE project_id = $1", projectID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrBudgetNotFound
	}

	if err != nil {
		return fmt.Errorf("probing budget after missed status update: %w", err)
	}

	return models.ErrBudgetArchived
}

// SetBudgetStatus flips the budget's workflow status inside the caller's
// transaction. Package-level so NotificationStore can pair the flip with a
// notification insert. Archived budgets never match; the resulting error
// rolls the caller's transaction back.
func SetBudgetStatus(ctx context.Context, tx pgx.Tx, projectID string, status models.BudgetStatus) error {
	tag, err := tx.Exec(ctx,
		"UPDATE project_budgets SET status = $1, updated_at = NOW() WHERE project_id = $2 AND status <> $3",
		string(status), projectID, string(models.StatusArchived),
	)
	if err != nil {
		return fmt.Errorf("updating budget status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrBudgetNotFound
	}

	return nil
}
