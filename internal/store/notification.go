package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/reliefline/fundledger/internal/models"
)

// NotificationStore handles threshold-crossing notification records.
type NotificationStore struct {
	Base
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(base Base) *NotificationStore {
	return &NotificationStore{Base: base}
}

const notificationColumns = `id, project_id, type, amount, current_budget, annual_credit,
	reason, actor_id, status, created_at, resolved_at`

// scanNotification scans one notification row from any source providing a Scan method.
func scanNotification(scan func(dest ...any) error) (*models.NotificationRecord, error) {
	var n models.NotificationRecord
	var typ, status string
	var actor *string

	err := scan(
		&n.ID, &n.ProjectID, &typ, &n.Amount, &n.CurrentBudget, &n.AnnualCredit,
		&n.Reason, &actor, &status, &n.CreatedAt, &n.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Type = models.NotificationType(typ)
	n.Status = models.NotificationStatus(status)
	if actor != nil {
		n.ActorID = *actor
	}

	return &n, nil
}

// Insert creates a notification record and, when newStatus is non-empty,
// flips the project's budget status in the same transaction. With dedupe
// set, an existing pending record for the same (project, type) suppresses
// the insert and is returned instead; the returned bool reports whether a
// new record was created. Dedupe is best-effort: two racing inserts can
// still both land, which the funding workflow tolerates.
func (s *NotificationStore) Insert(
	ctx context.Context,
	rec *models.NotificationRecord,
	dedupe bool,
	newStatus models.BudgetStatus,
) (*models.NotificationRecord, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("inserting notification: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if dedupe {
		row := tx.QueryRow(ctx,
			"SELECT "+notificationColumns+` FROM budget_notifications
				WHERE project_id = $1 AND type = $2 AND status = $3
				ORDER BY created_at DESC LIMIT 1`,
			rec.ProjectID, string(rec.Type), string(models.NotificationPending),
		)

		existing, err := scanNotification(row.Scan)
		if err == nil {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				return nil, false, fmt.Errorf("committing notification dedupe check: %w", commitErr)
			}

			return existing, false, nil
		}

		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("checking for pending notification: %w", err)
		}
	}

	var actor *string
	if rec.ActorID != "" {
		actor = &rec.ActorID
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO budget_notifications (project_id, type, amount, current_budget, annual_credit, reason, actor_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+notificationColumns,
		rec.ProjectID, string(rec.Type), rec.Amount, rec.CurrentBudget, rec.AnnualCredit,
		rec.Reason, actor, string(models.NotificationPending),
	)

	created, err := scanNotification(row.Scan)
	if err != nil {
		return nil, false, fmt.Errorf("inserting notification: %w", err)
	}

	if newStatus != "" {
		if err := SetBudgetStatus(ctx, tx, rec.ProjectID, newStatus); err != nil {
			return nil, false, fmt.Errorf("flipping budget status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing notification insert: %w", err)
	}

	s.notify("budget_notifications", "insert", rec.ProjectID)

	return created, true, nil
}

// buildNotificationFilter builds the WHERE clause and args from NotificationQueryOpts.
func buildNotificationFilter(opts models.NotificationQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	if opts.ProjectID != "" {
		conditions = append(conditions, "project_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.ProjectID)
		argIdx++
	}
	if opts.Type != "" {
		conditions = append(conditions, "type = $"+strconv.Itoa(argIdx))
		args = append(args, string(opts.Type))
		argIdx++
	}
	if opts.Status != "" {
		conditions = append(conditions, "status = $"+strconv.Itoa(argIdx))
		args = append(args, string(opts.Status))
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// ListNotifications returns notification records matching the given filters,
// newest first, with has_more pagination.
func (s *NotificationStore) ListNotifications(ctx context.Context, opts models.NotificationQueryOpts) ([]models.NotificationRecord, bool, error) {
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

	where, args, argIdx := buildNotificationFilter(opts)

	query := fmt.Sprintf(
		"SELECT %s FROM budget_notifications %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		notificationColumns, where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	records := make([]models.NotificationRecord, 0, limit+1)

	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning notification row: %w", err)
		}

		records = append(records, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating notification rows: %w", err)
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}

	return records, hasMore, nil
}

// ResolveNotification marks a notification resolved. Resolving an already
// resolved record is a no-op that keeps the original resolved_at.
func (s *NotificationStore) ResolveNotification(ctx context.Context, id int64) (*models.NotificationRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE budget_notifications
		SET status = $1, resolved_at = COALESCE(resolved_at, NOW())
		WHERE id = $2
		RETURNING ` + notificationColumns

	row := s.Pool.QueryRow(ctx, query, string(models.NotificationResolved), id)

	rec, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotificationNotFound
		}

		return nil, fmt.Errorf("resolving notification: %w", err)
	}

	s.notify("budget_notifications", "update", rec.ProjectID)

	return rec, nil
}

// purgeBatchSize limits the number of rows deleted per transaction to avoid
// holding long locks on budget_notifications.
const purgeBatchSize = 5000

// PurgeResolved deletes resolved notifications older than retentionDays in
// batches. Returns the number of deleted records. Pending records are never
// purged.
func (s *NotificationStore) PurgeResolved(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeResolvedBatch(batchCtx, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

// purgeResolvedBatch deletes a single batch of expired resolved notifications.
func (s *NotificationStore) purgeResolvedBatch(ctx context.Context, retentionDays int) (int, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	tag, err := tx.Exec(ctx,
		`DELETE FROM budget_notifications WHERE ctid IN (
			SELECT ctid FROM budget_notifications
			WHERE status = $1 AND resolved_at < NOW() - make_interval(days => $2)
			LIMIT $3
		)`,
		string(models.NotificationResolved), retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging notifications: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
