package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reliefline/fundledger/internal/models"
)

// BudgetService defines budget lifecycle operations used by BudgetHandler.
type BudgetService interface {
	Create(ctx context.Context, req models.CreateBudgetRequest) (*models.BudgetRecord, error)
	Get(ctx context.Context, projectID string) (*models.BudgetRecord, error)
	List(ctx context.Context, status models.BudgetStatus, limit, offset int) ([]models.BudgetRecord, bool, error)
	Archive(ctx context.Context, projectID string) (*models.BudgetRecord, error)
}

// LedgerService defines mutation and validation operations used by LedgerHandler.
type LedgerService interface {
	Validate(ctx context.Context, projectID string, amount decimal.Decimal) (*models.Decision, error)
	ApplyDelta(ctx context.Context, req models.ApplyRequest) (*models.ApplyResult, error)
	Rollback(ctx context.Context, req models.RollbackRequest) (*models.ApplyResult, error)
}

// HistoryService defines ledger read operations used by HistoryHandler.
type HistoryService interface {
	List(ctx context.Context, opts models.LedgerQueryOpts) ([]models.LedgerEntry, bool, error)
	Batch(ctx context.Context, batchID uuid.UUID, limit, offset int) ([]models.LedgerEntry, bool, error)
	Entry(ctx context.Context, id int64) (*models.LedgerEntry, error)
}

// ImportService defines the bulk import operation used by ImportHandler.
type ImportService interface {
	Run(ctx context.Context, req models.ImportRequest) (*models.ImportReport, error)
}

// ReconcileService defines the reconciliation operation used by ReconcileHandler.
type ReconcileService interface {
	Reconcile(ctx context.Context, req models.ReconcileRequest) (*models.ReconciliationResult, error)
}

// NotificationService defines notification operations used by NotificationHandler.
type NotificationService interface {
	List(ctx context.Context, opts models.NotificationQueryOpts) ([]models.NotificationRecord, bool, error)
	Resolve(ctx context.Context, id int64) (*models.NotificationRecord, error)
	PurgeResolved(ctx context.Context, retentionDays int) (int, error)
}
