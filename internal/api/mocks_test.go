package api_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reliefline/fundledger/internal/models"
)

// mockBudgetSvc implements api.BudgetService for testing.
type mockBudgetSvc struct {
	createFn  func(ctx context.Context, req models.CreateBudgetRequest) (*models.BudgetRecord, error)
	getFn     func(ctx context.Context, projectID string) (*models.BudgetRecord, error)
	listFn    func(ctx context.Context, status models.BudgetStatus, limit, offset int) ([]models.BudgetRecord, bool, error)
	archiveFn func(ctx context.Context, projectID string) (*models.BudgetRecord, error)
}

func (m *mockBudgetSvc) Create(ctx context.Context, req models.CreateBudgetRequest) (*models.BudgetRecord, error) {
	return m.createFn(ctx, req)
}

func (m *mockBudgetSvc) Get(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	return m.getFn(ctx, projectID)
}

func (m *mockBudgetSvc) List(ctx context.Context, status models.BudgetStatus, limit, offset int) ([]models.BudgetRecord, bool, error) {
	return m.listFn(ctx, status, limit, offset)
}

func (m *mockBudgetSvc) Archive(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	return m.archiveFn(ctx, projectID)
}

// mockLedgerSvc implements api.LedgerService for testing.
type mockLedgerSvc struct {
	validateFn func(ctx context.Context, projectID string, amount decimal.Decimal) (*models.Decision, error)
	applyFn    func(ctx context.Context, req models.ApplyRequest) (*models.ApplyResult, error)
	rollbackFn func(ctx context.Context, req models.RollbackRequest) (*models.ApplyResult, error)
}

func (m *mockLedgerSvc) Validate(ctx context.Context, projectID string, amount decimal.Decimal) (*models.Decision, error) {
	return m.validateFn(ctx, projectID, amount)
}

func (m *mockLedgerSvc) ApplyDelta(ctx context.Context, req models.ApplyRequest) (*models.ApplyResult, error) {
	return m.applyFn(ctx, req)
}

func (m *mockLedgerSvc) Rollback(ctx context.Context, req models.RollbackRequest) (*models.ApplyResult, error) {
	return m.rollbackFn(ctx, req)
}

// mockHistorySvc implements api.HistoryService for testing.
type mockHistorySvc struct {
	listFn  func(ctx context.Context, opts models.LedgerQueryOpts) ([]models.LedgerEntry, bool, error)
	batchFn func(ctx context.Context, batchID uuid.UUID, limit, offset int) ([]models.LedgerEntry, bool, error)
	entryFn func(ctx context.Context, id int64) (*models.LedgerEntry, error)
}

func (m *mockHistorySvc) List(ctx context.Context, opts models.LedgerQueryOpts) ([]models.LedgerEntry, bool, error) {
	return m.listFn(ctx, opts)
}

func (m *mockHistorySvc) Batch(ctx context.Context, batchID uuid.UUID, limit, offset int) ([]models.LedgerEntry, bool, error) {
	return m.batchFn(ctx, batchID, limit, offset)
}

func (m *mockHistorySvc) Entry(ctx context.Context, id int64) (*models.LedgerEntry, error) {
	return m.entryFn(ctx, id)
}

// mockImportSvc implements api.ImportService for testing.
type mockImportSvc struct {
	runFn func(ctx context.Context, req models.ImportRequest) (*models.ImportReport, error)
}

func (m *mockImportSvc) Run(ctx context.Context, req models.ImportRequest) (*models.ImportReport, error) {
	return m.runFn(ctx, req)
}

// mockReconcileSvc implements api.ReconcileService for testing.
type mockReconcileSvc struct {
	reconcileFn func(ctx context.Context, req models.ReconcileRequest) (*models.ReconciliationResult, error)
}

func (m *mockReconcileSvc) Reconcile(ctx context.Context, req models.ReconcileRequest) (*models.ReconciliationResult, error) {
	return m.reconcileFn(ctx, req)
}

// mockNotificationSvc implements api.NotificationService for testing.
type mockNotificationSvc struct {
	listFn    func(ctx context.Context, opts models.NotificationQueryOpts) ([]models.NotificationRecord, bool, error)
	resolveFn func(ctx context.Context, id int64) (*models.NotificationRecord, error)
	purgeFn   func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockNotificationSvc) List(ctx context.Context, opts models.NotificationQueryOpts) ([]models.NotificationRecord, bool, error) {
	return m.listFn(ctx, opts)
}

func (m *mockNotificationSvc) Resolve(ctx context.Context, id int64) (*models.NotificationRecord, error) {
	return m.resolveFn(ctx, id)
}

func (m *mockNotificationSvc) PurgeResolved(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeFn(ctx, retentionDays)
}
