package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reliefline/fundledger/internal/models"
)

// mockBudgetWriter records calls and returns configured responses.
type mockBudgetWriter struct {
	mu    sync.Mutex
	calls []string

	getBudget       func(ctx context.Context, projectID string) (*models.BudgetRecord, error)
	compareAndWrite func(ctx context.Context, projectID string, expectedVersion int64,
		newAvailable, newCredit decimal.Decimal, entry *models.LedgerEntry) (*models.BudgetRecord, error)
}

func (m *mockBudgetWriter) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockBudgetWriter) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}

	return n
}

func (m *mockBudgetWriter) GetBudget(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	m.record("GetBudget")
	return m.getBudget(ctx, projectID)
}

func (m *mockBudgetWriter) CompareAndWrite(ctx context.Context, projectID string, expectedVersion int64,
	newAvailable, newCredit decimal.Decimal, entry *models.LedgerEntry) (*models.BudgetRecord, error) {
	m.record("CompareAndWrite")
	return m.compareAndWrite(ctx, projectID, expectedVersion, newAvailable, newCredit, entry)
}

// mockEntryReader returns configured entries.
type mockEntryReader struct {
	getEntry func(ctx context.Context, id int64) (*models.LedgerEntry, error)
}

func (m *mockEntryReader) GetEntry(ctx context.Context, id int64) (*models.LedgerEntry, error) {
	return m.getEntry(ctx, id)
}

// mockDispatcher records dispatch requests.
type mockDispatcher struct {
	mu    sync.Mutex
	calls []models.NotificationRequest

	rec *models.NotificationRecord
	err error
}

func (m *mockDispatcher) Dispatch(ctx context.Context, req models.NotificationRequest) (*models.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	return m.rec, m.err
}

func (m *mockDispatcher) getCalls() []models.NotificationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]models.NotificationRequest, len(m.calls))
	copy(cp, m.calls)

	return cp
}

// mockApplier records apply requests and returns configured responses.
type mockApplier struct {
	mu    sync.Mutex
	calls []models.ApplyRequest

	applyDelta func(ctx context.Context, req models.ApplyRequest) (*models.ApplyResult, error)
}

func (m *mockApplier) ApplyDelta(ctx context.Context, req models.ApplyRequest) (*models.ApplyResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	return m.applyDelta(ctx, req)
}

func (m *mockApplier) getCalls() []models.ApplyRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]models.ApplyRequest, len(m.calls))
	copy(cp, m.calls)

	return cp
}

// mockNotifyStore records calls and returns configured responses.
type mockNotifyStore struct {
	mu    sync.Mutex
	calls []string

	insert func(ctx context.Context, rec *models.NotificationRecord, dedupe bool,
		newStatus models.BudgetStatus) (*models.NotificationRecord, bool, error)
	listNotifications   func(ctx context.Context, opts models.NotificationQueryOpts) ([]models.NotificationRecord, bool, error)
	resolveNotification func(ctx context.Context, id int64) (*models.NotificationRecord, error)
	purgeResolved       func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockNotifyStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockNotifyStore) Insert(ctx context.Context, rec *models.NotificationRecord, dedupe bool,
	newStatus models.BudgetStatus) (*models.NotificationRecord, bool, error) {
	m.record("Insert")
	return m.insert(ctx, rec, dedupe, newStatus)
}

func (m *mockNotifyStore) ListNotifications(
	ctx context.Context, opts models.NotificationQueryOpts,
) ([]models.NotificationRecord, bool, error) {
	m.record("ListNotifications")
	return m.listNotifications(ctx, opts)
}

func (m *mockNotifyStore) ResolveNotification(ctx context.Context, id int64) (*models.NotificationRecord, error) {
	m.record("ResolveNotification")
	return m.resolveNotification(ctx, id)
}

func (m *mockNotifyStore) PurgeResolved(ctx context.Context, retentionDays int) (int, error) {
	m.record("PurgeResolved")
	return m.purgeResolved(ctx, retentionDays)
}

// mockStatusSetter records status flips.
type mockStatusSetter struct {
	mu    sync.Mutex
	calls []models.BudgetStatus

	setStatus func(ctx context.Context, projectID string, status models.BudgetStatus) (*models.BudgetRecord, error)
}

func (m *mockStatusSetter) SetStatus(
	ctx context.Context, projectID string, status models.BudgetStatus,
) (*models.BudgetRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, status)
	m.mu.Unlock()

	if m.setStatus != nil {
		return m.setStatus(ctx, projectID, status)
	}

	return &models.BudgetRecord{ProjectID: projectID, Status: status}, nil
}

func (m *mockStatusSetter) getCalls() []models.BudgetStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]models.BudgetStatus, len(m.calls))
	copy(cp, m.calls)

	return cp
}

// mockSnapshotStore returns configured snapshots.
type mockSnapshotStore struct {
	snapshot func(ctx context.Context, projectID string, from, to time.Time) (*models.ReconcileSnapshot, error)
}

func (m *mockSnapshotStore) Snapshot(
	ctx context.Context, projectID string, from, to time.Time,
) (*models.ReconcileSnapshot, error) {
	return m.snapshot(ctx, projectID, from, to)
}

// fakeBudgetStore is a stateful in-memory BudgetWriter with real version
// semantics, for exercising the retry loop under genuine contention.
type fakeBudgetStore struct {
	mu      sync.Mutex
	rec     models.BudgetRecord
	entries []models.LedgerEntry
	nextID  int64
}

func newFakeBudgetStore(rec models.BudgetRecord) *fakeBudgetStore {
	return &fakeBudgetStore{rec: rec, nextID: 1}
}

func (f *fakeBudgetStore) GetBudget(_ context.Context, projectID string) (*models.BudgetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if projectID != f.rec.ProjectID {
		return nil, models.ErrBudgetNotFound
	}

	cp := f.rec

	return &cp, nil
}

func (f *fakeBudgetStore) CompareAndWrite(_ context.Context, projectID string, expectedVersion int64,
	newAvailable, newCredit decimal.Decimal, entry *models.LedgerEntry) (*models.BudgetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if projectID != f.rec.ProjectID {
		return nil, models.ErrBudgetNotFound
	}

	if f.rec.Status == models.StatusArchived {
		return nil, models.ErrBudgetArchived
	}

	if f.rec.Version != expectedVersion {
		return nil, models.ErrVersionConflict
	}

	f.rec.AvailableAmount = newAvailable
	f.rec.AnnualCredit = newCredit
	f.rec.Version++

	at := entry.CreatedAt
	if f.rec.LastEntryAt == nil || f.rec.LastEntryAt.Before(at) {
		f.rec.LastEntryAt = &at
	}

	entry.ID = f.nextID
	f.nextID++
	f.entries = append(f.entries, *entry)

	cp := f.rec

	return &cp, nil
}

func (f *fakeBudgetStore) current() models.BudgetRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.rec
}

func (f *fakeBudgetStore) allEntries() []models.LedgerEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := make([]models.LedgerEntry, len(f.entries))
	copy(cp, f.entries)

	return cp
}

// GetEntry satisfies EntryReader against the fake's recorded entries.
func (f *fakeBudgetStore) GetEntry(_ context.Context, id int64) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.entries {
		if f.entries[i].ID == id {
			cp := f.entries[i]
			return &cp, nil
		}
	}

	return nil, models.ErrEntryNotFound
}

// mockBudgetStore scripts the budget lifecycle surface.
type mockBudgetStore struct {
	createBudget func(ctx context.Context, req models.CreateBudgetRequest) (*models.BudgetRecord, error)
	getBudget    func(ctx context.Context, projectID string) (*models.BudgetRecord, error)
	listBudgets  func(ctx context.Context, status models.BudgetStatus, limit, offset int) ([]models.BudgetRecord, bool, error)
	archive      func(ctx context.Context, projectID string) (*models.BudgetRecord, error)
}

func (m *mockBudgetStore) CreateBudget(ctx context.Context, req models.CreateBudgetRequest) (*models.BudgetRecord, error) {
	return m.createBudget(ctx, req)
}

func (m *mockBudgetStore) GetBudget(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	return m.getBudget(ctx, projectID)
}

func (m *mockBudgetStore) ListBudgets(
	ctx context.Context, status models.BudgetStatus, limit, offset int,
) ([]models.BudgetRecord, bool, error) {
	return m.listBudgets(ctx, status, limit, offset)
}

func (m *mockBudgetStore) Archive(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	return m.archive(ctx, projectID)
}
