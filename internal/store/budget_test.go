package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reliefline/fundledger/internal/models"
	"github.com/reliefline/fundledger/internal/store"
)

func TestCreateAndGetBudget(t *testing.T) {
	base, projectID := setupTestBase(t)
	bs := store.NewBudgetStore(base)
	ctx := context.Background()

	created := createTestBudget(t, base, projectID, "500000", "120000")

	if !created.AvailableAmount.Equal(dec("500000")) {
		t.Errorf("AvailableAmount = %s, want 500000", created.AvailableAmount)
	}
	if created.Status != models.StatusActive {
		t.Errorf("Status = %q, want active", created.Status)
	}
	if created.Version != 1 {
		t.Errorf("Version = %d, want 1", created.Version)
	}
	if created.LastEntryAt != nil {
		t.Errorf("LastEntryAt = %v, want nil", created.LastEntryAt)
	}

	got, err := bs.GetBudget(ctx, projectID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if !got.TotalAllocation.Equal(dec("500000")) {
		t.Errorf("TotalAllocation = %s, want 500000", got.TotalAllocation)
	}
	if !got.QuarterlyAllocation[0].Equal(dec("30000")) {
		t.Errorf("QuarterlyAllocation[0] = %s, want 30000", got.QuarterlyAllocation[0])
	}

	_, err = bs.CreateBudget(ctx, models.CreateBudgetRequest{ProjectID: projectID, TotalAllocation: dec("1")})
	if !errors.Is(err, models.ErrBudgetExists) {
		t.Errorf("duplicate CreateBudget error = %v, want ErrBudgetExists", err)
	}

	_, err = bs.GetBudget(ctx, projectID+"-missing")
	if !errors.Is(err, models.ErrBudgetNotFound) {
		t.Errorf("GetBudget missing error = %v, want ErrBudgetNotFound", err)
	}
}

func TestCompareAndWrite(t *testing.T) {
	base, projectID := setupTestBase(t)
	bs := store.NewBudgetStore(base)
	ls := store.NewLedgerStore(base)
	ctx := context.Background()

	rec := createTestBudget(t, base, projectID, "1000", "1000")

	entry := testEntry(rec, "200", time.Now().UTC())

	updated, err := bs.CompareAndWrite(ctx, projectID, rec.Version, dec("800"), dec("800"), entry)
	if err != nil {
		t.Fatalf("CompareAndWrite: %v", err)
	}

	if !updated.AvailableAmount.Equal(dec("800")) {
		t.Errorf("AvailableAmount = %s, want 800", updated.AvailableAmount)
	}
	if updated.Version != rec.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, rec.Version+1)
	}
	if updated.LastEntryAt == nil {
		t.Error("LastEntryAt = nil, want set")
	}
	if entry.ID == 0 {
		t.Error("entry.ID not filled in")
	}

	got, err := ls.GetEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !got.DeltaAmount.Equal(dec("-200")) {
		t.Errorf("DeltaAmount = %s, want -200", got.DeltaAmount)
	}
	if !got.ResultingAvailable.Equal(dec("800")) {
		t.Errorf("ResultingAvailable = %s, want 800", got.ResultingAvailable)
	}

	// Stale version must conflict and must not write an entry.
	_, err = bs.CompareAndWrite(ctx, projectID, rec.Version, dec("600"), dec("600"), testEntry(updated, "200", time.Now().UTC()))
	if !errors.Is(err, models.ErrVersionConflict) {
		t.Fatalf("stale CompareAndWrite error = %v, want ErrVersionConflict", err)
	}

	entries, _, err := ls.ListEntries(ctx, models.LedgerQueryOpts{ProjectID: projectID, Limit: 10})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ListEntries after conflict = %d entries, want 1", len(entries))
	}

	_, err = bs.CompareAndWrite(ctx, projectID+"-missing", 1, dec("1"), dec("1"), testEntry(rec, "1", time.Now().UTC()))
	if !errors.Is(err, models.ErrBudgetNotFound) {
		t.Errorf("missing CompareAndWrite error = %v, want ErrBudgetNotFound", err)
	}
}

func TestCompareAndWriteWatermark(t *testing.T) {
	base, projectID := setupTestBase(t)
	bs := store.NewBudgetStore(base)
	ctx := context.Background()

	rec := createTestBudget(t, base, projectID, "1000", "1000")

	newer := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	older := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	updated, err := bs.CompareAndWrite(ctx, projectID, rec.Version, dec("900"), dec("900"), testEntry(rec, "100", newer))
	if err != nil {
		t.Fatalf("CompareAndWrite: %v", err)
	}

	// A back-dated entry must not move the watermark backwards.
	updated, err = bs.CompareAndWrite(ctx, projectID, updated.Version, dec("800"), dec("800"), testEntry(updated, "100", older))
	if err != nil {
		t.Fatalf("CompareAndWrite backdated: %v", err)
	}

	if updated.LastEntryAt == nil || !updated.LastEntryAt.Equal(newer) {
		t.Errorf("LastEntryAt = %v, want %v", updated.LastEntryAt, newer)
	}
}

func TestArchiveBudget(t *testing.T) {
	base, projectID := setupTestBase(t)
	bs := store.NewBudgetStore(base)
	ctx := context.Background()

	rec := createTestBudget(t, base, projectID, "1000", "1000")

	archived, err := bs.Archive(ctx, projectID)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Status != models.StatusArchived {
		t.Errorf("Status = %q, want archived", archived.Status)
	}

	if _, err := bs.Archive(ctx, projectID); !errors.Is(err, models.ErrBudgetArchived) {
		t.Errorf("second Archive error = %v, want ErrBudgetArchived", err)
	}

	if _, err := bs.SetStatus(ctx, projectID, models.StatusActive); !errors.Is(err, models.ErrBudgetArchived) {
		t.Errorf("SetStatus on archived error = %v, want ErrBudgetArchived", err)
	}

	_, err = bs.CompareAndWrite(ctx, projectID, archived.Version, dec("900"), dec("900"), testEntry(rec, "100", time.Now().UTC()))
	if !errors.Is(err, models.ErrBudgetArchived) {
		t.Errorf("CompareAndWrite on archived error = %v, want ErrBudgetArchived", err)
	}

	if _, err := bs.Archive(ctx, projectID+"-missing"); !errors.Is(err, models.ErrBudgetNotFound) {
		t.Errorf("Archive missing error = %v, want ErrBudgetNotFound", err)
	}
}

func TestListBudgets(t *testing.T) {
	base, projectID := setupTestBase(t)
	_, second := setupTestBase(t)
	bs := store.NewBudgetStore(base)
	ctx := context.Background()

	createTestBudget(t, base, projectID, "1000", "1000")
	createTestBudget(t, base, second, "2000", "2000")

	if _, err := bs.Archive(ctx, second); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	archived, _, err := bs.ListBudgets(ctx, models.StatusArchived, 1000, 0)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}

	found := false
	for _, b := range archived {
		if b.ProjectID == second {
			found = true
		}
		if b.ProjectID == projectID {
			t.Errorf("active project %s listed under archived filter", projectID)
		}
	}
	if !found {
		t.Errorf("archived project %s not listed", second)
	}
}
