package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/metrics"
	"github.com/reliefline/fundledger/internal/models"
)

// SnapshotStore captures point-in-time period totals for reconciliation.
type SnapshotStore interface {
	Snapshot(ctx context.Context, projectID string, from, to time.Time) (*models.ReconcileSnapshot, error)
}

// ReconcileService cross-checks recorded ledger spend against the
// disbursement documents that caused it. Strictly read-only; over an
// immutable period the result is idempotent.
type ReconcileService struct {
	store   SnapshotStore
	log     *logrus.Logger
	epsilon decimal.Decimal
}

// NewReconcileService creates a ReconcileService flagging mismatches whose
// absolute amount exceeds epsilon. A negative epsilon is treated as zero.
func NewReconcileService(store SnapshotStore, log *logrus.Logger, epsilon decimal.Decimal) *ReconcileService {
	if epsilon.IsNegative() {
		epsilon = decimal.Zero
	}

	return &ReconcileService{store: store, log: log, epsilon: epsilon}
}

// Reconcile compares the period's net recorded spend with the linked
// document totals. The ledger total is the negated sum of entry deltas, so
// a rolled-back disbursement nets to zero while its document still counts,
// which is exactly the kind of divergence the mismatch flag surfaces.
func (s *ReconcileService) Reconcile(ctx context.Context, req models.ReconcileRequest) (*models.ReconciliationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	snap, err := s.store.Snapshot(ctx, req.ProjectID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	ledgerTotal := snap.DeltaSum.Neg()
	mismatch := ledgerTotal.Sub(snap.DocumentSum).Abs()

	res := &models.ReconciliationResult{
		ProjectID:          req.ProjectID,
		PeriodFrom:         req.From,
		PeriodTo:           req.To,
		LedgerTotal:        ledgerTotal,
		DocumentTotal:      snap.DocumentSum,
		MismatchAmount:     mismatch,
		HasMismatch:        mismatch.GreaterThan(s.epsilon),
		EntryCount:         snap.EntryCount,
		DocumentCount:      snap.DocumentCount,
		RetroactiveEntries: snap.RetroactiveIDs,
	}

	if res.HasMismatch {
		metrics.ReconcileMismatches.Inc()

		s.log.WithFields(logrus.Fields{
			"project_id": req.ProjectID,
			"mismatch":   mismatch.String(),
		}).Warn("reconciliation mismatch")
	}

	return res, nil
}
