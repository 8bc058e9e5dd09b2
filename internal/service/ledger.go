// Package service implements the business logic between API handlers and
// data stores.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/metrics"
	"github.com/reliefline/fundledger/internal/models"
)

// BudgetWriter is the budget-row surface the mutation engine works through.
// Defined at the consumer (per project convention) so the store package
// depends on no service types.
type BudgetWriter interface {
	GetBudget(ctx context.Context, projectID string) (*models.BudgetRecord, error)
	CompareAndWrite(ctx context.Context, projectID string, expectedVersion int64,
		newAvailable, newCredit decimal.Decimal, entry *models.LedgerEntry) (*models.BudgetRecord, error)
}

// EntryReader loads single ledger entries for rollback targeting.
type EntryReader interface {
	GetEntry(ctx context.Context, id int64) (*models.LedgerEntry, error)
}

// Dispatcher records threshold crossings for the funding workflow.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.NotificationRequest) (*models.NotificationRecord, error)
}

const (
	defaultReallocRatio = "0.2"
	defaultWriteRetries = 5
)

// LedgerOptions tunes the threshold rules and the write retry loop.
type LedgerOptions struct {
	// ReallocRatio scales the quarter's allocation-to-date into the
	// reallocation-review threshold. Zero means the default 0.2.
	ReallocRatio decimal.Decimal
	// WriteRetries bounds how often a mutation re-reads and retries after
	// losing the version race. Zero means the default 5.
	WriteRetries int
	// MissingBudgetZero makes Validate treat an unbudgeted project as a
	// zero-valued record instead of returning ErrBudgetNotFound.
	MissingBudgetZero bool
}

// LedgerService is the mutation engine and threshold validator. Every budget
// figure change in the system goes through ApplyDelta, which evaluates the
// funding rules against the same read its compare-and-write verifies, so a
// decision is never acted on across a stale read.
type LedgerService struct {
	store    BudgetWriter
	entries  EntryReader
	notifier Dispatcher
	log      *logrus.Logger
	opts     LedgerOptions

	now func() time.Time
}

// NewLedgerService creates a LedgerService. A nil notifier disables
// notification dispatch.
func NewLedgerService(
	store BudgetWriter, entries EntryReader, notifier Dispatcher, log *logrus.Logger, opts LedgerOptions,
) *LedgerService {
	if opts.ReallocRatio.IsZero() {
		opts.ReallocRatio = decimal.RequireFromString(defaultReallocRatio)
	}

	if opts.WriteRetries <= 0 {
		opts.WriteRetries = defaultWriteRetries
	}

	return &LedgerService{
		store:    store,
		entries:  entries,
		notifier: notifier,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Validate runs the threshold rules against the current budget without
// mutating anything. The returned decision's Version can be handed to
// ApplyDelta as ExpectedVersion to fail fast should the budget move in
// between.
func (s *LedgerService) Validate(ctx context.Context, projectID string, amount decimal.Decimal) (*models.Decision, error) {
	rec, err := s.store.GetBudget(ctx, projectID)

	switch {
	case err == nil:
	case errors.Is(err, models.ErrBudgetNotFound) && s.opts.MissingBudgetZero:
		// An unbudgeted project evaluates as all zeroes, so every
		// positive amount is rejected as unavailable.
		rec = &models.BudgetRecord{ProjectID: projectID, Status: models.StatusActive}
	default:
		return nil, err
	}

	if rec.Status == models.StatusArchived {
		return &models.Decision{
			Message:            models.ErrBudgetArchived.Error(),
			RemainingAvailable: rec.AvailableAmount.Sub(amount),
			RemainingCredit:    rec.AnnualCredit.Sub(amount),
			Version:            rec.Version,
		}, nil
	}

	d := evaluateThresholds(rec, amount, s.opts.ReallocRatio, s.now())

	return &d, nil
}

// evaluateThresholds applies the funding rules, in order, to one read of a
// budget. Rule order matters: exceeding the available amount wins over
// exhausting the annual credit, which wins over the reallocation review.
// Every comparison is inclusive on the spend side: an amount equal to the
// available balance passes, a remaining credit of exactly zero rejects, and
// a remaining balance exactly on the threshold raises the review.
func evaluateThresholds(rec *models.BudgetRecord, amount, ratio decimal.Decimal, asOf time.Time) models.Decision {
	d := models.Decision{
		RemainingAvailable: rec.AvailableAmount.Sub(amount),
		RemainingCredit:    rec.AnnualCredit.Sub(amount),
		Version:            rec.Version,
	}

	if amount.GreaterThan(rec.AvailableAmount) {
		d.Message = models.ReasonInsufficientAvailable
		return d
	}

	if !d.RemainingCredit.IsPositive() {
		d.RequiresNotification = true
		d.NotificationType = models.NotifyFunding
		d.Message = models.ReasonCreditExhausted

		return d
	}

	d.CanCreate = true
	d.AllowFinalDocument = true

	threshold := rec.AllocationToDate(asOf).Mul(ratio)
	if d.RemainingAvailable.LessThanOrEqual(threshold) {
		d.RequiresNotification = true
		d.NotificationType = models.NotifyReallocation
		d.Message = models.ReasonReallocationReview
	}

	return d
}

// ApplyDelta validates and applies one signed budget mutation, appending the
// paired ledger entry atomically. Positive amounts are disbursements and run
// the threshold rules; negative amounts restore budget and require the
// rollback operation. On contention the engine re-reads, re-validates and
// retries up to the configured bound, then surfaces the conflict.
func (s *LedgerService) ApplyDelta(ctx context.Context, req models.ApplyRequest) (*models.ApplyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entryAt := s.now().UTC()
	if req.EntryDate != nil {
		entryAt = req.EntryDate.UTC()
	}

	var (
		rec      *models.BudgetRecord
		entry    *models.LedgerEntry
		decision models.Decision
	)

	for attempt := 0; ; attempt++ {
		cur, err := s.store.GetBudget(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}

		if cur.Status == models.StatusArchived {
			return nil, models.ErrBudgetArchived
		}

		if req.ExpectedVersion != 0 && req.ExpectedVersion != cur.Version {
			return nil, models.ErrVersionConflict
		}

		decision = models.Decision{Version: cur.Version}
		if req.Amount.IsPositive() {
			decision = evaluateThresholds(cur, req.Amount, s.opts.ReallocRatio, s.now())
			if !decision.CanCreate {
				return nil, s.reject(ctx, cur, req, decision)
			}
		}

		newAvailable, newCredit := clampFigures(cur, req.Amount)
		entry = buildEntry(cur, &req, newAvailable, newCredit, entryAt)

		rec, err = s.store.CompareAndWrite(ctx, req.ProjectID, cur.Version, newAvailable, newCredit, entry)
		if err == nil {
			break
		}

		if !errors.Is(err, models.ErrVersionConflict) {
			return nil, err
		}

		metrics.MutationConflicts.Inc()

		// A pinned version can never succeed after the row moved, so a
		// retry would only re-discover the conflict.
		if req.ExpectedVersion != 0 || attempt+1 >= s.opts.WriteRetries {
			return nil, err
		}

		s.log.WithFields(logrus.Fields{
			"project_id": req.ProjectID,
			"attempt":    attempt + 1,
		}).Debug("budget write lost the version race, retrying")
	}

	metrics.MutationsTotal.WithLabelValues(string(req.Operation)).Inc()

	res := &models.ApplyResult{
		ProjectID:       rec.ProjectID,
		EntryID:         entry.ID,
		NewAvailable:    rec.AvailableAmount,
		NewAnnualCredit: rec.AnnualCredit,
		Version:         rec.Version,
		Retroactive:     entry.Meta.Retroactive,
	}

	if decision.RequiresNotification {
		res.Notification = s.dispatch(ctx, models.NotificationRequest{
			ProjectID:     rec.ProjectID,
			Type:          decision.NotificationType,
			Amount:        req.Amount,
			CurrentBudget: rec.AvailableAmount,
			AnnualCredit:  rec.AnnualCredit,
			Reason:        decision.Message,
			ActorID:       req.ActorID,
		})
	}

	return res, nil
}

// Rollback reverses a previously recorded entry by applying its negated
// delta as a compensating rollback entry pointing back at it. Reversing a
// disbursement restores budget without threshold checks; reversing an entry
// that had restored budget re-spends it and runs the rules again.
func (s *LedgerService) Rollback(ctx context.Context, req models.RollbackRequest) (*models.ApplyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	target, err := s.entries.GetEntry(ctx, req.EntryID)
	if err != nil {
		return nil, err
	}

	if target.ProjectID != req.ProjectID {
		return nil, models.ErrEntryNotFound
	}

	return s.ApplyDelta(ctx, models.ApplyRequest{
		ProjectID:  req.ProjectID,
		Amount:     target.DeltaAmount,
		DocumentID: target.DocumentID,
		ActorID:    req.ActorID,
		Operation:  models.OpRollback,
		Meta: models.EntryMeta{
			Rollback: &models.RollbackMeta{
				ReversedEntryID: target.ID,
				Reason:          req.Reason,
			},
		},
	})
}

// reject records the refusal and, for a credit-exhausting request, still
// raises the funding notification even though nothing was written.
func (s *LedgerService) reject(
	ctx context.Context, rec *models.BudgetRecord, req models.ApplyRequest, decision models.Decision,
) error {
	metrics.RejectionsTotal.WithLabelValues(rejectionReason(decision)).Inc()

	s.log.WithFields(logrus.Fields{
		"project_id": req.ProjectID,
		"amount":     req.Amount.String(),
		"reason":     decision.Message,
	}).Info("disbursement rejected")

	if decision.RequiresNotification {
		s.dispatch(ctx, models.NotificationRequest{
			ProjectID:     rec.ProjectID,
			Type:          decision.NotificationType,
			Amount:        req.Amount,
			CurrentBudget: rec.AvailableAmount,
			AnnualCredit:  rec.AnnualCredit,
			Reason:        decision.Message,
			ActorID:       req.ActorID,
		})
	}

	return &models.RejectionError{Decision: decision}
}

// dispatch raises a threshold notification, best-effort. A dispatch failure
// never fails the mutation that triggered it.
func (s *LedgerService) dispatch(ctx context.Context, req models.NotificationRequest) *models.NotificationRecord {
	if s.notifier == nil {
		return nil
	}

	rec, err := s.notifier.Dispatch(ctx, req)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"project_id": req.ProjectID,
			"type":       string(req.Type),
		}).Error("dispatching threshold notification")

		return nil
	}

	return rec
}

func rejectionReason(d models.Decision) string {
	if d.NotificationType == models.NotifyFunding {
		return "credit_exhausted"
	}

	return "insufficient_available"
}

// clampFigures derives the post-mutation figures. The available amount is
// floored at zero and capped at the total allocation; the annual credit is
// floored at zero with no upper cap, since the yearly ceiling itself is not
// tracked here.
func clampFigures(rec *models.BudgetRecord, amount decimal.Decimal) (available, credit decimal.Decimal) {
	available = rec.AvailableAmount.Sub(amount)
	if available.IsNegative() {
		available = decimal.Zero
	}

	if available.GreaterThan(rec.TotalAllocation) {
		available = rec.TotalAllocation
	}

	credit = rec.AnnualCredit.Sub(amount)
	if credit.IsNegative() {
		credit = decimal.Zero
	}

	return available, credit
}

// buildEntry assembles the immutable ledger row for one mutation against one
// budget read. The stored delta is the negated amount: a disbursement of 100
// lands as -100. An effective date behind the project's watermark marks the
// entry retroactive.
func buildEntry(
	rec *models.BudgetRecord, req *models.ApplyRequest, newAvailable, newCredit decimal.Decimal, at time.Time,
) *models.LedgerEntry {
	meta := req.Meta
	meta.Retroactive = rec.LastEntryAt != nil && at.Before(*rec.LastEntryAt)

	return &models.LedgerEntry{
		ProjectID:             req.ProjectID,
		DeltaAmount:           req.Amount.Neg(),
		ResultingAvailable:    newAvailable,
		ResultingAnnualCredit: newCredit,
		Operation:             req.Operation,
		BatchID:               req.BatchID,
		SequenceInBatch:       req.SequenceInBatch,
		DocumentID:            req.DocumentID,
		ActorID:               req.ActorID,
		CreatedAt:             at,
		Meta:                  meta,
	}
}
