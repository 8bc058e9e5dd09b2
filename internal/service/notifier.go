package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/metrics"
	"github.com/reliefline/fundledger/internal/models"
)

// NotifyStore is the data-access interface NotifyService depends on.
type NotifyStore interface {
	Insert(ctx context.Context, rec *models.NotificationRecord, dedupe bool,
		newStatus models.BudgetStatus) (*models.NotificationRecord, bool, error)
	ListNotifications(ctx context.Context, opts models.NotificationQueryOpts) ([]models.NotificationRecord, bool, error)
	ResolveNotification(ctx context.Context, id int64) (*models.NotificationRecord, error)
	PurgeResolved(ctx context.Context, retentionDays int) (int, error)
}

// StatusSetter flips a budget's workflow status outside the insert path.
type StatusSetter interface {
	SetStatus(ctx context.Context, projectID string, status models.BudgetStatus) (*models.BudgetRecord, error)
}

// Compile-time check: *NotifyService must satisfy Dispatcher.
var _ Dispatcher = (*NotifyService)(nil)

// NotifyService creates and manages threshold notification records. It owns
// the budget status flips that mirror the notification workflow: a dispatch
// moves the project into the matching pending state, and resolving the last
// pending record moves it back to active. Delivery to a human is owned by
// the channel downstream; records here are the source it reads.
type NotifyService struct {
	store   NotifyStore
	budgets StatusSetter
	log     *logrus.Logger
	dedupe  bool
}

// NewNotifyService creates a NotifyService. With dedupe set, a pending
// record of the same (project, type) suppresses repeated dispatches.
func NewNotifyService(store NotifyStore, budgets StatusSetter, log *logrus.Logger, dedupe bool) *NotifyService {
	return &NotifyService{store: store, budgets: budgets, log: log, dedupe: dedupe}
}

// Dispatch records a threshold crossing and flips the project's status to
// the matching pending state in the same transaction.
func (s *NotifyService) Dispatch(ctx context.Context, req models.NotificationRequest) (*models.NotificationRecord, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("unknown notification type %q", req.Type)
	}

	status := models.StatusPendingFunding
	if req.Type == models.NotifyReallocation {
		status = models.StatusPendingReallocation
	}

	rec := &models.NotificationRecord{
		ProjectID:     req.ProjectID,
		Type:          req.Type,
		Amount:        req.Amount,
		CurrentBudget: req.CurrentBudget,
		AnnualCredit:  req.AnnualCredit,
		Reason:        req.Reason,
		ActorID:       req.ActorID,
	}

	created, isNew, err := s.store.Insert(ctx, rec, s.dedupe, status)
	if err != nil {
		return nil, err
	}

	if isNew {
		metrics.NotificationsTotal.WithLabelValues(string(req.Type)).Inc()

		s.log.WithFields(logrus.Fields{
			"project_id": req.ProjectID,
			"type":       string(req.Type),
			"reason":     req.Reason,
		}).Info("notification.dispatch")
	}

	return created, nil
}

// List returns notification records matching the given filters (pass-through).
func (s *NotifyService) List(ctx context.Context, opts models.NotificationQueryOpts) ([]models.NotificationRecord, bool, error) {
	return s.store.ListNotifications(ctx, opts)
}

// Resolve marks a notification resolved. When it was the project's last
// pending record, the budget status is restored to active.
func (s *NotifyService) Resolve(ctx context.Context, id int64) (*models.NotificationRecord, error) {
	rec, err := s.store.ResolveNotification(ctx, id)
	if err != nil {
		return nil, err
	}

	s.restoreStatus(ctx, rec.ProjectID)

	return rec, nil
}

// restoreStatus moves a budget back to active once no pending notifications
// remain, best-effort. Archived budgets keep their status.
func (s *NotifyService) restoreStatus(ctx context.Context, projectID string) {
	pending, _, err := s.store.ListNotifications(ctx, models.NotificationQueryOpts{
		ProjectID: projectID,
		Status:    models.NotificationPending,
		Limit:     1,
	})
	if err != nil {
		s.log.WithError(err).WithField("project_id", projectID).Warn("checking pending notifications after resolve")
		return
	}

	if len(pending) > 0 {
		return
	}

	if _, err := s.budgets.SetStatus(ctx, projectID, models.StatusActive); err != nil &&
		!errors.Is(err, models.ErrBudgetArchived) {
		s.log.WithError(err).WithField("project_id", projectID).Warn("restoring budget status after resolve")
	}
}

// PurgeResolved deletes resolved notifications older than retentionDays and
// logs the result.
func (s *NotifyService) PurgeResolved(ctx context.Context, retentionDays int) (int, error) {
	deleted, err := s.store.PurgeResolved(ctx, retentionDays)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info("notification.purge")

	return deleted, nil
}
