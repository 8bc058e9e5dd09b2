package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// HistoryStore is the data-access interface HistoryService depends on.
type HistoryStore interface {
	ListEntries(ctx context.Context, opts models.LedgerQueryOpts) ([]models.LedgerEntry, bool, error)
	ListBatch(ctx context.Context, batchID uuid.UUID, limit, offset int) ([]models.LedgerEntry, bool, error)
	GetEntry(ctx context.Context, id int64) (*models.LedgerEntry, error)
}

// HistoryService exposes read access to the append-only ledger with
// context-aware logging.
type HistoryService struct {
	store HistoryStore
	log   *logrus.Logger
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(store HistoryStore, log *logrus.Logger) *HistoryService {
	return &HistoryService{store: store, log: log}
}

// List returns ledger entries matching the given filters.
func (s *HistoryService) List(ctx context.Context, opts models.LedgerQueryOpts) ([]models.LedgerEntry, bool, error) {
	s.log.WithFields(logrus.Fields{
		"project_id": opts.ProjectID,
		"limit":      opts.Limit,
		"offset":     opts.Offset,
	}).Debug("history.list")

	return s.store.ListEntries(ctx, opts)
}

// Batch returns the member entries of one import batch in sequence order.
func (s *HistoryService) Batch(ctx context.Context, batchID uuid.UUID, limit, offset int) ([]models.LedgerEntry, bool, error) {
	s.log.WithField("batch_id", batchID.String()).Debug("history.batch")

	return s.store.ListBatch(ctx, batchID, limit, offset)
}

// Entry returns a single ledger entry by id (pass-through).
func (s *HistoryService) Entry(ctx context.Context, id int64) (*models.LedgerEntry, error) {
	return s.store.GetEntry(ctx, id)
}
