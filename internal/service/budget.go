package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// BudgetStore is the data-access interface BudgetService depends on.
type BudgetStore interface {
	CreateBudget(ctx context.Context, req models.CreateBudgetRequest) (*models.BudgetRecord, error)
	GetBudget(ctx context.Context, projectID string) (*models.BudgetRecord, error)
	ListBudgets(ctx context.Context, status models.BudgetStatus, limit, offset int) ([]models.BudgetRecord, bool, error)
	Archive(ctx context.Context, projectID string) (*models.BudgetRecord, error)
}

// BudgetService wraps BudgetStore with logging for lifecycle operations.
// Figure mutations are not here; those go through LedgerService.
type BudgetService struct {
	store BudgetStore
	log   *logrus.Logger
}

// NewBudgetService creates a BudgetService.
func NewBudgetService(store BudgetStore, log *logrus.Logger) *BudgetService {
	return &BudgetService{store: store, log: log}
}

// Create budgets a project for the first time. The available amount starts
// equal to the total allocation.
func (s *BudgetService) Create(ctx context.Context, req models.CreateBudgetRequest) (*models.BudgetRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.store.CreateBudget(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"project_id":       rec.ProjectID,
		"total_allocation": rec.TotalAllocation.String(),
		"annual_credit":    rec.AnnualCredit.String(),
	}).Info("budget.create")

	return rec, nil
}

// Get returns the budget record for a project (pass-through to store).
func (s *BudgetService) Get(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	return s.store.GetBudget(ctx, projectID)
}

// List returns budget records, optionally filtered by status (pass-through).
func (s *BudgetService) List(
	ctx context.Context, status models.BudgetStatus, limit, offset int,
) ([]models.BudgetRecord, bool, error) {
	return s.store.ListBudgets(ctx, status, limit, offset)
}

// Archive moves a budget to its terminal archived state and logs the action.
func (s *BudgetService) Archive(ctx context.Context, projectID string) (*models.BudgetRecord, error) {
	rec, err := s.store.Archive(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.log.WithField("project_id", projectID).Info("budget.archive")

	return rec, nil
}
