// Package models defines data types for the budget ledger.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the lifecycle state of a project budget. Budgets are never
// hard-deleted; archiving is the terminal state.
type BudgetStatus string

const (
	StatusActive              BudgetStatus = "active"
	StatusPendingFunding      BudgetStatus = "pending_funding"
	StatusPendingReallocation BudgetStatus = "pending_reallocation"
	StatusArchived            BudgetStatus = "archived"
)

// Valid reports whether s is a known budget status.
func (s BudgetStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPendingFunding, StatusPendingReallocation, StatusArchived:
		return true
	}
	return false
}

// BudgetRecord is the per-project budget row. AvailableAmount and
// AnnualCredit change only through the mutation engine, which pairs every
// change with a ledger entry in the same transaction. Version increments on
// every write and backs the compare-and-write protocol.
type BudgetRecord struct {
	ProjectID           string             `json:"project_id"`
	TotalAllocation     decimal.Decimal    `json:"total_allocation"`
	AnnualCredit        decimal.Decimal    `json:"annual_credit"`
	AvailableAmount     decimal.Decimal    `json:"available_amount"`
	QuarterlyAllocation [4]decimal.Decimal `json:"quarterly_allocation"`
	Status              BudgetStatus       `json:"status"`
	Version             int64              `json:"version"`
	LastEntryAt         *time.Time         `json:"last_entry_at,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// QuarterIndex returns the zero-based calendar quarter containing t.
func QuarterIndex(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}

// AllocationToDate sums the quarterly allocations from the start of the
// fiscal year through the quarter containing asOf. The fiscal year is the
// calendar year.
func (b *BudgetRecord) AllocationToDate(asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for i := 0; i <= QuarterIndex(asOf); i++ {
		total = total.Add(b.QuarterlyAllocation[i])
	}
	return total
}

// CreateBudgetRequest is the payload for budgeting a project for the first
// time. AvailableAmount starts equal to TotalAllocation.
type CreateBudgetRequest struct {
	ProjectID           string             `json:"project_id"`
	TotalAllocation     decimal.Decimal    `json:"total_allocation"`
	AnnualCredit        decimal.Decimal    `json:"annual_credit"`
	QuarterlyAllocation [4]decimal.Decimal `json:"quarterly_allocation"`
}

// Validate checks that required fields are present and amounts are well formed.
func (r *CreateBudgetRequest) Validate() error {
	if r.ProjectID == "" {
		return ErrMissingProjectID
	}

	if len(r.ProjectID) > 64 {
		return ErrFieldTooLong("project_id", 64)
	}

	if err := validMoney("total_allocation", r.TotalAllocation); err != nil {
		return err
	}

	if err := validMoney("annual_credit", r.AnnualCredit); err != nil {
		return err
	}

	for i, q := range r.QuarterlyAllocation {
		if err := validMoney("quarterly_allocation", q); err != nil {
			return err
		}
		if q.IsNegative() {
			return negativeMoneyError("quarterly_allocation", i)
		}
	}

	if r.TotalAllocation.IsNegative() {
		return negativeMoneyError("total_allocation", -1)
	}

	if r.AnnualCredit.IsNegative() {
		return negativeMoneyError("annual_credit", -1)
	}

	return nil
}
