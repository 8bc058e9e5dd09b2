package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DisbursementDocument is the slice of an externally-owned document this
// service reads for reconciliation. The rendering subsystem owns the full
// document; only the settled amount and issue date matter here.
type DisbursementDocument struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
	IssuedAt  time.Time       `json:"issued_at"`
}

// ReconcileRequest names the project and inclusive period to cross-check.
type ReconcileRequest struct {
	ProjectID string
	From      time.Time
	To        time.Time
}

// Validate checks the request names a project and a coherent period.
func (r *ReconcileRequest) Validate() error {
	if r.ProjectID == "" {
		return ErrMissingProjectID
	}

	if len(r.ProjectID) > 64 {
		return ErrFieldTooLong("project_id", 64)
	}

	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("period bounds are required")
	}

	if r.To.Before(r.From) {
		return fmt.Errorf("period end precedes period start")
	}

	return nil
}

// ReconcileSnapshot is the point-in-time store readout reconciliation works
// from: entry and document totals captured under one repeatable-read
// transaction.
type ReconcileSnapshot struct {
	DeltaSum       decimal.Decimal
	EntryCount     int
	DocumentSum    decimal.Decimal
	DocumentCount  int
	RetroactiveIDs []int64
}

// ReconciliationResult compares recorded ledger spend against the documents
// that caused it. LedgerTotal is the net recorded spend in the period (the
// negated sum of entry deltas); DocumentTotal sums the linked documents'
// amounts. HasMismatch is set when their absolute difference exceeds the
// configured epsilon. RetroactiveEntries lists entries recorded out of
// chronological order, surfaced for manual review.
type ReconciliationResult struct {
	ProjectID          string          `json:"project_id"`
	PeriodFrom         time.Time       `json:"period_from"`
	PeriodTo           time.Time       `json:"period_to"`
	LedgerTotal        decimal.Decimal `json:"ledger_total"`
	DocumentTotal      decimal.Decimal `json:"document_total"`
	MismatchAmount     decimal.Decimal `json:"mismatch_amount"`
	HasMismatch        bool            `json:"has_mismatch"`
	EntryCount         int             `json:"entry_count"`
	DocumentCount      int             `json:"document_count"`
	RetroactiveEntries []int64         `json:"retroactive_entries,omitempty"`
}
