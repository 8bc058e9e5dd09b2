package client

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a per-project budget record. Money figures are decimal strings
// on the wire and decode into decimal.Decimal.
type Budget struct {
	ProjectID           string             `json:"project_id"`
	TotalAllocation     decimal.Decimal    `json:"total_allocation"`
	AnnualCredit        decimal.Decimal    `json:"annual_credit"`
	AvailableAmount     decimal.Decimal    `json:"available_amount"`
	QuarterlyAllocation [4]decimal.Decimal `json:"quarterly_allocation"`
	Status              string             `json:"status"`
	Version             int64              `json:"version"`
	LastEntryAt         *time.Time         `json:"last_entry_at,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// CreateBudgetRequest is the payload for budgeting a project.
type CreateBudgetRequest struct {
	ProjectID           string             `json:"project_id"`
	TotalAllocation     decimal.Decimal    `json:"total_allocation"`
	AnnualCredit        decimal.Decimal    `json:"annual_credit"`
	QuarterlyAllocation [4]decimal.Decimal `json:"quarterly_allocation"`
}

// Decision is the threshold validator's verdict on a proposed disbursement.
type Decision struct {
	CanCreate            bool            `json:"can_create"`
	AllowFinalDocument   bool            `json:"allow_final_document"`
	RequiresNotification bool            `json:"requires_notification"`
	NotificationType     string          `json:"notification_type,omitempty"`
	Message              string          `json:"message,omitempty"`
	RemainingAvailable   decimal.Decimal `json:"remaining_available"`
	RemainingCredit      decimal.Decimal `json:"remaining_annual_credit"`
	Version              int64           `json:"version"`
}

// EntryMeta is the structured annotation on a ledger entry.
type EntryMeta struct {
	Retroactive bool           `json:"retroactive,omitempty"`
	Manual      *ManualMeta    `json:"manual,omitempty"`
	Automatic   *AutomaticMeta `json:"automatic,omitempty"`
	Import      *ImportMeta    `json:"import,omitempty"`
	Rollback    *RollbackMeta  `json:"rollback,omitempty"`
}

// ManualMeta annotates an operator-entered mutation.
type ManualMeta struct {
	Note string `json:"note,omitempty"`
}

// AutomaticMeta annotates a mutation triggered by another subsystem.
type AutomaticMeta struct {
	Trigger string `json:"trigger"`
}

// ImportMeta annotates a mutation produced by a bulk import row.
type ImportMeta struct {
	SourceRow int    `json:"source_row"`
	Filename  string `json:"filename,omitempty"`
}

// RollbackMeta annotates a compensating mutation.
type RollbackMeta struct {
	ReversedEntryID int64  `json:"reversed_entry_id,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// LedgerEntry is one immutable row of the budget history.
type LedgerEntry struct {
	ID                    int64           `json:"id"`
	ProjectID             string          `json:"project_id"`
	DeltaAmount           decimal.Decimal `json:"delta_amount"`
	ResultingAvailable    decimal.Decimal `json:"resulting_available_amount"`
	ResultingAnnualCredit decimal.Decimal `json:"resulting_annual_credit"`
	Operation             string          `json:"operation_type"`
	BatchID               *string         `json:"batch_id,omitempty"`
	SequenceInBatch       *int            `json:"sequence_in_batch,omitempty"`
	DocumentID            *string         `json:"document_id,omitempty"`
	ActorID               string          `json:"actor_id"`
	CreatedAt             time.Time       `json:"created_at"`
	Meta                  EntryMeta       `json:"metadata"`
}

// DisburseRequest is the payload for recording a disbursement. Operation
// defaults to "manual" server-side when empty.
type DisburseRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	DocumentID      *string         `json:"document_id,omitempty"`
	ActorID         string          `json:"actor_id"`
	Operation       string          `json:"operation_type,omitempty"`
	ExpectedVersion int64           `json:"expected_version,omitempty"`
	EntryDate       *time.Time      `json:"entry_date,omitempty"`
	Meta            *EntryMeta      `json:"metadata,omitempty"`
}

// RollbackRequest asks the engine to reverse a previously recorded entry.
type RollbackRequest struct {
	EntryID int64  `json:"entry_id"`
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

// ApplyResult reports the figures after a successful mutation.
type ApplyResult struct {
	ProjectID       string          `json:"project_id"`
	EntryID         int64           `json:"entry_id"`
	NewAvailable    decimal.Decimal `json:"new_available"`
	NewAnnualCredit decimal.Decimal `json:"new_annual_credit"`
	Version         int64           `json:"version"`
	Retroactive     bool            `json:"retroactive,omitempty"`
	Notification    *Notification   `json:"notification,omitempty"`
}

// ImportRow is one (project, amount) row of a bulk import.
type ImportRow struct {
	ProjectID   string          `json:"project_id"`
	Amount      decimal.Decimal `json:"amount"`
	DocumentRef *string         `json:"document_ref,omitempty"`
}

// ImportRequest is the payload for a bulk import run.
type ImportRequest struct {
	Rows     []ImportRow `json:"rows"`
	ActorID  string      `json:"actor_id"`
	Filename string      `json:"filename,omitempty"`
}

// RowFailure records why one import row was not applied.
type RowFailure struct {
	Row       int    `json:"row"`
	ProjectID string `json:"project_id,omitempty"`
	Reason    string `json:"reason"`
}

// ImportReport summarises the outcome of a bulk import run.
type ImportReport struct {
	BatchID string       `json:"batch_id"`
	Rows    int          `json:"rows"`
	Matched int          `json:"matched"`
	Updated int          `json:"updated"`
	Skipped []RowFailure `json:"skipped,omitempty"`
	Errors  []RowFailure `json:"errors,omitempty"`
}

// ReconciliationResult compares recorded ledger spend against disbursement
// documents for a period.
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

// Notification captures a threshold crossing recorded for the funding
// workflow.
type Notification struct {
	ID            int64           `json:"id"`
	ProjectID     string          `json:"project_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	CurrentBudget decimal.Decimal `json:"current_budget"`
	AnnualCredit  decimal.Decimal `json:"annual_credit"`
	Reason        string          `json:"reason"`
	ActorID       string          `json:"actor_id,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is returned by the readiness endpoint.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Pool   string            `json:"pool,omitempty"`
}

// BudgetListOptions holds parameters for listing budgets.
type BudgetListOptions struct {
	Status string
	Limit  int
	Offset int
}

// LedgerListOptions holds parameters for querying the ledger. From and To
// accept RFC3339 timestamps or bare YYYY-MM-DD dates; a bare date as the
// upper bound covers the whole day.
type LedgerListOptions struct {
	ProjectID string
	Operation string
	ActorID   string
	From      string
	To        string
	Order     string
	Limit     int
	Offset    int
}

// NotificationListOptions holds parameters for listing notifications.
type NotificationListOptions struct {
	ProjectID string
	Type      string
	Status    string
	Limit     int
	Offset    int
}
