package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingProjectID = errors.New("project_id is required")
	ErrMissingActor     = errors.New("actor_id is required")
	ErrAmountZero       = errors.New("amount must be nonzero")
	ErrAmountNegative   = errors.New("negative amount requires a rollback operation")
	ErrAmountPrecision  = errors.New("amount must have at most two decimal places")
)

// Sentinel errors for entity lookups.
var (
	ErrBudgetNotFound       = errors.New("budget not found")
	ErrEntryNotFound        = errors.New("ledger entry not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ErrBudgetExists indicates a budget already exists for the project (maps to HTTP 409 Conflict).
var ErrBudgetExists = errors.New("budget already exists for project")

// ErrBudgetArchived indicates the budget has been archived and no longer accepts mutations.
var ErrBudgetArchived = errors.New("budget is archived")

// ErrVersionConflict indicates a compare-and-write lost the race after
// exhausting retries. Callers should repeat the whole validate+apply sequence.
var ErrVersionConflict = errors.New("budget version conflict")

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}

// RejectionError is returned when a proposed mutation fails threshold
// validation. It carries the full decision so callers can show the user
// which rule fired.
type RejectionError struct {
	Decision Decision
}

func (e *RejectionError) Error() string {
	return "disbursement rejected: " + e.Decision.Message
}
