package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType classifies how a ledger entry came to be.
type OperationType string

const (
	OpManual    OperationType = "manual"
	OpAutomatic OperationType = "automatic"
	OpImport    OperationType = "import"
	OpRollback  OperationType = "rollback"
)

// Valid reports whether op is a known operation type.
func (op OperationType) Valid() bool {
	switch op {
	case OpManual, OpAutomatic, OpImport, OpRollback:
		return true
	}
	return false
}

// LedgerEntry is one immutable row of the budget history. Entries are only
// ever appended; a correction is a new compensating entry, never an update.
// DeltaAmount is the signed change to AvailableAmount (a disbursement of 100
// is recorded as -100).
type LedgerEntry struct {
	ID                    int64           `json:"id"`
	ProjectID             string          `json:"project_id"`
	DeltaAmount           decimal.Decimal `json:"delta_amount"`
	ResultingAvailable    decimal.Decimal `json:"resulting_available_amount"`
	ResultingAnnualCredit decimal.Decimal `json:"resulting_annual_credit"`
	Operation             OperationType   `json:"operation_type"`
	BatchID               *uuid.UUID      `json:"batch_id,omitempty"`
	SequenceInBatch       *int            `json:"sequence_in_batch,omitempty"`
	DocumentID            *string         `json:"document_id,omitempty"`
	ActorID               string          `json:"actor_id"`
	CreatedAt             time.Time       `json:"created_at"`
	Meta                  EntryMeta       `json:"metadata"`
}

// EntryMeta is the structured annotation on a ledger entry. Exactly one
// variant may be set and it must match the entry's operation type.
// Retroactive is cross-cutting: it marks entries recorded with an effective
// date earlier than the project's latest entry at insertion time.
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

// AutomaticMeta annotates a mutation triggered by another subsystem, e.g.
// finalizing a disbursement document.
type AutomaticMeta struct {
	Trigger string `json:"trigger"`
}

// ImportMeta annotates a mutation produced by a bulk import row.
type ImportMeta struct {
	SourceRow int    `json:"source_row"`
	Filename  string `json:"filename,omitempty"`
}

// RollbackMeta annotates a compensating mutation and points at the entry it
// reverses.
type RollbackMeta struct {
	ReversedEntryID int64  `json:"reversed_entry_id,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Validate checks that at most one variant is set and that it matches op.
func (m *EntryMeta) Validate(op OperationType) error {
	set := 0
	for _, present := range []bool{m.Manual != nil, m.Automatic != nil, m.Import != nil, m.Rollback != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("metadata must carry at most one variant")
	}

	switch {
	case m.Manual != nil && op != OpManual:
		return metaMismatchError("manual", op)
	case m.Automatic != nil && op != OpAutomatic:
		return metaMismatchError("automatic", op)
	case m.Import != nil && op != OpImport:
		return metaMismatchError("import", op)
	case m.Rollback != nil && op != OpRollback:
		return metaMismatchError("rollback", op)
	}

	if m.Manual != nil && len(m.Manual.Note) > 500 {
		return ErrFieldTooLong("metadata.manual.note", 500)
	}

	if m.Automatic != nil && len(m.Automatic.Trigger) > 255 {
		return ErrFieldTooLong("metadata.automatic.trigger", 255)
	}

	if m.Import != nil && len(m.Import.Filename) > 255 {
		return ErrFieldTooLong("metadata.import.filename", 255)
	}

	if m.Rollback != nil && len(m.Rollback.Reason) > 500 {
		return ErrFieldTooLong("metadata.rollback.reason", 500)
	}

	return nil
}

func metaMismatchError(variant string, op OperationType) error {
	return fmt.Errorf("metadata variant %q does not match operation type %q", variant, op)
}

// ApplyRequest is the input to the mutation engine. Amount is the proposed
// disbursement; a negative Amount models a top-up and requires the rollback
// operation type. ExpectedVersion, when nonzero, makes the engine fail fast
// with a version conflict if the budget has moved past that version.
type ApplyRequest struct {
	ProjectID       string          `json:"project_id"`
	Amount          decimal.Decimal `json:"amount"`
	DocumentID      *string         `json:"document_id,omitempty"`
	ActorID         string          `json:"actor_id"`
	Operation       OperationType   `json:"operation_type"`
	BatchID         *uuid.UUID      `json:"batch_id,omitempty"`
	SequenceInBatch *int            `json:"sequence_in_batch,omitempty"`
	ExpectedVersion int64           `json:"expected_version,omitempty"`
	EntryDate       *time.Time      `json:"entry_date,omitempty"`
	Meta            EntryMeta       `json:"metadata"`
}

// Validate checks ApplyRequest fields. Operation defaults to manual when
// empty.
func (r *ApplyRequest) Validate() error {
	if r.ProjectID == "" {
		return ErrMissingProjectID
	}

	if len(r.ProjectID) > 64 {
		return ErrFieldTooLong("project_id", 64)
	}

	if r.ActorID == "" {
		return ErrMissingActor
	}

	if len(r.ActorID) > 255 {
		return ErrFieldTooLong("actor_id", 255)
	}

	if r.Operation == "" {
		r.Operation = OpManual
	}

	if !r.Operation.Valid() {
		return fmt.Errorf("unknown operation type %q", r.Operation)
	}

	if err := validMoney("amount", r.Amount); err != nil {
		return err
	}

	if r.Amount.IsZero() {
		return ErrAmountZero
	}

	if r.Amount.IsNegative() && r.Operation != OpRollback {
		return ErrAmountNegative
	}

	if r.DocumentID != nil && len(*r.DocumentID) > 255 {
		return ErrFieldTooLong("document_id", 255)
	}

	if (r.BatchID == nil) != (r.SequenceInBatch == nil) {
		return fmt.Errorf("batch_id and sequence_in_batch must be set together")
	}

	if r.SequenceInBatch != nil && *r.SequenceInBatch < 1 {
		return fmt.Errorf("sequence_in_batch must be positive")
	}

	if r.ExpectedVersion < 0 {
		return fmt.Errorf("expected_version cannot be negative")
	}

	return r.Meta.Validate(r.Operation)
}

// RollbackRequest asks the engine to reverse a previously recorded entry by
// applying its negated delta as a compensating rollback entry.
type RollbackRequest struct {
	ProjectID string `json:"project_id"`
	EntryID   int64  `json:"entry_id"`
	ActorID   string `json:"actor_id"`
	Reason    string `json:"reason,omitempty"`
}

// Validate checks RollbackRequest fields.
func (r *RollbackRequest) Validate() error {
	if r.ProjectID == "" {
		return ErrMissingProjectID
	}

	if len(r.ProjectID) > 64 {
		return ErrFieldTooLong("project_id", 64)
	}

	if r.EntryID <= 0 {
		return fmt.Errorf("entry_id is required")
	}

	if r.ActorID == "" {
		return ErrMissingActor
	}

	if len(r.ActorID) > 255 {
		return ErrFieldTooLong("actor_id", 255)
	}

	if len(r.Reason) > 500 {
		return ErrFieldTooLong("reason", 500)
	}

	return nil
}

// ApplyResult reports the figures after a successful mutation. Notification
// is set when the mutation crossed a threshold and a record was dispatched.
type ApplyResult struct {
	ProjectID        string              `json:"project_id"`
	EntryID          int64               `json:"entry_id"`
	NewAvailable     decimal.Decimal     `json:"new_available"`
	NewAnnualCredit  decimal.Decimal     `json:"new_annual_credit"`
	Version          int64               `json:"version"`
	Retroactive      bool                `json:"retroactive,omitempty"`
	Notification     *NotificationRecord `json:"notification,omitempty"`
}

// LedgerQueryOpts holds filters for querying the ledger. Date bounds are
// inclusive on both endpoints. Ascending reverses the default newest-first
// ordering; ties on created_at always resolve by sequence_in_batch then id,
// ascending, so batch insertion order is recoverable.
type LedgerQueryOpts struct {
	ProjectID string
	Operation OperationType
	ActorID   string
	DateFrom  *time.Time
	DateTo    *time.Time
	Ascending bool
	Limit     int
	Offset    int
}
