package models

import (
	"github.com/shopspring/decimal"
)

// NotificationType names the threshold a mutation crossed.
type NotificationType string

const (
	// NotifyFunding means the annual credit would be exhausted.
	NotifyFunding NotificationType = "funding"
	// NotifyReallocation means the remaining available amount fell to or
	// below the reallocation-review threshold for the quarter.
	NotifyReallocation NotificationType = "reallocation"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	return t == NotifyFunding || t == NotifyReallocation
}

// Reason strings surfaced to callers. Each rejected or flagged disbursement
// carries exactly one of these so the UI can distinguish the cases.
const (
	ReasonInsufficientAvailable = "insufficient available budget"
	ReasonCreditExhausted       = "would exhaust annual credit"
	ReasonReallocationReview    = "would trigger reallocation review"
)

// Decision is the threshold validator's verdict on a proposed disbursement.
// CanCreate gates recording the disbursement at all; AllowFinalDocument gates
// issuing the formal document for it. Version is the budget version the
// decision was evaluated against; passing it to the mutation engine as
// ExpectedVersion turns a stale decision into a fast-failing conflict instead
// of a silent over-commit.
type Decision struct {
	CanCreate            bool             `json:"can_create"`
	AllowFinalDocument   bool             `json:"allow_final_document"`
	RequiresNotification bool             `json:"requires_notification"`
	NotificationType     NotificationType `json:"notification_type,omitempty"`
	Message              string           `json:"message,omitempty"`
	RemainingAvailable   decimal.Decimal  `json:"remaining_available"`
	RemainingCredit      decimal.Decimal  `json:"remaining_annual_credit"`
	Version              int64            `json:"version"`
}

// ValidateRequest is the payload for a stand-alone threshold check.
type ValidateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Validate checks the proposed amount is a positive, well-formed figure.
func (r *ValidateRequest) Validate() error {
	if err := validMoney("amount", r.Amount); err != nil {
		return err
	}

	if r.Amount.IsZero() {
		return ErrAmountZero
	}

	if r.Amount.IsNegative() {
		return ErrAmountNegative
	}

	return nil
}
