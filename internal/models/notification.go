package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotificationStatus is the workflow state of a notification record.
type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationResolved NotificationStatus = "resolved"
)

// NotificationRecord captures a threshold crossing for the funding workflow.
// This service only creates and lists records; delivering them to a human is
// owned by the notification channel downstream.
type NotificationRecord struct {
	ID            int64              `json:"id"`
	ProjectID     string             `json:"project_id"`
	Type          NotificationType   `json:"type"`
	Amount        decimal.Decimal    `json:"amount"`
	CurrentBudget decimal.Decimal    `json:"current_budget"`
	AnnualCredit  decimal.Decimal    `json:"annual_credit"`
	Reason        string             `json:"reason"`
	ActorID       string             `json:"actor_id,omitempty"`
	Status        NotificationStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty"`
}

// NotificationRequest asks the dispatcher to record a threshold crossing.
// CurrentBudget and AnnualCredit are the figures at crossing time; for a
// rejected disbursement they are the untouched figures, for an applied one
// the figures after the write.
type NotificationRequest struct {
	ProjectID     string
	Type          NotificationType
	Amount        decimal.Decimal
	CurrentBudget decimal.Decimal
	AnnualCredit  decimal.Decimal
	Reason        string
	ActorID       string
}

// NotificationQueryOpts holds filters for listing notifications.
type NotificationQueryOpts struct {
	ProjectID string
	Type      NotificationType
	Status    NotificationStatus
	Limit     int
	Offset    int
}
