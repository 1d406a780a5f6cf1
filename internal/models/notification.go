package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the delivery channel
type NotificationType string

const (
	NotificationTypeEmail   NotificationType = "email"
	NotificationTypeSMS     NotificationType = "sms"
	NotificationTypeWebhook NotificationType = "webhook"
)

// Notification events emitted by the visitor lifecycle
const (
	EventVisitorCreated    = "visitor.created"
	EventVisitorApproved   = "visitor.approved"
	EventVisitorRejected   = "visitor.rejected"
	EventVisitorCheckedOut = "visitor.checked_out"
)

// Notification represents one dispatch attempt. Delivery is best-effort;
// failures are recorded here and never block the lifecycle transition that
// triggered them.
type Notification struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	TenantID   uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	Type       NotificationType `json:"type" db:"type"`
	EventType  string           `json:"event_type" db:"event_type"`
	VisitorID  *uuid.UUID       `json:"visitor_id" db:"visitor_id"`
	Recipient  string           `json:"recipient" db:"recipient"`
	Subject    *string          `json:"subject" db:"subject"`
	Body       string           `json:"body" db:"body"`
	Status     string           `json:"status" db:"status"` // pending, sent, failed
	Error      *string          `json:"error" db:"error"`
	SentAt     *time.Time       `json:"sent_at" db:"sent_at"`
	RetryCount int              `json:"retry_count" db:"retry_count"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}
