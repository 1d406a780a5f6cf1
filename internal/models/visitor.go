package models

import (
	"time"

	"github.com/google/uuid"
)

// Visitor lifecycle statuses. Status is the single authoritative state field;
// approval state is derived from it rather than duplicated in a second column.
const (
	VisitorScheduled  = "scheduled"
	VisitorPending    = "pending"
	VisitorCheckedIn  = "checked_in"
	VisitorApproved   = "approved"
	VisitorRejected   = "rejected"
	VisitorCheckedOut = "checked_out"
	VisitorNoShow     = "no_show"
)

// VisitorBadge holds badge print state for a visitor
type VisitorBadge struct {
	Number    *string    `json:"number" db:"badge_number"`
	Printed   bool       `json:"printed" db:"badge_printed"`
	PrintedAt *time.Time `json:"printed_at" db:"badge_printed_at"`
}

// VisitorDocuments holds object-storage keys for uploaded visitor documents
type VisitorDocuments struct {
	PhotoKey     *string `json:"photo_key" db:"photo_key"`
	IDProofKey   *string `json:"id_proof_key" db:"id_proof_key"`
	SignatureKey *string `json:"signature_key" db:"signature_key"`
}

type Visitor struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	TenantID        uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	HostID          uuid.UUID        `json:"host_id" db:"host_id"`
	ReceptionistID  *uuid.UUID       `json:"receptionist_id" db:"receptionist_id"`
	Name            string           `json:"name" db:"name"`
	Email           string           `json:"email" db:"email"`
	Phone           string           `json:"phone" db:"phone"`
	Purpose         string           `json:"purpose" db:"purpose"`
	VisitorType     *string          `json:"visitor_type" db:"visitor_type"`
	ScheduledAt     *time.Time       `json:"scheduled_at" db:"scheduled_at"`
	CheckInTime     *time.Time       `json:"check_in_time" db:"check_in_time"`
	CheckOutTime    *time.Time       `json:"check_out_time" db:"check_out_time"`
	Status          string           `json:"status" db:"status"`
	RejectionReason *string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ApprovedBy      *uuid.UUID       `json:"approved_by" db:"approved_by"`
	ApprovedAt      *time.Time       `json:"approved_at" db:"approved_at"`
	Badge           VisitorBadge     `json:"badge"`
	Documents       VisitorDocuments `json:"documents"`
	Notes           *string          `json:"notes" db:"notes"`
	Metadata        JSONB            `json:"metadata,omitempty" db:"metadata"` // caller-supplied context, never read by core logic
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// ValidVisitorStatus reports whether status is a known lifecycle value.
func ValidVisitorStatus(status string) bool {
	switch status {
	case VisitorScheduled, VisitorPending, VisitorCheckedIn, VisitorApproved,
		VisitorRejected, VisitorCheckedOut, VisitorNoShow:
		return true
	}
	return false
}

// InProgress reports whether the visitor is currently inside the building.
func (v *Visitor) InProgress() bool {
	return v.Status == VisitorCheckedIn || v.Status == VisitorApproved
}

// VisitorSearchFilter holds filter criteria for visitor list queries
type VisitorSearchFilter struct {
	Status      *string    `json:"status,omitempty"`
	HostID      *uuid.UUID `json:"host_id,omitempty"`
	VisitorType *string    `json:"visitor_type,omitempty"`
	Query       string     `json:"query,omitempty"` // matches name, email, phone
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	Offset      int        `json:"offset,omitempty"`
}
