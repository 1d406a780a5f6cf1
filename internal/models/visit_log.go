package models

import (
	"time"

	"github.com/google/uuid"
)

// Visit log actions. One row is appended per lifecycle action taken on a
// visitor; rows are never updated or deleted.
const (
	ActionCreated      = "created"
	ActionScheduled    = "scheduled"
	ActionApproved     = "approved"
	ActionCheckedIn    = "checked_in"
	ActionRejected     = "rejected"
	ActionCheckedOut   = "checked_out"
	ActionNoShow       = "no_show"
	ActionBadgePrinted = "badge_printed"
	ActionCancelled    = "cancelled"
)

// JSONB represents a PostgreSQL JSONB column
type JSONB map[string]interface{}

type VisitLog struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	VisitorID       uuid.UUID  `json:"visitor_id" db:"visitor_id"`
	TenantID        uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	HostID          uuid.UUID  `json:"host_id" db:"host_id"`
	ReceptionistID  *uuid.UUID `json:"receptionist_id" db:"receptionist_id"`
	Action          string     `json:"action" db:"action"`
	PerformedBy     *uuid.UUID `json:"performed_by" db:"performed_by"`
	Location        *string    `json:"location" db:"location"`
	Device          *string    `json:"device" db:"device"`
	Details         JSONB      `json:"details" db:"details"`
	DurationMinutes *int       `json:"duration_minutes" db:"duration_minutes"` // set on checkout only
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// VisitLogFilters represents filters for querying visit logs
type VisitLogFilters struct {
	VisitorID *uuid.UUID `json:"visitor_id"`
	HostID    *uuid.UUID `json:"host_id"`
	Action    *string    `json:"action"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// StatusCount is one row of a status-breakdown aggregate
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DayCount is one row of a per-day aggregate
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// HourCount is one row of a per-hour aggregate
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// HostCount is one row of a top-hosts aggregate
type HostCount struct {
	HostID   uuid.UUID `json:"host_id"`
	HostName string    `json:"host_name"`
	Count    int       `json:"count"`
}
