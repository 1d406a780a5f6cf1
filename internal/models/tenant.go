package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription status values
const (
	SubscriptionActive    = "active"
	SubscriptionInactive  = "inactive"
	SubscriptionSuspended = "suspended"
	SubscriptionCancelled = "cancelled"
)

// Limit type keys used by the limit checker
const (
	LimitMonthlyVisitors = "monthly_visitors"
	LimitEmployees       = "employees"
	LimitLocations       = "locations"
	LimitStorageMB       = "storage_mb"
)

// TenantLimits holds the plan-defined ceilings for a tenant
type TenantLimits struct {
	MonthlyVisitors int `json:"monthly_visitors" db:"limit_monthly_visitors"`
	Employees       int `json:"employees" db:"limit_employees"`
	Locations       int `json:"locations" db:"limit_locations"`
	StorageMB       int `json:"storage_mb" db:"limit_storage_mb"`
}

// TenantUsage holds current consumption against limits.
// Mutated only through TenantRepository atomic updates.
type TenantUsage struct {
	CurrentMonthVisitors int       `json:"current_month_visitors" db:"usage_month_visitors"`
	TotalEmployees       int       `json:"total_employees" db:"usage_employees"`
	StorageUsedMB        int       `json:"storage_used_mb" db:"usage_storage_mb"`
	LastResetDate        time.Time `json:"last_reset_date" db:"usage_last_reset"`
}

// TenantSubscription holds the tenant's current plan binding
type TenantSubscription struct {
	PlanID    *uuid.UUID `json:"plan_id" db:"plan_id"`
	Status    string     `json:"status" db:"subscription_status"`
	StartDate *time.Time `json:"start_date" db:"subscription_start"`
	EndDate   *time.Time `json:"end_date" db:"subscription_end"`
	AutoRenew bool       `json:"auto_renew" db:"auto_renew"`
}

type Tenant struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	Name         string             `json:"name" db:"name"`
	Email        string             `json:"email" db:"email"`
	Phone        *string            `json:"phone" db:"phone"`
	Address      *string            `json:"address" db:"address"`
	IsActive     bool               `json:"is_active" db:"is_active"`
	Subscription TenantSubscription `json:"subscription"`
	Limits       TenantLimits       `json:"limits"`
	Usage        TenantUsage        `json:"usage"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`
}
