package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan types
const (
	PlanTypeTrial      = "trial"
	PlanTypeStandard   = "standard"
	PlanTypeEnterprise = "enterprise"
)

// PlanFeatures are boolean capability grants attached to a plan
type PlanFeatures struct {
	SMSNotifications   bool `json:"sms_notifications"`
	EmailNotifications bool `json:"email_notifications"`
	BadgePrinting      bool `json:"badge_printing"`
	PreRegistration    bool `json:"pre_registration"`
	Analytics          bool `json:"analytics"`
}

type SubscriptionPlan struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	MonthlyPrice float64      `json:"monthly_price" db:"monthly_price"`
	YearlyPrice  float64      `json:"yearly_price" db:"yearly_price"`
	Currency     string       `json:"currency" db:"currency"`
	Limits       TenantLimits `json:"limits"`
	Features     PlanFeatures `json:"features"`
	PlanType     string       `json:"plan_type" db:"plan_type"`
	TrialDays    int          `json:"trial_days" db:"trial_days"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}
