package repositories

import (
	"context"

	"visitdesk/internal/models"

	"github.com/google/uuid"
)

type PlanRepository interface {
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
	List(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error)
	Update(ctx context.Context, plan *models.SubscriptionPlan) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type planRepo struct {
	db Database
}

func NewPlanRepo(db Database) PlanRepository {
	return &planRepo{db: db}
}

const planColumns = `id, name, monthly_price, yearly_price, currency,
	limit_monthly_visitors, limit_employees, limit_locations, limit_storage_mb,
	feature_sms, feature_email, feature_badge_printing, feature_pre_registration, feature_analytics,
	plan_type, trial_days, is_active, created_at, updated_at`

func scanPlan(row interface{ Scan(...interface{}) error }) (*models.SubscriptionPlan, error) {
	p := &models.SubscriptionPlan{}
	err := row.Scan(
		&p.ID, &p.Name, &p.MonthlyPrice, &p.YearlyPrice, &p.Currency,
		&p.Limits.MonthlyVisitors, &p.Limits.Employees, &p.Limits.Locations, &p.Limits.StorageMB,
		&p.Features.SMSNotifications, &p.Features.EmailNotifications, &p.Features.BadgePrinting,
		&p.Features.PreRegistration, &p.Features.Analytics,
		&p.PlanType, &p.TrialDays, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *planRepo) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (id, name, monthly_price, yearly_price, currency,
			limit_monthly_visitors, limit_employees, limit_locations, limit_storage_mb,
			feature_sms, feature_email, feature_badge_printing, feature_pre_registration, feature_analytics,
			plan_type, trial_days, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		plan.ID, plan.Name, plan.MonthlyPrice, plan.YearlyPrice, plan.Currency,
		plan.Limits.MonthlyVisitors, plan.Limits.Employees, plan.Limits.Locations, plan.Limits.StorageMB,
		plan.Features.SMSNotifications, plan.Features.EmailNotifications, plan.Features.BadgePrinting,
		plan.Features.PreRegistration, plan.Features.Analytics,
		plan.PlanType, plan.TrialDays, plan.IsActive,
	)
	return err
}

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

func (r *planRepo) List(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY monthly_price`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *planRepo) Update(ctx context.Context, plan *models.SubscriptionPlan) error {
	query := `
		UPDATE subscription_plans
		SET name = $1, monthly_price = $2, yearly_price = $3, currency = $4,
			limit_monthly_visitors = $5, limit_employees = $6, limit_locations = $7, limit_storage_mb = $8,
			feature_sms = $9, feature_email = $10, feature_badge_printing = $11,
			feature_pre_registration = $12, feature_analytics = $13,
			plan_type = $14, trial_days = $15, is_active = $16, updated_at = NOW()
		WHERE id = $17
	`
	_, err := r.db.Exec(ctx, query,
		plan.Name, plan.MonthlyPrice, plan.YearlyPrice, plan.Currency,
		plan.Limits.MonthlyVisitors, plan.Limits.Employees, plan.Limits.Locations, plan.Limits.StorageMB,
		plan.Features.SMSNotifications, plan.Features.EmailNotifications, plan.Features.BadgePrinting,
		plan.Features.PreRegistration, plan.Features.Analytics,
		plan.PlanType, plan.TrialDays, plan.IsActive, plan.ID,
	)
	return err
}

func (r *planRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE subscription_plans SET is_active = false, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
