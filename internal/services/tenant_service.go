package services

import (
	"context"
	"log"
	"time"

	"visitdesk/internal/apperrors"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"

	"github.com/google/uuid"
)

// TenantService gates tenant-scoped writes (subscription and active checks),
// enforces plan limits, and maintains usage counters.
type TenantService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)

	// RequireActive verifies the tenant exists, is enabled, and has an
	// active subscription. It runs before limit checks on every
	// tenant-scoped write.
	RequireActive(ctx context.Context, id uuid.UUID) (*models.Tenant, error)

	// IsWithinLimits is the pure limit predicate: true iff usage + count
	// stays at or under the limit. Unknown limit types fail closed.
	IsWithinLimits(tenant *models.Tenant, limitType string, count int) bool

	// ConsumeLimit applies an atomic usage increment, failing with
	// LimitExceededError when the increment would cross the plan ceiling.
	ConsumeLimit(ctx context.Context, id uuid.UUID, limitType string, count int) error
	ReleaseLimit(ctx context.Context, id uuid.UUID, limitType string, count int) error

	// ResetMonthlyUsage zeroes the monthly visitor counter when asOf has
	// crossed a month boundary relative to the stored reset date.
	ResetMonthlyUsage(ctx context.Context, id uuid.UUID, asOf time.Time) (bool, error)
	ResetAllMonthlyUsage(ctx context.Context, asOf time.Time) error

	Subscribe(ctx context.Context, tenantID, planID uuid.UUID, yearly bool) (*models.Tenant, error)
	CancelSubscription(ctx context.Context, tenantID uuid.UUID) error
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	planRepo   repositories.PlanRepository
}

func NewTenantService(tenantRepo repositories.TenantRepository, planRepo repositories.PlanRepository) TenantService {
	return &tenantService{tenantRepo: tenantRepo, planRepo: planRepo}
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("tenant")
	}
	return tenant, nil
}

func (s *tenantService) Update(ctx context.Context, tenant *models.Tenant) error {
	return s.tenantRepo.Update(ctx, tenant)
}

func (s *tenantService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.tenantRepo.GetByID(ctx, id); err != nil {
		return apperrors.NotFound("tenant")
	}
	return s.tenantRepo.SetActive(ctx, id, active)
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	return s.tenantRepo.List(ctx, limit, offset)
}

func (s *tenantService) RequireActive(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("tenant")
	}
	if !tenant.IsActive {
		return nil, apperrors.New(apperrors.CodeTenantDisabled, "company account is disabled")
	}
	if tenant.Subscription.Status != models.SubscriptionActive {
		return nil, apperrors.New(apperrors.CodeSubscriptionInactive, "subscription is not active")
	}
	return tenant, nil
}

func (s *tenantService) IsWithinLimits(tenant *models.Tenant, limitType string, count int) bool {
	if count < 0 {
		return false
	}
	switch limitType {
	case models.LimitMonthlyVisitors:
		return tenant.Usage.CurrentMonthVisitors+count <= tenant.Limits.MonthlyVisitors
	case models.LimitEmployees:
		return tenant.Usage.TotalEmployees+count <= tenant.Limits.Employees
	case models.LimitStorageMB:
		return tenant.Usage.StorageUsedMB+count <= tenant.Limits.StorageMB
	default:
		// Fail closed on unknown limit types.
		return false
	}
}

func (s *tenantService) ConsumeLimit(ctx context.Context, id uuid.UUID, limitType string, count int) error {
	applied, err := s.tenantRepo.IncrementUsage(ctx, id, limitType, count)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to update usage", err)
	}
	if applied {
		return nil
	}

	// Conditional increment did not apply: report current usage and limit so
	// the client can render an upgrade prompt.
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return apperrors.NotFound("tenant")
	}
	var current, limit int
	switch limitType {
	case models.LimitMonthlyVisitors:
		current, limit = tenant.Usage.CurrentMonthVisitors, tenant.Limits.MonthlyVisitors
	case models.LimitEmployees:
		current, limit = tenant.Usage.TotalEmployees, tenant.Limits.Employees
	case models.LimitStorageMB:
		current, limit = tenant.Usage.StorageUsedMB, tenant.Limits.StorageMB
	}
	return apperrors.LimitExceeded(limitType, current, limit)
}

func (s *tenantService) ReleaseLimit(ctx context.Context, id uuid.UUID, limitType string, count int) error {
	return s.tenantRepo.DecrementUsage(ctx, id, limitType, count)
}

func (s *tenantService) ResetMonthlyUsage(ctx context.Context, id uuid.UUID, asOf time.Time) (bool, error) {
	return s.tenantRepo.ResetMonthlyUsage(ctx, id, asOf)
}

func (s *tenantService) ResetAllMonthlyUsage(ctx context.Context, asOf time.Time) error {
	tenants, err := s.tenantRepo.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, tenant := range tenants {
		reset, err := s.tenantRepo.ResetMonthlyUsage(ctx, tenant.ID, asOf)
		if err != nil {
			log.Printf("Failed to reset monthly usage for tenant %s: %v", tenant.ID, err)
			continue
		}
		if reset {
			log.Printf("Monthly visitor usage reset for tenant %s", tenant.ID)
		}
	}
	return nil
}

func (s *tenantService) Subscribe(ctx context.Context, tenantID, planID uuid.UUID, yearly bool) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, apperrors.NotFound("tenant")
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, apperrors.NotFound("plan")
	}
	if !plan.IsActive {
		return nil, apperrors.Validation("plan_id", "plan is no longer available")
	}

	now := time.Now()
	end := now.AddDate(0, 1, 0)
	if yearly {
		end = now.AddDate(1, 0, 0)
	}
	sub := &models.TenantSubscription{
		PlanID:    &plan.ID,
		Status:    models.SubscriptionActive,
		StartDate: &now,
		EndDate:   &end,
		AutoRenew: tenant.Subscription.AutoRenew,
	}
	if err := s.tenantRepo.UpdateSubscription(ctx, tenantID, sub, &plan.Limits); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to update subscription", err)
	}
	return s.tenantRepo.GetByID(ctx, tenantID)
}

func (s *tenantService) CancelSubscription(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return apperrors.NotFound("tenant")
	}
	sub := tenant.Subscription
	sub.Status = models.SubscriptionCancelled
	sub.AutoRenew = false
	return s.tenantRepo.UpdateSubscription(ctx, tenantID, &sub, &tenant.Limits)
}
