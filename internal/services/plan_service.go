package services

import (
	"context"

	"visitdesk/internal/apperrors"
	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"

	"github.com/google/uuid"
)

// PlanService manages the subscription plan catalog. Plan CRUD is
// superadmin-only; listing active plans is public so the pricing page can
// render without auth.
type PlanService interface {
	Create(ctx context.Context, caller common.Identity, plan *models.SubscriptionPlan) (*models.SubscriptionPlan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
	List(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error)
	Update(ctx context.Context, caller common.Identity, plan *models.SubscriptionPlan) (*models.SubscriptionPlan, error)
	Deactivate(ctx context.Context, caller common.Identity, id uuid.UUID) error
}

type planService struct {
	planRepo repositories.PlanRepository
}

func NewPlanService(planRepo repositories.PlanRepository) PlanService {
	return &planService{planRepo: planRepo}
}

func validatePlan(plan *models.SubscriptionPlan) error {
	if err := common.ValidateRequiredString(plan.Name, "name"); err != nil {
		return apperrors.Validation("name", err.Error())
	}
	if plan.MonthlyPrice < 0 || plan.YearlyPrice < 0 {
		return apperrors.Validation("price", "price cannot be negative")
	}
	if plan.Limits.MonthlyVisitors < 1 {
		return apperrors.Validation("limits.monthly_visitors", "must allow at least 1 visitor per month")
	}
	if plan.Limits.Employees < 1 {
		return apperrors.Validation("limits.employees", "must allow at least 1 employee")
	}
	return nil
}

func (s *planService) Create(ctx context.Context, caller common.Identity, plan *models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	if caller.Role != models.RoleSuperadmin {
		return nil, apperrors.New(apperrors.CodeAuthorization, "only the platform admin may manage plans")
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Currency == "" {
		plan.Currency = "USD"
	}
	plan.IsActive = true
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create plan", err)
	}
	return plan, nil
}

func (s *planService) GetByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("plan")
	}
	return plan, nil
}

func (s *planService) List(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error) {
	return s.planRepo.List(ctx, activeOnly)
}

func (s *planService) Update(ctx context.Context, caller common.Identity, plan *models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	if caller.Role != models.RoleSuperadmin {
		return nil, apperrors.New(apperrors.CodeAuthorization, "only the platform admin may manage plans")
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	if _, err := s.planRepo.GetByID(ctx, plan.ID); err != nil {
		return nil, apperrors.NotFound("plan")
	}
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to update plan", err)
	}
	return plan, nil
}

func (s *planService) Deactivate(ctx context.Context, caller common.Identity, id uuid.UUID) error {
	if caller.Role != models.RoleSuperadmin {
		return apperrors.New(apperrors.CodeAuthorization, "only the platform admin may manage plans")
	}
	if _, err := s.planRepo.GetByID(ctx, id); err != nil {
		return apperrors.NotFound("plan")
	}
	return s.planRepo.Deactivate(ctx, id)
}
