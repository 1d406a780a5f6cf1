package services

import (
	"context"
	"log"

	"visitdesk/internal/apperrors"
	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CreateUserRequest carries admin-initiated user creation input.
type CreateUserRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Phone       *string `json:"phone"`
	Department  *string `json:"department"`
	Designation *string `json:"designation"`
}

// UpdateUserRequest patches profile fields; role changes are admin-only and
// enforced at the handler.
type UpdateUserRequest struct {
	Email       *string `json:"email"`
	Name        *string `json:"name"`
	Role        *string `json:"role"`
	Phone       *string `json:"phone"`
	Department  *string `json:"department"`
	Designation *string `json:"designation"`
	IsActive    *bool   `json:"is_active"`
}

type UserService interface {
	Create(ctx context.Context, caller common.Identity, req *CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)

	// CountActive reports how many enabled users the company has. This is the
	// number counted against the employee limit.
	CountActive(ctx context.Context, tenantID uuid.UUID) (int, error)
	Update(ctx context.Context, caller common.Identity, id uuid.UUID, req *UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, caller common.Identity, id uuid.UUID) error
}

type userService struct {
	userRepo  repositories.UserRepository
	tenantSvc TenantService
}

func NewUserService(userRepo repositories.UserRepository, tenantSvc TenantService) UserService {
	return &userService{userRepo: userRepo, tenantSvc: tenantSvc}
}

func (s *userService) Create(ctx context.Context, caller common.Identity, req *CreateUserRequest) (*models.User, error) {
	if caller.Role != models.RoleCompanyAdmin && caller.Role != models.RoleSuperadmin {
		return nil, apperrors.New(apperrors.CodeAuthorization, "only admins may create users")
	}
	if err := common.ValidateEmail(req.Email, "email"); err != nil {
		return nil, apperrors.Validation("email", err.Error())
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return nil, apperrors.Validation("name", err.Error())
	}
	if len(req.Password) < 6 {
		return nil, apperrors.Validation("password", "password must be at least 6 characters")
	}
	if !models.ValidRole(req.Role) || req.Role == models.RoleSuperadmin || req.Role == models.RoleVisitor {
		return nil, apperrors.Validation("role", "role must be company_admin, receptionist or employee")
	}

	if _, err := s.tenantSvc.RequireActive(ctx, caller.TenantID); err != nil {
		return nil, err
	}
	if err := s.tenantSvc.ConsumeLimit(ctx, caller.TenantID, models.LimitEmployees, 1); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to hash password", err)
	}

	tenantID := caller.TenantID
	user := &models.User{
		ID:           uuid.New(),
		TenantID:     &tenantID,
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		Phone:        req.Phone,
		Department:   req.Department,
		Designation:  req.Designation,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if relErr := s.tenantSvc.ReleaseLimit(ctx, caller.TenantID, models.LimitEmployees, 1); relErr != nil {
			log.Printf("Failed to release employee slot for tenant %s: %v", caller.TenantID, relErr)
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create user", err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("user")
	}
	if user.TenantID == nil || *user.TenantID != tenantID {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	return s.userRepo.List(ctx, tenantID, limit, offset)
}

func (s *userService) CountActive(ctx context.Context, tenantID uuid.UUID) (int, error) {
	count, err := s.userRepo.CountActive(ctx, tenantID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, "failed to count active users", err)
	}
	return count, nil
}

func (s *userService) Update(ctx context.Context, caller common.Identity, id uuid.UUID, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}

	isAdmin := caller.Role == models.RoleCompanyAdmin || caller.Role == models.RoleSuperadmin
	if !isAdmin && caller.UserID != user.ID {
		return nil, apperrors.New(apperrors.CodeAuthorization, "not allowed to update this user")
	}

	if req.Email != nil {
		if err := common.ValidateEmail(*req.Email, "email"); err != nil {
			return nil, apperrors.Validation("email", err.Error())
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !isAdmin {
			return nil, apperrors.New(apperrors.CodeAuthorization, "only admins may change roles")
		}
		if !models.ValidRole(*req.Role) || *req.Role == models.RoleSuperadmin || *req.Role == models.RoleVisitor {
			return nil, apperrors.Validation("role", "role must be company_admin, receptionist or employee")
		}
		user.Role = *req.Role
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Department != nil {
		user.Department = req.Department
	}
	if req.Designation != nil {
		user.Designation = req.Designation
	}
	if req.IsActive != nil {
		if !isAdmin {
			return nil, apperrors.New(apperrors.CodeAuthorization, "only admins may enable or disable users")
		}
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to update user", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, caller common.Identity, id uuid.UUID) error {
	if caller.Role != models.RoleCompanyAdmin && caller.Role != models.RoleSuperadmin {
		return apperrors.New(apperrors.CodeAuthorization, "only admins may delete users")
	}
	user, err := s.GetByID(ctx, caller.TenantID, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, caller.TenantID, user.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to delete user", err)
	}
	if user.IsActive {
		if err := s.tenantSvc.ReleaseLimit(ctx, caller.TenantID, models.LimitEmployees, 1); err != nil {
			log.Printf("Failed to release employee slot for tenant %s: %v", caller.TenantID, err)
		}
	}
	return nil
}
