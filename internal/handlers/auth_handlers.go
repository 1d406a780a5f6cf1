package handlers

import (
	"log"
	"net/http"
	"time"

	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"
	"visitdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	userRepo    repositories.UserRepository
	tenantRepo  repositories.TenantRepository
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, userRepo repositories.UserRepository, tenantRepo repositories.TenantRepository) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		userRepo:    userRepo,
		tenantRepo:  tenantRepo,
	}
}

// trialLimits is what a freshly registered company starts on before it
// subscribes to a plan.
var trialLimits = models.TenantLimits{
	MonthlyVisitors: 100,
	Employees:       10,
	Locations:       1,
	StorageMB:       256,
}

const trialDays = 14

// RegisterRequest creates a company together with its first admin account.
type RegisterRequest struct {
	CompanyName  string  `json:"company_name"`
	CompanyEmail string  `json:"company_email"`
	CompanyPhone *string `json:"company_phone"`
	AdminName    string  `json:"admin_name"`
	AdminEmail   string  `json:"admin_email"`
	Password     string  `json:"password"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	models.TokenResponse
	Company *models.Tenant `json:"company"`
	User    *models.User   `json:"user"`
}

// Register provisions a company and its first admin in one call.
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := common.ValidateRequiredString(req.CompanyName, "company_name"); err != nil {
		return common.SendValidationError(c, "company_name", err.Error())
	}
	if err := common.ValidateEmail(req.CompanyEmail, "company_email"); err != nil {
		return common.SendValidationError(c, "company_email", err.Error())
	}
	if err := common.ValidateRequiredString(req.AdminName, "admin_name"); err != nil {
		return common.SendValidationError(c, "admin_name", err.Error())
	}
	if err := common.ValidateEmail(req.AdminEmail, "admin_email"); err != nil {
		return common.SendValidationError(c, "admin_email", err.Error())
	}
	if len(req.Password) < 8 {
		return common.SendValidationError(c, "password", "password must be at least 8 characters")
	}

	if existing, err := h.tenantRepo.GetByEmail(ctx, req.CompanyEmail); err == nil && existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "A company with this email already exists")
	}
	if existing, err := h.userRepo.GetByEmail(ctx, req.AdminEmail); err == nil && existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "A user with this email already exists")
	}

	now := time.Now()
	trialEnd := now.AddDate(0, 0, trialDays)
	tenant := &models.Tenant{
		ID:       uuid.New(),
		Name:     req.CompanyName,
		Email:    req.CompanyEmail,
		Phone:    req.CompanyPhone,
		IsActive: true,
		Subscription: models.TenantSubscription{
			Status:    models.SubscriptionActive,
			StartDate: &now,
			EndDate:   &trialEnd,
		},
		Limits: trialLimits,
		Usage: models.TenantUsage{
			TotalEmployees: 1, // the admin being created below
			LastResetDate:  now,
		},
	}

	if err := h.tenantRepo.Create(ctx, tenant); err != nil {
		log.Printf("Failed to create tenant %s: %v", req.CompanyEmail, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create company")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     &tenant.ID,
		Email:        req.AdminEmail,
		PasswordHash: string(hashedPassword),
		Name:         req.AdminName,
		Role:         models.RoleCompanyAdmin,
		IsActive:     true,
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		log.Printf("Failed to create admin user %s for tenant %s: %v", user.Email, tenant.ID.String(), err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create admin user")
	}

	tokenResponse, err := h.authService.GenerateTokens(ctx, user.ID, user.TenantID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusCreated, RegisterResponse{
		TokenResponse: *tokenResponse,
		Company:       tenant,
		User:          user,
	})
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	models.TokenResponse
	User *models.User `json:"user"`
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if !user.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "Account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	tokenResponse, err := h.authService.GenerateTokens(ctx, user.ID, user.TenantID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, LoginResponse{
		TokenResponse: *tokenResponse,
		User:          user,
	})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token is required")
	}

	tokenResponse, err := h.authService.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
	}

	return c.JSON(http.StatusOK, tokenResponse)
}

// Logout revokes the caller's refresh token.
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := common.GetUserIDFromContext(ctx); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token is required")
	}

	if err := h.authService.RevokeToken(ctx, req.RefreshToken); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to revoke token")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me handles getting current user profile
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, user)
}
