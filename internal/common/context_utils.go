package common

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"visitdesk/internal/apperrors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	TenantIDKey contextKey = "tenant_id"
	RoleKey     contextKey = "role"
)

// Identity is the resolved caller threaded through every service call.
// Operations receive it explicitly instead of reaching into ambient state.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID // uuid.Nil for superadmin
	Role     string
}

// IdentityFromContext assembles the caller identity placed in the request
// context by the JWT middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok {
		return Identity{}, false
	}
	tenantID, _ := ctx.Value(TenantIDKey).(uuid.UUID)
	role, _ := ctx.Value(RoleKey).(string)
	return Identity{UserID: userID, TenantID: tenantID, Role: role}, true
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetTenantIDFromContext extracts the tenant ID from the request context
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok
}

// GetRoleFromContext extracts the caller role from the request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendError translates a service error into the standard envelope. Unknown
// errors are reported as a generic server error so internals never leak.
func SendError(c echo.Context, err error) error {
	status := apperrors.HTTPStatus(err)
	code := string(apperrors.CodeOf(err))
	message := "operation could not be completed"
	var details map[string]string
	if ae, ok := err.(*apperrors.Error); ok {
		message = ae.Message
		details = ae.Details
	} else if status != http.StatusInternalServerError {
		message = err.Error()
	}
	return c.JSON(status, CreateErrorResponse(strings.ToUpper(code), message, details))
}

// SendValidationError sends a field-level validation error response
func SendValidationError(c echo.Context, field, message string) error {
	return SendError(c, apperrors.Validation(field, message))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return SendError(c, apperrors.NotFound(resource))
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidateEmail validates email format
func ValidateEmail(email, fieldName string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%s has invalid email format", fieldName)
	}
	return nil
}

// ValidatePhone validates phone format (E.164-ish, digits with optional +)
func ValidatePhone(phone, fieldName string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if !phonePattern.MatchString(strings.ReplaceAll(phone, " ", "")) {
		return fmt.Errorf("%s has invalid phone format", fieldName)
	}
	return nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateUUID validates UUID path/query parameters
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s has invalid UUID format", fieldName)
	}
	return id, nil
}

// ValidatePaginationParams clamps pagination parameters to safe bounds
func ValidatePaginationParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// SafeString safely dereferences string pointers
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
