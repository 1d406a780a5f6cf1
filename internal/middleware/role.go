package middleware

import (
	"net/http"

	"visitdesk/internal/common"
	"visitdesk/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects requests whose caller role is not in the allowed set.
// Superadmin passes every gate.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := common.GetRoleFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing role")
			}
			if role == models.RoleSuperadmin || allowed[role] {
				return next(c)
			}
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse(
				"AUTHORIZATION", "insufficient permissions for this operation", nil))
		}
	}
}

// RequireAdmin restricts routes to company admins (and superadmin).
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleCompanyAdmin)
}

// RequireStaff restricts routes to company admins and receptionists.
func RequireStaff() echo.MiddlewareFunc {
	return RequireRole(models.RoleCompanyAdmin, models.RoleReceptionist)
}
