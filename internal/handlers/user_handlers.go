package handlers

import (
	"net/http"
	"strconv"

	"visitdesk/internal/common"
	"visitdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers handles staff account HTTP requests
type UserHandlers struct {
	userService services.UserService
}

func NewUserHandlers(userService services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// Create adds a staff member to the caller's company. Counts against the
// employee limit.
func (h *UserHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req services.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	user, err := h.userService.Create(ctx, caller, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Get returns one user in the caller's company.
func (h *UserHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	user, err := h.userService.GetByID(ctx, tenantID, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// List returns the company's users, paginated, along with the active head
// count that the employee limit is charged against.
func (h *UserHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	users, err := h.userService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	activeCount, err := h.userService.CountActive(ctx, tenantID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":        users,
		"active_count": activeCount,
		"limit":        limit,
		"offset":       offset,
	})
}

// Update patches a user. Role and active-state changes are admin-only and
// enforced in the service.
func (h *UserHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	user, err := h.userService.Update(ctx, caller, id, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// Delete removes a user and frees their employee slot.
func (h *UserHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.userService.Delete(ctx, caller, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
