package handlers

import (
	"net/http"

	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// PlanHandlers handles subscription plan catalog HTTP requests
type PlanHandlers struct {
	planService services.PlanService
}

func NewPlanHandlers(planService services.PlanService) *PlanHandlers {
	return &PlanHandlers{planService: planService}
}

// List returns the plan catalog. Authenticated non-superadmin callers only
// see active plans.
func (h *PlanHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	activeOnly := true
	if role, ok := common.GetRoleFromContext(ctx); ok && role == models.RoleSuperadmin {
		activeOnly = c.QueryParam("include_inactive") != "true"
	}

	plans, err := h.planService.List(ctx, activeOnly)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"plans": plans})
}

// Get returns one plan.
func (h *PlanHandlers) Get(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	plan, err := h.planService.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

// Create adds a plan to the catalog (superadmin only).
func (h *PlanHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var plan models.SubscriptionPlan
	if err := c.Bind(&plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	created, err := h.planService.Create(ctx, caller, &plan)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update modifies a plan (superadmin only). Companies already subscribed
// keep the limits copied at subscribe time.
func (h *PlanHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var plan models.SubscriptionPlan
	if err := c.Bind(&plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	plan.ID = id

	updated, err := h.planService.Update(ctx, caller, &plan)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Deactivate retires a plan from the catalog (superadmin only).
func (h *PlanHandlers) Deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	caller, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.planService.Deactivate(ctx, caller, id); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Plan deactivated"})
}
