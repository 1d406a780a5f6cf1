package handlers

import (
	"net/http"
	"strconv"

	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHandlers handles company account HTTP requests
type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// resolveTenantID picks the target company: superadmin may address any
// company by path param, everyone else is pinned to their own.
func resolveTenantID(c echo.Context) (uuid.UUID, error) {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)
	role, _ := common.GetRoleFromContext(ctx)

	if idStr := c.Param("id"); idStr != "" {
		id, err := common.ValidateUUID(idStr, "id")
		if err != nil {
			return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if role != models.RoleSuperadmin && id != tenantID {
			return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "Cannot access another company")
		}
		return id, nil
	}

	if tenantID == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Company id is required")
	}
	return tenantID, nil
}

// Get returns the company profile including limits and current usage.
func (h *TenantHandlers) Get(c echo.Context) error {
	tenantID, err := resolveTenantID(c)
	if err != nil {
		return err
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenantRequest patches company profile fields.
type UpdateTenantRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// Update patches the company profile. Limits and usage are not writable
// here; they move through subscriptions and the usage counters.
func (h *TenantHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := resolveTenantID(c)
	if err != nil {
		return err
	}

	var req UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	tenant, err := h.tenantService.GetByID(ctx, tenantID)
	if err != nil {
		return common.SendError(c, err)
	}

	if req.Name != nil {
		if err := common.ValidateRequiredString(*req.Name, "name"); err != nil {
			return common.SendValidationError(c, "name", err.Error())
		}
		tenant.Name = *req.Name
	}
	if req.Phone != nil {
		tenant.Phone = req.Phone
	}
	if req.Address != nil {
		tenant.Address = req.Address
	}

	if err := h.tenantService.Update(ctx, tenant); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// SubscribeRequest binds a company to a plan.
type SubscribeRequest struct {
	PlanID string `json:"plan_id"`
	Yearly bool   `json:"yearly"`
}

// Subscribe puts the company on a plan and copies the plan's limits onto it.
func (h *TenantHandlers) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := resolveTenantID(c)
	if err != nil {
		return err
	}

	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	planID, err := common.ValidateUUID(req.PlanID, "plan_id")
	if err != nil {
		return common.SendValidationError(c, "plan_id", err.Error())
	}

	tenant, err := h.tenantService.Subscribe(ctx, tenantID, planID, req.Yearly)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// CancelSubscription marks the subscription cancelled.
func (h *TenantHandlers) CancelSubscription(c echo.Context) error {
	tenantID, err := resolveTenantID(c)
	if err != nil {
		return err
	}

	if err := h.tenantService.CancelSubscription(c.Request().Context(), tenantID); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Subscription cancelled"})
}

// List returns all companies (superadmin only, enforced by route middleware).
func (h *TenantHandlers) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	tenants, err := h.tenantService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"companies": tenants,
		"limit":     limit,
		"offset":    offset,
	})
}

// SetActiveRequest enables or disables a company account.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive enables or disables a company (superadmin only).
func (h *TenantHandlers) SetActive(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req SetActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.tenantService.SetActive(c.Request().Context(), id, req.Active); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Company status updated"})
}
