package handlers

import (
	"net/http"
	"strconv"
	"time"

	"visitdesk/internal/common"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"

	"github.com/labstack/echo/v4"
)

// VisitLogHandlers serves the append-only visit audit trail
type VisitLogHandlers struct {
	visitLogRepo repositories.VisitLogRepository
}

func NewVisitLogHandlers(visitLogRepo repositories.VisitLogRepository) *VisitLogHandlers {
	return &VisitLogHandlers{visitLogRepo: visitLogRepo}
}

// List returns visit log rows for the caller's company, filtered by
// visitor, host, action and date range.
func (h *VisitLogHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	filters := &models.VisitLogFilters{}
	if visitorStr := c.QueryParam("visitor_id"); visitorStr != "" {
		visitorID, err := common.ValidateUUID(visitorStr, "visitor_id")
		if err != nil {
			return common.SendValidationError(c, "visitor_id", err.Error())
		}
		filters.VisitorID = &visitorID
	}
	if hostStr := c.QueryParam("host_id"); hostStr != "" {
		hostID, err := common.ValidateUUID(hostStr, "host_id")
		if err != nil {
			return common.SendValidationError(c, "host_id", err.Error())
		}
		filters.HostID = &hostID
	}
	if action := c.QueryParam("action"); action != "" {
		filters.Action = &action
	}
	if fromStr := c.QueryParam("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return common.SendValidationError(c, "from", "must be RFC3339")
		}
		filters.StartDate = &from
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return common.SendValidationError(c, "to", "must be RFC3339")
		}
		filters.EndDate = &to
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	filters.Limit, filters.Offset = common.ValidatePaginationParams(limit, offset)

	logs, err := h.visitLogRepo.List(ctx, tenantID, filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load visit logs")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"limit":  filters.Limit,
		"offset": filters.Offset,
	})
}

// Get returns a single visit log entry.
func (h *VisitLogHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	entry, err := h.visitLogRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return common.SendNotFoundError(c, "visit log entry")
	}
	return c.JSON(http.StatusOK, entry)
}
