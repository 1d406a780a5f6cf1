package handlers

import (
	"net/http"
	"strconv"
	"time"

	"visitdesk/internal/analytics"
	"visitdesk/internal/common"
	"visitdesk/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AnalyticsHandlers serves company dashboard aggregates
type AnalyticsHandlers struct {
	analyticsService *analytics.AnalyticsService
}

func NewAnalyticsHandlers(analyticsService *analytics.AnalyticsService) *AnalyticsHandlers {
	return &AnalyticsHandlers{analyticsService: analyticsService}
}

// analyticsScope resolves the target company and date range. Non-superadmin
// callers are pinned to their own company; the range defaults to the
// current month.
func analyticsScope(c echo.Context) (uuid.UUID, time.Time, time.Time, error) {
	ctx := c.Request().Context()
	tenantID, _ := common.GetTenantIDFromContext(ctx)
	role, _ := common.GetRoleFromContext(ctx)

	if companyStr := c.QueryParam("company_id"); companyStr != "" {
		id, err := common.ValidateUUID(companyStr, "company_id")
		if err != nil {
			return uuid.Nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if role != models.RoleSuperadmin && id != tenantID {
			return uuid.Nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusForbidden, "Cannot access another company's analytics")
		}
		tenantID = id
	}
	if tenantID == uuid.Nil {
		return uuid.Nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "company_id is required")
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now
	if fromStr := c.QueryParam("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return uuid.Nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "from must be RFC3339")
		}
		from = parsed
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return uuid.Nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "to must be RFC3339")
		}
		to = parsed
	}
	if to.Before(from) {
		return uuid.Nil, time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "to must not be before from")
	}

	return tenantID, from, to, nil
}

// Summary returns the headline dashboard numbers.
func (h *AnalyticsHandlers) Summary(c echo.Context) error {
	tenantID, from, to, err := analyticsScope(c)
	if err != nil {
		return err
	}

	summary, err := h.analyticsService.VisitorSummary(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute analytics")
	}
	return c.JSON(http.StatusOK, summary)
}

// ByDay returns daily visitor counts.
func (h *AnalyticsHandlers) ByDay(c echo.Context) error {
	tenantID, from, to, err := analyticsScope(c)
	if err != nil {
		return err
	}

	days, err := h.analyticsService.VisitorsByDay(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute analytics")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"days": days})
}

// ByHour returns visitor counts bucketed by hour of day.
func (h *AnalyticsHandlers) ByHour(c echo.Context) error {
	tenantID, from, to, err := analyticsScope(c)
	if err != nil {
		return err
	}

	hours, err := h.analyticsService.VisitorsByHour(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute analytics")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hours": hours})
}

// TopHosts returns the employees with the most visitors.
func (h *AnalyticsHandlers) TopHosts(c echo.Context) error {
	tenantID, from, to, err := analyticsScope(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	hosts, err := h.analyticsService.TopHosts(c.Request().Context(), tenantID, from, to, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute analytics")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hosts": hosts})
}

// RecentActivity returns the newest audit trail entries for the live feed.
func (h *AnalyticsHandlers) RecentActivity(c echo.Context) error {
	tenantID, _, _, err := analyticsScope(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	activity, err := h.analyticsService.RecentActivity(c.Request().Context(), tenantID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load recent activity")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"activity": activity})
}
