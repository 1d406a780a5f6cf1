package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"visitdesk/internal/caching"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"

	"github.com/google/uuid"
)

// AnalyticsService calculates and caches per-company visit analytics.
type AnalyticsService struct {
	visitorRepo  repositories.VisitorRepository
	visitLogRepo repositories.VisitLogRepository
	cacheService caching.CacheService
}

// VisitSummary is the cached headline view for a company's date range.
type VisitSummary struct {
	TenantID        uuid.UUID             `json:"company_id"`
	From            time.Time             `json:"from"`
	To              time.Time             `json:"to"`
	TotalVisitors   int                   `json:"total_visitors"`
	StatusCounts    []*models.StatusCount `json:"status_counts"`
	AvgDurationMins float64               `json:"avg_duration_minutes"`
	PeakHour        int                   `json:"peak_hour"`
	LastUpdated     time.Time             `json:"last_updated"`
}

// summaryCacheTTL keeps dashboards fresh enough without hammering the
// aggregate queries. The background refresher repopulates warm tenants.
const summaryCacheTTL = 5 * time.Minute

func NewAnalyticsService(visitorRepo repositories.VisitorRepository, visitLogRepo repositories.VisitLogRepository, cacheService caching.CacheService) *AnalyticsService {
	return &AnalyticsService{
		visitorRepo:  visitorRepo,
		visitLogRepo: visitLogRepo,
		cacheService: cacheService,
	}
}

func summaryKey(from, to time.Time) string {
	return fmt.Sprintf("summary:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// VisitorSummary returns the headline numbers for a company over a date
// range, served from cache when possible. Partial aggregate failures are
// logged and the summary is returned with what could be computed.
func (a *AnalyticsService) VisitorSummary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*VisitSummary, error) {
	if cached, err := a.cacheService.GetTenantAnalytics(ctx, tenantID, summaryKey(from, to)); err == nil && cached != nil {
		if summary := summaryFromCache(tenantID, cached); summary != nil {
			return summary, nil
		}
	}

	summary, err := a.computeSummary(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	if err := a.cacheService.SetTenantAnalytics(ctx, tenantID, summaryKey(from, to), summary.toCacheMap(), summaryCacheTTL); err != nil {
		log.Printf("Failed to cache visit summary for tenant %s: %v", tenantID.String(), err)
	}

	return summary, nil
}

func (a *AnalyticsService) computeSummary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*VisitSummary, error) {
	summary := &VisitSummary{
		TenantID:    tenantID,
		From:        from,
		To:          to,
		LastUpdated: time.Now(),
	}

	statusCounts, err := a.visitorRepo.StatusCounts(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	summary.StatusCounts = statusCounts
	for _, sc := range statusCounts {
		summary.TotalVisitors += sc.Count
	}

	avg, err := a.visitLogRepo.AverageDuration(ctx, tenantID, from, to)
	if err != nil {
		log.Printf("Failed to compute average duration for tenant %s: %v", tenantID.String(), err)
	} else {
		summary.AvgDurationMins = avg
	}

	peak, err := a.PeakHour(ctx, tenantID, from, to)
	if err != nil {
		log.Printf("Failed to compute peak hour for tenant %s: %v", tenantID.String(), err)
		peak = -1
	}
	summary.PeakHour = peak

	return summary, nil
}

// VisitorsByDay returns daily check-in counts for charting.
func (a *AnalyticsService) VisitorsByDay(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DayCount, error) {
	return a.visitorRepo.CountByDay(ctx, tenantID, from, to)
}

// VisitorsByHour returns check-in counts bucketed by hour of day.
func (a *AnalyticsService) VisitorsByHour(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.HourCount, error) {
	return a.visitorRepo.CountByHour(ctx, tenantID, from, to)
}

// PeakHour returns the hour of day (0-23) with the most check-ins, or -1
// when there is no check-in data in the range.
func (a *AnalyticsService) PeakHour(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, error) {
	hours, err := a.visitorRepo.CountByHour(ctx, tenantID, from, to)
	if err != nil {
		return -1, err
	}

	peak := -1
	best := 0
	for _, h := range hours {
		if h.Count > best {
			best = h.Count
			peak = h.Hour
		}
	}
	return peak, nil
}

// TopHosts returns the employees who received the most visitors.
func (a *AnalyticsService) TopHosts(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.HostCount, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return a.visitorRepo.TopHosts(ctx, tenantID, from, to, limit)
}

// RecentActivity returns the newest visit log entries for the live feed.
func (a *AnalyticsService) RecentActivity(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.VisitLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return a.visitLogRepo.RecentActivity(ctx, tenantID, limit)
}

// RefreshTenantSummary recomputes and re-caches the current-month summary.
// Called by the background refresher so dashboards stay warm.
func (a *AnalyticsService) RefreshTenantSummary(ctx context.Context, tenantID uuid.UUID) error {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	summary, err := a.computeSummary(ctx, tenantID, from, now)
	if err != nil {
		return err
	}
	return a.cacheService.SetTenantAnalytics(ctx, tenantID, summaryKey(from, now), summary.toCacheMap(), summaryCacheTTL)
}

// InvalidateTenantAnalytics drops all cached analytics for a company.
func (a *AnalyticsService) InvalidateTenantAnalytics(ctx context.Context, tenantID uuid.UUID) error {
	return a.cacheService.InvalidateTenantCache(ctx, tenantID)
}

func (s *VisitSummary) toCacheMap() map[string]interface{} {
	statuses := make([]interface{}, 0, len(s.StatusCounts))
	for _, sc := range s.StatusCounts {
		statuses = append(statuses, map[string]interface{}{
			"status": sc.Status,
			"count":  sc.Count,
		})
	}
	return map[string]interface{}{
		"company_id":           s.TenantID.String(),
		"from":                 s.From.Format(time.RFC3339),
		"to":                   s.To.Format(time.RFC3339),
		"total_visitors":       s.TotalVisitors,
		"status_counts":        statuses,
		"avg_duration_minutes": s.AvgDurationMins,
		"peak_hour":            s.PeakHour,
		"last_updated":         s.LastUpdated.Format(time.RFC3339),
	}
}

// summaryFromCache rebuilds a VisitSummary from the generic cache map.
// Returns nil when the cached shape is unusable so callers recompute.
func summaryFromCache(tenantID uuid.UUID, data map[string]interface{}) *VisitSummary {
	summary := &VisitSummary{TenantID: tenantID}

	fromStr, ok := data["from"].(string)
	if !ok {
		return nil
	}
	toStr, ok := data["to"].(string)
	if !ok {
		return nil
	}
	var err error
	if summary.From, err = time.Parse(time.RFC3339, fromStr); err != nil {
		return nil
	}
	if summary.To, err = time.Parse(time.RFC3339, toStr); err != nil {
		return nil
	}

	if total, ok := data["total_visitors"].(float64); ok {
		summary.TotalVisitors = int(total)
	}
	if avg, ok := data["avg_duration_minutes"].(float64); ok {
		summary.AvgDurationMins = avg
	}
	if peak, ok := data["peak_hour"].(float64); ok {
		summary.PeakHour = int(peak)
	}
	if updated, ok := data["last_updated"].(string); ok {
		summary.LastUpdated, _ = time.Parse(time.RFC3339, updated)
	}

	if rows, ok := data["status_counts"].([]interface{}); ok {
		for _, row := range rows {
			entry, ok := row.(map[string]interface{})
			if !ok {
				continue
			}
			status, _ := entry["status"].(string)
			count, _ := entry["count"].(float64)
			summary.StatusCounts = append(summary.StatusCounts, &models.StatusCount{
				Status: status,
				Count:  int(count),
			})
		}
	}

	return summary
}
