package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"visitdesk/internal/caching"
	"visitdesk/internal/jobs/background"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db        *pgxpool.Pool
	cacheSvc  caching.CacheService
	scheduler *background.JobScheduler
}

func NewHealthHandlers(db *pgxpool.Pool, cacheSvc caching.CacheService, scheduler *background.JobScheduler) *HealthHandlers {
	return &HealthHandlers{
		db:        db,
		cacheSvc:  cacheSvc,
		scheduler: scheduler,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
}

func (h *HealthHandlers) checkDatabase(ctx context.Context) error {
	_, err := h.db.Exec(ctx, "SELECT 1")
	return err
}

func (h *HealthHandlers) checkRedis(ctx context.Context) error {
	probe := "visitdesk:health:probe"
	if err := h.cacheSvc.SetString(ctx, probe, "ok", 10*time.Second); err != nil {
		return err
	}
	_, err := h.cacheSvc.GetString(ctx, probe)
	return err
}

// HealthCheck reports overall service health.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   "1.0.0",
	}

	if err := h.checkDatabase(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "degraded"
	} else {
		health.Services["database"] = "healthy"
	}

	if err := h.checkRedis(ctx); err != nil {
		health.Services["redis"] = "unhealthy"
		health.Status = "degraded"
	} else {
		health.Services["redis"] = "healthy"
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, health)
}

// ReadinessCheck determines if the application is ready to serve traffic.
// Only the database is critical; redis degrades gracefully.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	if err := h.checkDatabase(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Database unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// LivenessCheck is the basic liveness probe.
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck adds dependency latencies and background job status.
func (h *HealthHandlers) DetailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()

	checks := make(map[string]interface{})
	overall := "healthy"

	dbStart := time.Now()
	dbCheck := map[string]interface{}{"status": "healthy"}
	if err := h.checkDatabase(ctx); err != nil {
		dbCheck["status"] = "unhealthy"
		dbCheck["message"] = err.Error()
		overall = "degraded"
	}
	dbCheck["latency_ms"] = time.Since(dbStart).Milliseconds()
	checks["database"] = dbCheck

	redisStart := time.Now()
	redisCheck := map[string]interface{}{"status": "healthy"}
	if err := h.checkRedis(ctx); err != nil {
		redisCheck["status"] = "unhealthy"
		redisCheck["message"] = err.Error()
		overall = "degraded"
	}
	redisCheck["latency_ms"] = time.Since(redisStart).Milliseconds()
	checks["redis"] = redisCheck

	if h.scheduler != nil {
		checks["background_jobs"] = h.scheduler.GetJobStatus()
	}

	statusCode := http.StatusOK
	if overall == "degraded" {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, map[string]interface{}{
		"overall_status": overall,
		"checks":         checks,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"version":        "1.0.0",
		"goroutines":     runtime.NumGoroutine(),
	})
}
