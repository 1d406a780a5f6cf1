package background

import (
	"context"
	"log"
	"sync"
	"time"

	"visitdesk/internal/analytics"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"
	"visitdesk/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// noShowGrace is how long past the scheduled time a visitor may still
// arrive before the sweep marks them a no-show.
const noShowGrace = 4 * time.Hour

// JobScheduler manages the recurring background jobs: monthly usage
// resets, the scheduled-visitor no-show sweep, and analytics refresh.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	analyticsSvc *analytics.AnalyticsService
	tenantSvc    services.TenantService
	tenantRepo   repositories.TenantRepository
	visitorRepo  repositories.VisitorRepository
	visitLogRepo repositories.VisitLogRepository
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

func NewJobScheduler(analyticsSvc *analytics.AnalyticsService, tenantSvc services.TenantService,
	tenantRepo repositories.TenantRepository, visitorRepo repositories.VisitorRepository,
	visitLogRepo repositories.VisitLogRepository) *JobScheduler {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		analyticsSvc: analyticsSvc,
		tenantSvc:    tenantSvc,
		tenantRepo:   tenantRepo,
		visitorRepo:  visitorRepo,
		visitLogRepo: visitLogRepo,
		jobs:         make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Monthly usage reset - hourly check; the reset itself is guarded by
	// the month boundary in SQL so running often is harmless.
	resetJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.resetMonthlyUsage, context.Background()),
		gocron.WithName("monthly-usage-reset"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create usage reset job: %v", err)
	} else {
		js.jobs["usage-reset"] = resetJob
	}

	// No-show sweep - every 30 minutes
	noShowJob, err := js.scheduler.NewJob(
		gocron.DurationJob(30*time.Minute),
		gocron.NewTask(js.sweepNoShows, context.Background()),
		gocron.WithName("no-show-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create no-show sweep job: %v", err)
	} else {
		js.jobs["no-show-sweep"] = noShowJob
	}

	// Analytics refresh - every 5 minutes
	analyticsJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.refreshTenantAnalytics, context.Background()),
		gocron.WithName("tenant-analytics-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create analytics refresh job: %v", err)
	} else {
		js.jobs["analytics"] = analyticsJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

func (js *JobScheduler) resetMonthlyUsage(ctx context.Context) error {
	if err := js.tenantSvc.ResetAllMonthlyUsage(ctx, time.Now()); err != nil {
		log.Printf("Monthly usage reset failed: %v", err)
		return err
	}
	return nil
}

// sweepNoShows marks scheduled visitors as no-shows once their expected
// arrival is well past. Each transition is conditional so a visitor who
// checks in mid-sweep is left alone.
func (js *JobScheduler) sweepNoShows(ctx context.Context) error {
	tenants, err := js.tenantRepo.ListActive(ctx)
	if err != nil {
		log.Printf("Failed to list tenants for no-show sweep: %v", err)
		return err
	}

	cutoff := time.Now().Add(-noShowGrace)
	swept := 0

	for _, tenant := range tenants {
		overdue, err := js.visitorRepo.ListOverdueScheduled(ctx, tenant.ID, cutoff)
		if err != nil {
			log.Printf("Failed to list overdue visitors for tenant %s: %v", tenant.ID.String(), err)
			continue
		}

		for _, visitor := range overdue {
			applied, err := js.visitorRepo.MarkNoShow(ctx, tenant.ID, visitor.ID)
			if err != nil {
				log.Printf("Failed to mark visitor %s as no-show: %v", visitor.ID.String(), err)
				continue
			}
			if !applied {
				continue // checked in before the sweep got there
			}

			entry := &models.VisitLog{
				ID:        uuid.New(),
				VisitorID: visitor.ID,
				TenantID:  tenant.ID,
				HostID:    visitor.HostID,
				Action:    models.ActionNoShow,
				Details:   models.JSONB{"swept_at": time.Now().Format(time.RFC3339)},
				CreatedAt: time.Now(),
			}
			if err := js.visitLogRepo.Create(ctx, entry); err != nil {
				log.Printf("Failed to log no-show for visitor %s: %v", visitor.ID.String(), err)
			}
			swept++
		}
	}

	if swept > 0 {
		log.Printf("No-show sweep marked %d visitors", swept)
	}
	return nil
}

func (js *JobScheduler) refreshTenantAnalytics(ctx context.Context) error {
	tenants, err := js.tenantRepo.ListActive(ctx)
	if err != nil {
		log.Printf("Failed to list tenants for analytics refresh: %v", err)
		return err
	}

	semaphore := make(chan struct{}, 5)
	var wg sync.WaitGroup

	for _, tenant := range tenants {
		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := js.analyticsSvc.RefreshTenantSummary(ctx, tenantID); err != nil {
				log.Printf("Failed to refresh analytics for tenant %s: %v", tenantID.String(), err)
			}
		}(tenant.ID)
	}

	wg.Wait()
	return nil
}

// GetJobStatus reports the registered jobs for the detailed health check.
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
}
