package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"visitdesk/internal/analytics"
	"visitdesk/internal/caching"
	"visitdesk/internal/handlers"
	"visitdesk/internal/jobs/background"
	"visitdesk/internal/middleware"
	"visitdesk/internal/models"
	"visitdesk/internal/repositories"
	"visitdesk/internal/services"
	"visitdesk/pkg/database"
)

const version = "1.0.0"

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	maxConns := int32(0)
	if s := os.Getenv("DATABASE_MAX_CONNS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			maxConns = int32(n)
		}
	}

	pool, err := database.NewPool(databaseURL, maxConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: JWT_SECRET not set, using a generated secret; tokens will not survive restarts")
	}
	jwksURL := os.Getenv("JWKS_URL")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if db, err := strconv.Atoi(s); err == nil {
			redisDB = db
		}
	}

	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	minioUseSSL := os.Getenv("MINIO_USE_SSL") == "true"

	documentSvc, err := services.NewDocumentService(minioEndpoint, minioAccessKey, minioSecretKey, minioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize document storage: %v", err)
	}
	for _, bucket := range []string{"visitor-documents", "visitor-badges"} {
		if err := documentSvc.EnsureBucketExists(context.Background(), bucket); err != nil {
			log.Printf("WARN: Could not ensure bucket %s: %v", bucket, err)
		}
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	visitorRepo := repositories.NewVisitorRepo(pool)
	visitLogRepo := repositories.NewVisitLogRepo(pool)
	planRepo := repositories.NewPlanRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)

	// Cache
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Services
	tenantSvc := services.NewTenantService(tenantRepo, planRepo)
	notifySvc := services.NewNotificationService(os.Getenv("NOTIFY_WEBHOOK_URL"), notificationRepo)
	visitorSvc := services.NewVisitorService(visitorRepo, visitLogRepo, userRepo, tenantSvc, notifySvc, cacheSvc)
	userSvc := services.NewUserService(userRepo, tenantSvc)
	planSvc := services.NewPlanService(planRepo)
	badgeSvc := services.NewBadgeService(visitorRepo, visitLogRepo, tenantRepo, planRepo, documentSvc)
	authSvc := services.NewAuthService(cacheSvc, jwtSecret, 3600, 7*24*3600)
	analyticsSvc := analytics.NewAnalyticsService(visitorRepo, visitLogRepo, cacheSvc)

	// Background jobs
	scheduler := background.NewJobScheduler(analyticsSvc, tenantSvc, tenantRepo, visitorRepo, visitLogRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, userRepo, tenantRepo)
	visitorHandlers := handlers.NewVisitorHandlers(visitorSvc, badgeSvc, documentSvc, visitorRepo, visitLogRepo)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc)
	userHandlers := handlers.NewUserHandlers(userSvc)
	planHandlers := handlers.NewPlanHandlers(planSvc)
	visitLogHandlers := handlers.NewVisitLogHandlers(visitLogRepo)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, scheduler)

	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealthCheck)

	v1 := e.Group("/v1")

	// Authentication routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	// Public plan catalog (pricing page)
	v1.GET("/plans", planHandlers.List)
	v1.GET("/plans/:id", planHandlers.Get)

	// Lobby kiosk routes: no auth, rate limited per IP
	kiosk := v1.Group("/kiosk")
	kiosk.Use(middleware.KioskRateLimit(cacheSvc, 30, time.Minute))
	kiosk.POST("/visitors", visitorHandlers.Create)
	kiosk.POST("/checkout", visitorHandlers.KioskCheckout)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret, jwksURL)))

	protected.GET("/me", authHandlers.Me)
	protected.POST("/auth/logout", authHandlers.Logout)

	// Visitor lifecycle
	protected.POST("/visitors", visitorHandlers.Create)
	protected.GET("/visitors", visitorHandlers.List)
	protected.GET("/visitors/:id", visitorHandlers.Get)
	protected.PUT("/visitors/:id", visitorHandlers.Update)
	protected.DELETE("/visitors/:id", visitorHandlers.Delete)
	protected.PUT("/visitors/:id/approval", visitorHandlers.Decide)
	protected.POST("/visitors/:id/checkout", visitorHandlers.Checkout)
	protected.PUT("/visitors/:id/no-show", visitorHandlers.MarkNoShow)
	protected.POST("/visitors/:id/badge", visitorHandlers.PrintBadge)
	protected.POST("/visitors/:id/documents", visitorHandlers.UploadDocument)
	protected.GET("/visitors/:id/history", visitorHandlers.History)

	// Staff management
	staff := protected.Group("/users", middleware.RequireAdmin())
	staff.POST("", userHandlers.Create)
	staff.PUT("/:id", userHandlers.Update)
	staff.DELETE("/:id", userHandlers.Delete)
	protected.GET("/users", userHandlers.List)
	protected.GET("/users/:id", userHandlers.Get)

	// Company account
	protected.GET("/company", tenantHandlers.Get)
	protected.PUT("/company", tenantHandlers.Update, middleware.RequireAdmin())
	protected.POST("/company/subscribe", tenantHandlers.Subscribe, middleware.RequireAdmin())
	protected.POST("/company/cancel-subscription", tenantHandlers.CancelSubscription, middleware.RequireAdmin())

	// Platform administration
	admin := protected.Group("/admin", middleware.RequireRole(models.RoleSuperadmin))
	admin.GET("/companies", tenantHandlers.List)
	admin.GET("/companies/:id", tenantHandlers.Get)
	admin.PUT("/companies/:id/active", tenantHandlers.SetActive)
	admin.POST("/plans", planHandlers.Create)
	admin.PUT("/plans/:id", planHandlers.Update)
	admin.DELETE("/plans/:id", planHandlers.Deactivate)

	// Audit trail and analytics
	protected.GET("/visit-logs", visitLogHandlers.List, middleware.RequireStaff())
	protected.GET("/visit-logs/:id", visitLogHandlers.Get, middleware.RequireStaff())
	protected.GET("/analytics/summary", analyticsHandlers.Summary)
	protected.GET("/analytics/by-day", analyticsHandlers.ByDay)
	protected.GET("/analytics/by-hour", analyticsHandlers.ByHour)
	protected.GET("/analytics/top-hosts", analyticsHandlers.TopHosts)
	protected.GET("/analytics/recent", analyticsHandlers.RecentActivity)

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Visitdesk server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
