package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"rentgrid/internal/caching"
	"rentgrid/internal/handlers"
	"rentgrid/internal/jobs/background"
	"rentgrid/internal/middleware"
	"rentgrid/internal/models"
	"rentgrid/internal/probe"
	"rentgrid/internal/push"
	"rentgrid/internal/repositories"
	"rentgrid/internal/services"
	"rentgrid/pkg/database"

	"github.com/labstack/echo/v4"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default Redis address
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDBStr := os.Getenv("REDIS_DB")
	redisDB := 0 // Default DB
	if redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration for audit log archival
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000" // Default MinIO endpoint
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"
	auditBucket := os.Getenv("AUDIT_ARCHIVE_BUCKET")
	if auditBucket == "" {
		auditBucket = "rentgrid-audit-archive"
	}

	retentionDays := 90
	if retentionStr := os.Getenv("AUDIT_RETENTION_DAYS"); retentionStr != "" {
		if days, err := strconv.Atoi(retentionStr); err == nil && days > 0 {
			retentionDays = days
		}
	}

	// Create repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	configRepo := repositories.NewTenantConfigRepo(pool)
	instanceRepo := repositories.NewServiceInstanceRepo(pool)
	auditLogsRepo := repositories.NewAuditLogsRepo(pool)
	userRepo := repositories.NewPlatformUserRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Object store for audit archives
	objectStore, err := services.NewMinioStore(minioEndpoint, minioAccessKey, minioSecretKey, useSSL, auditBucket)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}
	if err := objectStore.EnsureBucketExists(context.Background()); err != nil {
		log.Printf("WARNING: Audit archive bucket unavailable: %v", err)
	}

	// Probe client shared by discovery, health checks, and direct delivery
	probeClient := probe.NewClient(probe.DefaultTimeout)

	// Push hub for connected tenant instances
	hub := push.NewHub()

	// Create services
	auditSvc := services.NewAuditLogsService(auditLogsRepo)
	syncSvc := services.NewConfigSyncService(hub, tenantRepo, configRepo, instanceRepo, probeClient, cacheSvc)
	configSvc := services.NewConfigService(configRepo, auditSvc, syncSvc)
	tenantSvc := services.NewTenantService(tenantRepo, configRepo, auditSvc, cacheSvc)
	discoverySvc := services.NewDiscoveryService(tenantRepo, instanceRepo, auditSvc, probeClient)
	healthSvc := services.NewHealthService(instanceRepo, auditSvc, probeClient)
	authSvc := services.NewAuthService(userRepo, jwtSecret, 15*time.Minute, 7*24*time.Hour)
	statsSvc := services.NewStatsService(tenantRepo, instanceRepo, userRepo, hub, cacheSvc)
	archiveSvc := services.NewArchiveService(auditLogsRepo, objectStore, time.Duration(retentionDays)*24*time.Hour)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc, discoverySvc, cacheSvc)
	configHandlers := handlers.NewConfigHandlers(configSvc, syncSvc, auditSvc)
	serviceHandlers := handlers.NewServiceHandlers(instanceRepo, healthSvc)
	auditHandlers := handlers.NewAuditLogsHandlers(auditSvc)
	platformHandlers := handlers.NewPlatformHandlers(statsSvc, syncSvc)
	pushHandlers := handlers.NewPushHandlers(hub, tenantSvc, configSvc, syncSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background jobs: discovery scans, health checks, audit archival
	scheduler := background.NewJobScheduler(discoverySvc, healthSvc, archiveSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.Health)
	e.GET("/health/ready", healthHandlers.Ready)

	// Tenant push channel (identified by slug, no platform JWT)
	e.GET("/ws/tenants/:slug", pushHandlers.Connect)

	// API routes
	v1 := e.Group("/v1")

	// Authentication routes (no JWT required for login/refresh)
	auth := v1.Group("/auth")
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	// Protected routes (require JWT)
	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(jwtSecret))

	protected.GET("/me", authHandlers.Me)

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	operatorOrAbove := middleware.RequireRole(models.RoleAdmin, models.RoleOperator)

	// Tenant routes
	protected.GET("/tenants", tenantHandlers.ListTenants)
	protected.GET("/tenants/:id", tenantHandlers.GetTenant)
	protected.POST("/tenants", tenantHandlers.CreateTenant, operatorOrAbove)
	protected.PUT("/tenants/:id", tenantHandlers.UpdateTenant, operatorOrAbove)
	protected.DELETE("/tenants/:id", tenantHandlers.DeleteTenant, adminOnly)
	protected.POST("/tenants/:id/discover", tenantHandlers.DiscoverTenant, operatorOrAbove)

	// Configuration routes
	protected.GET("/tenants/:id/config", configHandlers.GetConfig)
	protected.PUT("/tenants/:id/config", configHandlers.UpdateConfig, operatorOrAbove)
	protected.POST("/tenants/:id/config/sync", configHandlers.SyncConfig, operatorOrAbove)
	protected.POST("/config/sync-all", configHandlers.SyncAll, adminOnly)

	// Service instance routes
	protected.GET("/services", serviceHandlers.ListServices)
	protected.GET("/services/summary", serviceHandlers.HealthSummary)
	protected.GET("/services/:id", serviceHandlers.GetService)
	protected.PUT("/services/:id", serviceHandlers.UpdateService, operatorOrAbove)
	protected.POST("/services/:id/health", serviceHandlers.CheckService, operatorOrAbove)

	// Audit log routes
	protected.GET("/audit-logs", auditHandlers.ListAuditLogs)
	protected.GET("/audit-logs/:id", auditHandlers.GetAuditLog)

	// Platform routes
	protected.GET("/platform/stats", platformHandlers.GetStats)
	protected.POST("/platform/broadcast", platformHandlers.Broadcast, adminOnly)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Rentgrid control plane v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
