package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/stencilmail/stencil-api/api/swagger"
	"github.com/stencilmail/stencil-api/internal/handler"
	"github.com/stencilmail/stencil-api/internal/middleware"
	"github.com/stencilmail/stencil-api/internal/provider"
	"github.com/stencilmail/stencil-api/internal/repository"
	"github.com/stencilmail/stencil-api/internal/scheduler"
	"github.com/stencilmail/stencil-api/internal/service"
	"github.com/stencilmail/stencil-api/pkg/cache"
	"github.com/stencilmail/stencil-api/pkg/config"
	"github.com/stencilmail/stencil-api/pkg/database"
	"github.com/stencilmail/stencil-api/pkg/export"
	"github.com/stencilmail/stencil-api/pkg/logger"
	corsmiddleware "github.com/stencilmail/stencil-api/pkg/middleware/cors"
	reqidmiddleware "github.com/stencilmail/stencil-api/pkg/middleware/requestid"
)

// @title Stencil API
// @version 1.0.0
// @description Audit trail engine for transactional email template management
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, settings cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	settingsRepo := repository.NewSettingsRepository(db)
	logRepo := repository.NewAuditLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	settingsSvc := service.NewSettingsService(settingsRepo, cacheRepo, validate, logr, service.SettingsServiceConfig{
		CacheTTL: cfg.Audit.SettingsCacheTTL,
	})
	recorderSvc := service.NewRecorderService(settingsSvc, logRepo, metricsSvc, logr)
	logSvc := service.NewAuditLogService(logRepo, cfg.Export.MaxRows, logr)
	retentionSvc := service.NewRetentionService(settingsSvc, logRepo, metricsSvc, logr)
	confirmationSvc := service.NewConfirmationService(cfg.Wipe)

	providerClient := provider.NewClient(cfg.Provider)
	templateSvc := service.NewTemplateService(providerClient, recorderSvc, cfg.Provider, cfg.Audit, logr)
	templateSvc.Start(context.Background())
	defer templateSvc.Stop()

	if cfg.Cleanup.Enabled {
		sweep := scheduler.NewRetentionScheduler(settingsRepo, retentionSvc, cfg.Cleanup, logr)
		if err := sweep.Start(); err != nil {
			logr.Sugar().Fatalw("failed to start retention scheduler", "error", err)
		}
		defer sweep.Stop()
	}

	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	logHandler := handler.NewAuditLogHandler(logSvc, export.NewCSVExporter(), export.NewPDFExporter(), validate)
	cleanupHandler := handler.NewCleanupHandler(retentionSvc, confirmationSvc)
	templateHandler := handler.NewTemplateHandler(templateSvc, logSvc, validate)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.APIKey())
	{
		api.GET("/audit-settings", settingsHandler.Get)
		api.PUT("/audit-settings", settingsHandler.Update)

		api.GET("/audit-logs", logHandler.List)
		api.GET("/audit-logs/search", logHandler.Search)
		api.GET("/audit-logs/export", logHandler.Export)
		api.GET("/audit-logs/entity/:name", logHandler.History)
		api.GET("/audit-logs/:id", logHandler.Get)
		api.POST("/audit-logs/:id/restore", templateHandler.Restore)

		api.POST("/audit-logs/cleanup/confirm", cleanupHandler.Confirm)
		api.POST("/audit-logs/cleanup", cleanupHandler.Cleanup)

		api.GET("/templates", templateHandler.List)
		api.POST("/templates", templateHandler.Create)
		api.POST("/templates/import", templateHandler.Import)
		api.GET("/templates/:name", templateHandler.Get)
		api.PUT("/templates/:name", templateHandler.Update)
		api.DELETE("/templates/:name", templateHandler.Delete)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
