package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/smallsteps/kindergarten-api/api/swagger"
	"github.com/smallsteps/kindergarten-api/internal/generator"
	"github.com/smallsteps/kindergarten-api/internal/handler"
	authmiddleware "github.com/smallsteps/kindergarten-api/internal/middleware"
	"github.com/smallsteps/kindergarten-api/internal/models"
	"github.com/smallsteps/kindergarten-api/internal/repository"
	"github.com/smallsteps/kindergarten-api/internal/service"
	"github.com/smallsteps/kindergarten-api/pkg/cache"
	"github.com/smallsteps/kindergarten-api/pkg/config"
	"github.com/smallsteps/kindergarten-api/pkg/database"
	"github.com/smallsteps/kindergarten-api/pkg/logger"
	corsmiddleware "github.com/smallsteps/kindergarten-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smallsteps/kindergarten-api/pkg/middleware/requestid"
	"github.com/smallsteps/kindergarten-api/pkg/storage"
)

// @title Kindergarten Timetable API
// @version 0.1.0
// @description Weekly timetable composition, daily overrides and exports
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, schedule caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	classRepo := repository.NewClassRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	draftClient := generator.NewHTTPClient(generator.Config{
		BaseURL: cfg.Generator.BaseURL,
		APIKey:  cfg.Generator.APIKey,
		Model:   cfg.Generator.Model,
		Timeout: cfg.Generator.Timeout,
	}, logr)

	timetableSvc := service.NewTimetableService(classRepo, curriculumRepo, templateRepo, draftClient, cacheRepo, db, validate, logr, metricsSvc)
	scheduleSvc := service.NewScheduleService(classRepo, templateRepo, overrideRepo, cacheRepo, db, validate, logr, metricsSvc, cfg.Timetable.CacheTTL)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("exports storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(timetableSvc, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			Workers:   cfg.Exports.Workers,
			ResultTTL: cfg.Exports.ResultTTL,
		}, validate, logr, metricsSvc)
		exportSvc.Start(context.Background())
		defer exportSvc.Stop()
	}

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(authmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		status := gin.H{"status": "ready"}
		if err := db.Ping(); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authed := api.Group("", authmiddleware.JWT(cfg.JWT.Secret))
	admin := authed.Group("", authmiddleware.RBAC(models.RoleAdmin))

	authed.GET("/timetable/curriculum", timetableHandler.Curriculum)
	authed.GET("/timetable/fixed", timetableHandler.Fixed)
	authed.GET("/timetable/exists", timetableHandler.Exists)
	authed.GET("/timetable/template", timetableHandler.Template)
	admin.POST("/timetable/generate", timetableHandler.Generate)
	admin.POST("/timetable/save", timetableHandler.Save)

	authed.GET("/schedule/day", scheduleHandler.Day)
	authed.GET("/schedule/week", scheduleHandler.Week)
	admin.POST("/schedule/swap", scheduleHandler.Swap)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		authed.POST("/timetable/export", exportHandler.Create)
		authed.GET("/timetable/export/:jobId", exportHandler.Status)
		// Download authenticates via the signed token itself.
		api.GET("/export/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
