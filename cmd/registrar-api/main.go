package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/openedu/registrar-api/api/swagger"
	"github.com/openedu/registrar-api/internal/handler"
	"github.com/openedu/registrar-api/internal/middleware"
	"github.com/openedu/registrar-api/internal/repository"
	"github.com/openedu/registrar-api/internal/service"
	"github.com/openedu/registrar-api/pkg/cache"
	"github.com/openedu/registrar-api/pkg/config"
	"github.com/openedu/registrar-api/pkg/database"
	"github.com/openedu/registrar-api/pkg/jobs"
	"github.com/openedu/registrar-api/pkg/logger"
	corsmiddleware "github.com/openedu/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openedu/registrar-api/pkg/middleware/requestid"
	"github.com/openedu/registrar-api/pkg/storage"
)

// @title Registrar API
// @version 1.0.0
// @description Program and course enrollment management service
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	// Repositories.
	programRepo := repository.NewProgramRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	jobRepo := repository.NewJobRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Programs.CacheTTL, logr, cfg.Programs.CacheEnabled)
	authService := service.NewAuthService(service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logr)
	programService := service.NewProgramService(programRepo, cacheService, cfg.Programs.CacheTTL, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, programService, metricsService, validator.New(), logr)
	exportService := service.NewExportService(enrollmentRepo, gradeRepo, fileStore, signer, service.ExportConfig{
		ResultTTL: cfg.Exports.ResultTTL,
	}, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var jobService *service.JobService
	queue := jobs.NewQueue("exports", func(ctx context.Context, task jobs.Task) error {
		return jobService.Handle(ctx, task)
	}, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	jobService = service.NewJobService(jobRepo, queue, exportService, programService, metricsService, service.JobConfig{
		MaxRetries:      cfg.Exports.WorkerRetries,
		StaleAge:        cfg.Jobs.StaleAge,
		ResultTTL:       cfg.Exports.ResultTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	}, logr)
	reportService := service.NewReportService(reportRepo, programRepo, enrollmentRepo, programService, fileStore, signer, logr)

	queue.Start(ctx)
	defer queue.Stop()

	if err := jobService.RecoverPendingJobs(ctx); err != nil {
		logr.Sugar().Warnw("failed to recover pending jobs", "error", err)
	}
	jobService.StartCleanup(ctx)
	if cfg.Jobs.WatchdogEnabled {
		jobService.StartWatchdog(ctx, cfg.Jobs.StaleAge/2)
	}
	if cfg.Reports.Enabled {
		reportService.StartGenerator(ctx, cfg.Reports.GenerationInterval)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:        handler.NewAuthHandler(cfg.Identity.LoginURL, cfg.Identity.LogoutURL),
		Programs:    handler.NewProgramHandler(programService),
		Enrollments: handler.NewEnrollmentHandler(enrollmentService, jobService),
		Jobs:        handler.NewJobHandler(jobService),
		Reports:     handler.NewReportHandler(reportService),
		Exports:     handler.NewExportHandler(exportService, jobService, reportService),
		Metrics:     handler.NewMetricsHandler(metricsService),
	}, authService)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
