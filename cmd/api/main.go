package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-metrics-api/api/swagger"
	"github.com/noah-isme/academic-metrics-api/internal/handler"
	"github.com/noah-isme/academic-metrics-api/internal/middleware"
	"github.com/noah-isme/academic-metrics-api/internal/period"
	"github.com/noah-isme/academic-metrics-api/internal/repository"
	"github.com/noah-isme/academic-metrics-api/internal/service"
	"github.com/noah-isme/academic-metrics-api/pkg/cache"
	"github.com/noah-isme/academic-metrics-api/pkg/config"
	"github.com/noah-isme/academic-metrics-api/pkg/database"
	"github.com/noah-isme/academic-metrics-api/pkg/jobs"
	"github.com/noah-isme/academic-metrics-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-metrics-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-metrics-api/pkg/middleware/requestid"
	"github.com/noah-isme/academic-metrics-api/pkg/storage"
)

// @title Academic Metrics API
// @version 1.0.0
// @description Period-based academic metrics aggregation and GPA calculation service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	weekStart, err := period.ParseWeekStart(cfg.Metrics.DefaultWeekStart)
	if err != nil {
		logr.Sugar().Warnw("invalid DEFAULT_WEEK_START, using sunday", "error", err)
	}

	instrumentation := service.NewInstrumentationService()

	var cacheService *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, instrumentation, cfg.Cache.TTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	termRepo := repository.NewTermRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	gpaSnapshotRepo := repository.NewGPASnapshotRepository(db)
	changeLogRepo := repository.NewChangeLogRepository(db)

	metricsService := service.NewPeriodMetricsService(assignmentRepo, courseRepo, summaryRepo,
		cacheService, instrumentation, weekStart, nil, logr)
	gpaService := service.NewGPAService(userRepo, courseRepo, assignmentRepo,
		gpaSnapshotRepo, changeLogRepo, instrumentation, cfg.Metrics.GPAEpsilon, logr)
	termService := service.NewTermService(termRepo, courseRepo, userRepo, changeLogRepo, gpaService, logr)
	userMetricsService := service.NewUserMetricsService(userRepo, changeLogRepo, cfg.Metrics.GPAEpsilon, nil, logr)

	reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
	}
	reportSigner := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportService := service.NewReportService(metricsService, gpaService, reportStorage, reportSigner, logr)

	recalcQueue := jobs.NewQueue("metrics-recalculation", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(handler.RecalculationPayload)
		if !ok {
			raw, err := json.Marshal(job.Payload)
			if err != nil {
				return fmt.Errorf("unexpected payload type %T", job.Payload)
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
		}
		results, err := metricsService.CalculateAll(ctx, payload.UserID, payload.WeekStartDay)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if r.Error != "" {
				failed++
			}
		}
		logr.Sugar().Infow("batch recalculation finished",
			"job_id", job.ID, "user_id", payload.UserID, "snapshots", len(results), "failed", failed)
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	recalcQueue.Start(ctx)
	defer recalcQueue.Stop()

	// Stored report files outlive their signed URLs by at most one
	// sweep interval.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := reportStorage.CleanupOlderThan(cfg.Reports.SignedURLTTL)
				if err != nil {
					logr.Warn("report cleanup failed", zap.Error(err))
				} else if len(removed) > 0 {
					logr.Info("expired reports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()

	identity := handler.NewIdentityResolver(userRepo)
	metricsHandler := handler.NewMetricsHandler(metricsService, identity, recalcQueue)
	gpaHandler := handler.NewGPAHandler(gpaService, identity)
	userHandler := handler.NewUserHandler(userMetricsService, identity)
	termHandler := handler.NewTermHandler(termService, identity)
	reportHandler := handler.NewReportHandler(reportService, identity)
	systemHandler := handler.NewSystemHandler(instrumentation)

	verifier := middleware.NewTokenVerifier(cfg.JWT.Secret)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(instrumentation))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics-prom", gin.WrapH(instrumentation.Handler()))

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		metrics := api.Group("/metrics", middleware.OptionalJWT(verifier))
		{
			metrics.GET("", metricsHandler.List)
			metrics.GET("/summary", metricsHandler.Summary)
			metrics.POST("/calculate", metricsHandler.Calculate)
			metrics.POST("/calculate-all", metricsHandler.CalculateAll)
		}

		gpa := api.Group("/gpa", middleware.OptionalJWT(verifier))
		{
			gpa.POST("/calculate", gpaHandler.Calculate)
			gpa.GET("/history", gpaHandler.History)
		}

		users := api.Group("/users", middleware.OptionalJWT(verifier))
		{
			users.GET("/me", userHandler.Me)
			users.PATCH("/metrics", userHandler.UpdateMetrics)
			users.GET("/changes", userHandler.Changes)
		}

		terms := api.Group("/terms", middleware.OptionalJWT(verifier))
		{
			terms.POST("/:id/complete", termHandler.Complete)
			terms.GET("/credits", termHandler.Credits)
		}

		reports := api.Group("/reports", middleware.OptionalJWT(verifier))
		{
			reports.GET("/progress", reportHandler.Progress)
			reports.GET("/download", reportHandler.Download)
		}

		api.GET("/system/metrics", systemHandler.Metrics)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
