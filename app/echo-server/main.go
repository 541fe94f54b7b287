package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canaryAnalytics/app/echo-server/router"
	"canaryAnalytics/business/analytics"
	"canaryAnalytics/internal/middleware"
	psqlRepo "canaryAnalytics/internal/repository/postgres"
	promRepo "canaryAnalytics/internal/repository/prometheus"
	redisRepo "canaryAnalytics/internal/repository/redis"
	"canaryAnalytics/internal/rest"
	"canaryAnalytics/pkg/config"
	"canaryAnalytics/pkg/database"
	redisdb "canaryAnalytics/pkg/database/redis"
	"canaryAnalytics/pkg/logger"
	"canaryAnalytics/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting canary analytics", "version", cfg.App.Version, "state_store", cfg.State.Store)

	metrics.Init()

	// Init repo
	metricsRepo, err := promRepo.NewMetricsRepository(cfg.Prometheus.URL, cfg.Prometheus.QueryTimeout)
	if err != nil {
		logger.Fatal("Failed to create Prometheus client", "error", err)
	}

	stateRepo, closeState, err := initStateRepository(cfg)
	if err != nil {
		logger.Fatal("Failed to init experiment state store", "error", err)
	}
	defer closeState()

	// Init validate
	validate := validator.New()

	// Init service
	analyticsCfg := analytics.FromSettings(cfg.Analytics)
	if err := analyticsCfg.Validate(); err != nil {
		logger.Fatal("Invalid analytics settings", "error", err)
	}
	analyticsService := analytics.NewAnalyticsService(metricsRepo, stateRepo, analyticsCfg)

	// Init handler
	assessmentHandler := rest.NewAssessmentHandler(validate, analyticsService)
	stateAdminHandler := rest.NewStateAdminHandler(analyticsService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.Trace())
	e.Use(middleware.Metrics())

	authRequired, adminOnly := router.AuthFor(cfg.JWT.SecretKey)
	if cfg.JWT.SecretKey == "" {
		logger.Warn("JWT_SECRET not set, api routes are unauthenticated")
	}

	// Setup routes
	router.SetOpsRoutes(e)
	api := e.Group("/api/v1")
	router.SetAssessmentRoutes(api, assessmentHandler, authRequired)
	router.SetStateAdminRoutes(api, stateAdminHandler, authRequired, adminOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

// initStateRepository returns a nil repository when no store is configured.
func initStateRepository(cfg *config.Config) (analytics.ExperimentStateRepository, func(), error) {
	noop := func() {}

	switch cfg.State.Store {
	case config.StateStorePostgres:
		db, err := database.InitPostgres(cfg)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Database connected successfully")

		repo := psqlRepo.NewExperimentStateRepository(db)
		if err := repo.Migrate(context.Background()); err != nil {
			return nil, noop, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repo, closeDB, nil

	case config.StateStoreRedis:
		client, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Redis connected successfully")

		closeRedis := func() {
			if err := redisdb.CloseRedisClient(client); err != nil {
				logger.Error("Redis close error", "error", err)
			}
		}
		return redisRepo.NewExperimentStateRepository(client, cfg.State.TTL), closeRedis, nil

	default:
		return nil, noop, nil
	}
}
