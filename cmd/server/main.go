package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	productionapp "github.com/frameshop/backend/internal/application/production"
	"github.com/frameshop/backend/internal/infrastructure/auth"
	"github.com/frameshop/backend/internal/infrastructure/config"
	"github.com/frameshop/backend/internal/infrastructure/event"
	"github.com/frameshop/backend/internal/infrastructure/lock"
	"github.com/frameshop/backend/internal/infrastructure/logger"
	"github.com/frameshop/backend/internal/infrastructure/persistence"
	"github.com/frameshop/backend/internal/infrastructure/scheduler"
	"github.com/frameshop/backend/internal/infrastructure/telemetry"
	"github.com/frameshop/backend/internal/interfaces/http/handler"
	"github.com/frameshop/backend/internal/interfaces/http/middleware"
	"github.com/frameshop/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting production service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry providers install themselves as the otel globals
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(cfg.Telemetry, db.Driver, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if db.Driver == persistence.DriverSQLite {
		// sqlite has no migration files; the schema comes from the models
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	locker, closeLocker, err := lock.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize lock backend", zap.Error(err))
	}
	defer func() {
		if err := closeLocker(); err != nil {
			log.Error("Error closing lock backend", zap.Error(err))
		}
	}()

	// Repositories
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	frameRepo := persistence.NewGormFrameRepository(db.DB)
	progressRepo := persistence.NewGormProgressRepository(db.DB)
	sessionRepo := persistence.NewGormTimerSessionRepository(db.DB)
	timeLogRepo := persistence.NewGormTimeLogRepository(db.DB)
	stageRepo := persistence.NewGormStageRepository(db.DB)
	orderSource := persistence.NewGormOrderSource(db.DB)
	userDirectory := persistence.NewGormUserDirectory(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	stageService := productionapp.NewStageService(stageRepo, log)
	timerService := productionapp.NewTimerService(sessionRepo, batchRepo, stageService, userDirectory, txScope, locker, log)
	timerService.SetIdleTimeout(cfg.Timer.IdleTimeout)
	timeLogService := productionapp.NewTimeLogService(timeLogRepo, batchRepo, stageService, log)
	batchService := productionapp.NewBatchService(batchRepo, frameRepo, progressRepo, orderSource, stageService, txScope, log)
	progressService := productionapp.NewProgressService(batchRepo, frameRepo, progressRepo, stageService, timerService, locker, log)
	transitionService := productionapp.NewTransitionService(batchRepo, frameRepo, progressRepo, stageService, timerService, txScope, locker, log)
	reportService := productionapp.NewReportService(batchRepo, frameRepo, progressRepo, timeLogRepo, sessionRepo, userDirectory, stageService)

	if cfg.Production.SeedDefaultStages {
		seeded, err := stageService.EnsureDefaults(ctx)
		if err != nil {
			log.Fatal("Failed to seed default stages", zap.Error(err))
		}
		if seeded > 0 {
			log.Info("Default stages seeded", zap.Int("count", seeded))
		}
	}

	// Event bus: audit log and metrics
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	productionMetrics, err := telemetry.NewProductionMetrics(
		meterProvider.Meter("frameshop/production"), timerService.OpenSessionCount, log)
	if err != nil {
		log.Fatal("Failed to register production metrics", zap.Error(err))
	}
	eventBus.Subscribe(productionMetrics)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	timerService.SetEventPublisher(eventBus)
	batchService.SetEventPublisher(eventBus)
	progressService.SetEventPublisher(eventBus)
	transitionService.SetEventPublisher(eventBus)

	// Idle timer sweeper
	sweeper, err := scheduler.NewTimerSweeper(timerService, log, scheduler.TimerSweeperConfig{
		Enabled:  cfg.Timer.SweepEnabled && cfg.Timer.IdleTimeout > 0,
		Interval: cfg.Timer.SweepInterval,
		Timeout:  time.Minute,
	})
	if err != nil {
		log.Fatal("Failed to create timer sweeper", zap.Error(err))
	}
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal("Failed to start timer sweeper", zap.Error(err))
	}
	defer func() {
		if err := sweeper.Stop(context.Background()); err != nil {
			log.Error("Error stopping timer sweeper", zap.Error(err))
		}
	}()

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - generate or propagate the request ID
	// 2. Logger and Recovery - request-scoped logger, panics become 500s
	// 3. Tracing and metrics
	// 4. CORS, security headers, body limit, rate limit
	// 5. Actor resolution - JWT when enabled, X-User-ID otherwise
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(meterProvider.Meter("frameshop/http")))
	}
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.JWT.Enabled {
		jwtService := auth.NewJWTService(cfg.JWT)
		jwtConfig := middleware.DefaultJWTConfig(jwtService)
		jwtConfig.Logger = log
		engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
		log.Info("Bearer token authentication enabled", zap.String("issuer", cfg.JWT.Issuer))
	} else {
		engine.Use(middleware.HeaderActor())
		log.Warn("Token authentication disabled; the acting worker is read from X-User-ID")
	}

	// Rate limiting runs after actor resolution so limits are per worker
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisLocker, ok := locker.(*lock.RedisLocker); ok {
		checks["redis"] = func(ctx context.Context) error {
			return redisLocker.GetClient().Ping(ctx).Err()
		}
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, checks)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.NewProductionGroup(router.ProductionHandlers{
		Stages:   handler.NewStageHandler(stageService),
		Timers:   handler.NewTimerHandler(timerService),
		TimeLogs: handler.NewTimeLogHandler(timeLogService),
		Batches:  handler.NewBatchHandler(batchService),
		Frames:   handler.NewFrameHandler(progressService, transitionService),
		Reports:  handler.NewReportHandler(reportService),
	})).Register(router.NewSystemGroup(systemHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}
