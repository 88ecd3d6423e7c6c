package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/campuslink/campuslink/internal/analytics"
	"github.com/campuslink/campuslink/internal/app"
	"github.com/campuslink/campuslink/internal/archived"
	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/nstp"
	"github.com/campuslink/campuslink/internal/observability"
	"github.com/campuslink/campuslink/internal/organizations"
	"github.com/campuslink/campuslink/internal/platform/cache"
	"github.com/campuslink/campuslink/internal/platform/db"
	"github.com/campuslink/campuslink/internal/shared"
	"github.com/campuslink/campuslink/internal/views"
	"github.com/campuslink/campuslink/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "campuslink_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	listCache := cache.NewListCache(redisClient, "lists", cfg.ListCacheTTL)

	activityRepo := analytics.NewRepository(dbpool)
	activityService := analytics.NewService(activityRepo, logger)
	analyticsHandler := analytics.NewHandler(logger, activityService)

	orgRepo := organizations.NewRepository(dbpool)
	orgService := organizations.NewService(orgRepo, listCache, activityService, logger)
	orgHandler := organizations.NewHandler(logger, orgService, listCache)

	nstpRepo := nstp.NewRepository(dbpool)
	nstpService := nstp.NewService(nstpRepo, listCache, activityService, logger)
	nstpHandler := nstp.NewHandler(logger, nstpService, listCache)

	archiveService := archived.NewService()
	if err := archiveService.RegisterStore("organization", archived.NewOrganizationStore(orgService)); err != nil {
		logger.Error("register organization store", slog.Any("error", err))
		os.Exit(1)
	}
	if err := archiveService.RegisterStore("nstp_file", archived.NewNSTPFileStore(nstpService)); err != nil {
		logger.Error("register nstp store", slog.Any("error", err))
		os.Exit(1)
	}
	archivedHandler := archived.NewHandler(logger, archiveService)

	tabLoader := views.NewPGLoader(dbpool)
	viewsHandler := views.NewHandler(logger, tabLoader, listCache)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		AuthHandler:          authHandler,
		OrganizationsHandler: orgHandler,
		NSTPHandler:          nstpHandler,
		ArchivedHandler:      archivedHandler,
		ViewsHandler:         viewsHandler,
		AnalyticsHandler:     analyticsHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
