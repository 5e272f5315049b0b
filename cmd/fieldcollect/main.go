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

	"github.com/fieldcollect/fieldcollect/internal/app"
	"github.com/fieldcollect/fieldcollect/internal/assignments"
	"github.com/fieldcollect/fieldcollect/internal/collections"
	"github.com/fieldcollect/fieldcollect/internal/platform/cache"
	"github.com/fieldcollect/fieldcollect/internal/platform/db"
	"github.com/fieldcollect/fieldcollect/internal/routes"
	"github.com/fieldcollect/fieldcollect/internal/shared"
	"github.com/fieldcollect/fieldcollect/internal/visits"
	"github.com/fieldcollect/fieldcollect/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	approvalRecorder := shared.NewApprovalRecorder(pool, logger)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	collectionsRepo := collections.NewRepository(pool)
	collectionsService := collections.NewService(collectionsRepo, logger)
	collectionsHandler := collections.NewHandler(logger, collectionsService, idempotencyStore)

	visitsRepo := visits.NewRepository(pool)
	visitsService := visits.NewService(visitsRepo, collectionsService, approvalRecorder, logger)
	visitsHandler := visits.NewHandler(logger, visitsService)

	assignmentsRepo := assignments.NewRepository(pool)
	assignmentsService := assignments.NewService(assignmentsRepo, logger)
	assignmentsHandler := assignments.NewHandler(logger, assignmentsService)

	routesService := routes.NewService(visitsService, collectionsService, redisClient, cfg.RouteSummaryTTL, logger)
	routesHandler := routes.NewHandler(logger, routesService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CollectionsHandler: collectionsHandler,
		VisitsHandler:      visitsHandler,
		AssignmentsHandler: assignmentsHandler,
		RoutesHandler:      routesHandler,
		JobsHandler:        jobsHandler,
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
