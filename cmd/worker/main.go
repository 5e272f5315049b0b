package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fieldcollect/fieldcollect/internal/app"
	"github.com/fieldcollect/fieldcollect/internal/collections"
	"github.com/fieldcollect/fieldcollect/internal/platform/cache"
	"github.com/fieldcollect/fieldcollect/internal/platform/db"
	"github.com/fieldcollect/fieldcollect/internal/routes"
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

	collectionsRepo := collections.NewRepository(pool)
	collectionsService := collections.NewService(collectionsRepo, logger)

	visitsRepo := visits.NewRepository(pool)
	visitsService := visits.NewService(visitsRepo, collectionsService, nil, logger)

	routesService := routes.NewService(visitsService, collectionsService, redisClient, cfg.RouteSummaryTTL, logger)

	warmupJob := jobs.NewRouteWarmupJob(routesService, logger)
	reminderJob := jobs.NewVisitReminderJob(visitsService, logger)

	warmupTask, err := jobs.NewRouteWarmupTask(jobs.RouteWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	reminderTask, err := jobs.NewVisitReminderTask()
	if err != nil {
		logger.Error("build reminder task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRouteWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskVisitReminder, Handler: reminderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 18 * * *", Task: reminderTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
