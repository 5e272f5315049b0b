package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/fieldcollect/fieldcollect/internal/routes"
)

// RouteWarmupJob refreshes the cached route summaries so the morning agenda
// loads without hitting the installment tables.
type RouteWarmupJob struct {
	Routes *routes.Service
	Logger *slog.Logger
}

// NewRouteWarmupJob wires dependencies for the warmup handler.
func NewRouteWarmupJob(routesSvc *routes.Service, logger *slog.Logger) *RouteWarmupJob {
	return &RouteWarmupJob{Routes: routesSvc, Logger: logger}
}

// Handle processes route warmup tasks.
func (j *RouteWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Routes == nil {
		return errors.New("route warmup: handler not configured")
	}
	var payload RouteWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	if len(payload.CollectorIDs) > 0 {
		for _, id := range payload.CollectorIDs {
			if _, err := j.Routes.Recompute(ctx, id); err != nil {
				j.Logger.Error("route warmup", slog.Int64("collector_id", id), slog.Any("error", err))
				return err
			}
		}
		j.Logger.Info("route warmup done", slog.Int("collectors", len(payload.CollectorIDs)))
		return nil
	}

	warmed, err := j.Routes.WarmAll(ctx)
	if err != nil {
		j.Logger.Error("route warmup", slog.Any("error", err))
		return err
	}
	j.Logger.Info("route warmup done", slog.Int("collectors", warmed))
	return nil
}
