package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fieldcollect/fieldcollect/internal/visits"
)

// VisitSource lists visits. Implemented by the visits service.
type VisitSource interface {
	List(ctx context.Context, filter visits.ListFilter) ([]visits.Visit, error)
}

// VisitReminderJob logs a reminder for every visit scheduled tomorrow.
type VisitReminderJob struct {
	Visits VisitSource
	Logger *slog.Logger
	clock  func() time.Time
}

// NewVisitReminderJob wires dependencies for the reminder handler.
func NewVisitReminderJob(visitSource VisitSource, logger *slog.Logger) *VisitReminderJob {
	return &VisitReminderJob{
		Visits: visitSource,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes visit reminder tasks.
func (j *VisitReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Visits == nil {
		return errors.New("visit reminder: handler not configured")
	}
	var payload VisitReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	scheduled, err := j.Visits.List(ctx, visits.ListFilter{Status: visits.StatusScheduled})
	if err != nil {
		j.Logger.Error("visit reminder", slog.Any("error", err))
		return err
	}

	now := j.clock()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	reminded := 0
	for _, v := range scheduled {
		d := v.ScheduledDate
		if !time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Equal(tomorrow) {
			continue
		}
		j.Logger.Info("visit reminder",
			slog.Int64("collector_id", v.CollectorID),
			slog.String("client", v.ClientName),
			slog.String("slot", visits.SlotLabel(v.ScheduledDate, v.ScheduledTime)))
		reminded++
	}
	j.Logger.Info("visit reminders done", slog.Int("visits", reminded))
	return nil
}
