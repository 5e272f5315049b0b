// Package jobs defines the background task types and the asynq worker that
// processes them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRouteWarmup recomputes every collector's route summary cache.
	TaskRouteWarmup = "routes:warmup"
	// TaskVisitReminder notifies collectors about tomorrow's scheduled visits.
	TaskVisitReminder = "visits:reminder"
)

// RouteWarmupPayload parametrises a warmup run. Empty means all collectors.
type RouteWarmupPayload struct {
	CollectorIDs []int64 `json:"collector_ids,omitempty"`
}

// NewRouteWarmupTask constructs an asynq task.
func NewRouteWarmupTask(payload RouteWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRouteWarmup, data), nil
}

// VisitReminderPayload carries no parameters today; the handler always looks
// at tomorrow's agenda.
type VisitReminderPayload struct{}

// NewVisitReminderTask constructs an asynq task.
func NewVisitReminderTask() (*asynq.Task, error) {
	data, err := json.Marshal(VisitReminderPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVisitReminder, data), nil
}
