package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	payloads []RouteWarmupPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueRouteWarmup(_ context.Context, payload RouteWarmupPayload) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(enqueuer WarmupEnqueuer) http.Handler {
	h := NewHandler(nil, enqueuer, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestWarmupEnqueuesTask(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := newJobsRouter(enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/jobs/warmup", strings.NewReader(`{"collector_ids":[1,2]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), `"task_id":"task-1"`)
	require.Len(t, enqueuer.payloads, 1)
	require.Equal(t, []int64{1, 2}, enqueuer.payloads[0].CollectorIDs)
}

func TestWarmupEmptyBodyMeansAllCollectors(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := newJobsRouter(enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/jobs/warmup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enqueuer.payloads, 1)
	require.Empty(t, enqueuer.payloads[0].CollectorIDs)
}

func TestWarmupEnqueueFailure(t *testing.T) {
	router := newJobsRouter(&fakeEnqueuer{err: errors.New("redis down")})

	req := httptest.NewRequest(http.MethodPost, "/jobs/warmup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWarmupWithoutEnqueuerUnavailable(t *testing.T) {
	router := newJobsRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/jobs/warmup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
