package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fieldcollect/fieldcollect/internal/assignments"
	"github.com/fieldcollect/fieldcollect/internal/collections"
	"github.com/fieldcollect/fieldcollect/internal/routes"
	"github.com/fieldcollect/fieldcollect/internal/visits"
	"github.com/fieldcollect/fieldcollect/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	CollectionsHandler *collections.Handler
	VisitsHandler      *visits.Handler
	AssignmentsHandler *assignments.Handler
	RoutesHandler      *routes.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.CollectionsHandler != nil {
		r.Route("/collections", params.CollectionsHandler.MountRoutes)
	}
	if params.VisitsHandler != nil {
		r.Route("/visits", params.VisitsHandler.MountRoutes)
	}
	if params.AssignmentsHandler != nil {
		r.Route("/assignments", params.AssignmentsHandler.MountRoutes)
	}
	if params.RoutesHandler != nil {
		r.Route("/routes", params.RoutesHandler.MountRoutes)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
