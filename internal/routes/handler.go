package routes

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fieldcollect/fieldcollect/internal/platform/httpx"
)

// Handler exposes the route summary JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers route-summary routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{collector}/summary", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	collectorID, err := strconv.ParseInt(chi.URLParam(r, "collector"), 10, 64)
	if err != nil || collectorID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "invalid collector id")
		return
	}

	summary, err := h.service.Summary(r.Context(), collectorID)
	if err != nil {
		h.logger.Error("route summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
