package assignments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fieldcollect/fieldcollect/internal/platform/httpx"
)

// Handler exposes the assignments JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/reassign", h.reassign)
	r.Get("/{collector}", h.portfolio)
}

type reassignRequest struct {
	CollectorID int64    `json:"collector_id" validate:"required,gt=0"`
	Clients     []string `json:"clients" validate:"required,min=1,dive,required"`
}

func (h *Handler) reassign(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	outcome, err := h.service.ReassignClients(r.Context(), req.CollectorID, req.Clients)
	if errors.Is(err, ErrNoClients) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("reassign clients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, outcome)
}

func (h *Handler) portfolio(w http.ResponseWriter, r *http.Request) {
	collectorID, err := strconv.ParseInt(chi.URLParam(r, "collector"), 10, 64)
	if err != nil || collectorID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "invalid collector id")
		return
	}

	assignments, err := h.service.Portfolio(r.Context(), collectorID)
	if err != nil {
		h.logger.Error("list portfolio", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignments)
}
