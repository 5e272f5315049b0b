package visits

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fieldcollect/fieldcollect/internal/platform/httpx"
)

// Handler exposes the visits JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers visit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listVisits)
	r.Post("/schedule", h.scheduleBatch)
	r.Post("/{id}/complete", h.complete)
	r.Post("/{id}/not-found", h.markNotFound)
	r.Post("/{id}/request-cancellation", h.requestCancellation)
	r.Post("/{id}/approve-cancellation", h.approveCancellation)
	r.Post("/{id}/reject-cancellation", h.rejectCancellation)
	r.Post("/{id}/reschedule", h.reschedule)
}

type proposalRequest struct {
	ClientDocument string `json:"client_document" validate:"required"`
	ClientName     string `json:"client_name"`
	Date           string `json:"date" validate:"required"`
	Time           string `json:"time"`
	Address        string `json:"address"`
}

type scheduleRequest struct {
	CollectorID int64             `json:"collector_id" validate:"required,gt=0"`
	Confirm     bool              `json:"confirm"`
	Visits      []proposalRequest `json:"visits" validate:"required,min=1,dive"`
}

func (h *Handler) scheduleBatch(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	proposals := make([]Proposal, 0, len(req.Visits))
	for _, v := range req.Visits {
		date, err := time.Parse("2006-01-02", v.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid date: "+v.Date)
			return
		}
		proposals = append(proposals, Proposal{
			ClientDocument: v.ClientDocument,
			ClientName:     v.ClientName,
			Date:           date,
			Time:           v.Time,
			Address:        v.Address,
		})
	}

	outcome, err := h.service.ScheduleBatch(r.Context(), req.CollectorID, proposals, req.Confirm)
	switch {
	case errors.Is(err, ErrBatchBlocked):
		httpx.JSON(w, http.StatusBadRequest, outcome)
		return
	case errors.Is(err, ErrConfirmationRequired):
		httpx.JSON(w, http.StatusConflict, outcome)
		return
	case err != nil:
		h.logger.Error("schedule batch", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, outcome)
}

func (h *Handler) listVisits(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	if raw := r.URL.Query().Get("collector_id"); raw != "" {
		filter.CollectorID, _ = strconv.ParseInt(raw, 10, 64)
	}
	filter.Status = Status(r.URL.Query().Get("status"))

	visits, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list visits", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, visits)
}

type outcomeRequest struct {
	Note string `json:"note"`
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Visit, error) {
		var req outcomeRequest
		_ = httpx.DecodeJSON(r, &req)
		return h.service.Complete(r.Context(), id, req.Note)
	})
}

func (h *Handler) markNotFound(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Visit, error) {
		var req outcomeRequest
		_ = httpx.DecodeJSON(r, &req)
		return h.service.MarkNotFound(r.Context(), id, req.Note)
	})
}

type cancellationRequest struct {
	CollectorID int64  `json:"collector_id"`
	Reason      string `json:"reason"`
}

func (h *Handler) requestCancellation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Visit, error) {
		var req cancellationRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h.service.RequestCancellation(r.Context(), id, req.CollectorID, req.Reason)
	})
}

type decisionRequest struct {
	ManagerID int64  `json:"manager_id" validate:"required,gt=0"`
	Reason    string `json:"reason"`
}

func (h *Handler) approveCancellation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Visit, error) {
		var req decisionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		if err := h.validate.Struct(req); err != nil {
			return nil, err
		}
		return h.service.ApproveCancellation(r.Context(), id, req.ManagerID)
	})
}

func (h *Handler) rejectCancellation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Visit, error) {
		var req decisionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		if err := h.validate.Struct(req); err != nil {
			return nil, err
		}
		return h.service.RejectCancellation(r.Context(), id, req.ManagerID, req.Reason)
	})
}

type rescheduleRequest struct {
	Date   string `json:"date" validate:"required"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Visit, error) {
		var req rescheduleRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		if err := h.validate.Struct(req); err != nil {
			return nil, err
		}
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, err
		}
		return h.service.Reschedule(r.Context(), id, date, req.Time, req.Reason)
	})
}

// transition centralises id parsing and error mapping for lifecycle
// endpoints.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, run func(uuid.UUID) (*Visit, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "invalid visit id")
		return
	}

	visit, err := run(id)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "visit not found")
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, ErrReasonRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrPersistFailed):
		// The state change happened locally; tell the caller persistence is
		// behind so they can retry.
		httpx.JSON(w, http.StatusAccepted, map[string]any{
			"visit":   visit,
			"warning": "state changed locally but persistence failed, retry later",
		})
	case err != nil:
		h.logger.Error("visit transition", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
	default:
		httpx.JSON(w, http.StatusOK, visit)
	}
}
