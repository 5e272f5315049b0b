package collections

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/fieldcollect/fieldcollect/internal/platform/httpx"
	"github.com/fieldcollect/fieldcollect/internal/shared"
)

// Handler exposes the collections JSON API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
	validate    *validator.Validate
	statements  singleflight.Group
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		idempotency: idempotency,
		validate:    validator.New(),
	}
}

// MountRoutes registers collections routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/clients", h.listClients)
	r.Get("/clients/{document}/statement", h.clientStatement)
	r.Get("/clients/{document}/sales/{sale}/statement", h.saleStatement)
	r.Post("/payments/sale", h.paySale)
	r.Post("/payments/general", h.payGeneral)
	r.Post("/installments/{id}/correction", h.applyCorrection)
}

type salePaymentRequest struct {
	ClientDocument string  `json:"client_document" validate:"required"`
	SaleNumber     string  `json:"sale_number" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	IdempotencyKey string  `json:"idempotency_key"`
}

type generalPaymentRequest struct {
	ClientDocument string  `json:"client_document"`
	ClientName     string  `json:"client_name"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	IdempotencyKey string  `json:"idempotency_key"`
}

type correctionRequest struct {
	NewReceived      float64 `json:"new_received"`
	AllowOverpayment bool    `json:"allow_overpayment"`
}

type paymentResponse struct {
	Ledger    []Entry `json:"ledger"`
	Leftover  float64 `json:"leftover"`
	Persisted int     `json:"persisted"`
	FailedIDs []int64 `json:"failed_ids,omitempty"`
	Message   string  `json:"message"`
}

func (h *Handler) paySale(w http.ResponseWriter, r *http.Request) {
	var req salePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if !h.claimKey(w, r, req.IdempotencyKey, "collections:payment") {
		return
	}

	outcome, err := h.service.ProcessSalePayment(r.Context(), req.ClientDocument, req.SaleNumber, req.Amount)
	if err != nil {
		h.releaseKey(r, req.IdempotencyKey)
		h.respondPaymentError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, buildPaymentResponse(outcome))
}

func (h *Handler) payGeneral(w http.ResponseWriter, r *http.Request) {
	var req generalPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.ClientDocument == "" && req.ClientName == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "client document or name required")
		return
	}
	if !h.claimKey(w, r, req.IdempotencyKey, "collections:payment") {
		return
	}

	outcome, err := h.service.ProcessGeneralPayment(r.Context(), req.ClientDocument, req.ClientName, req.Amount)
	if err != nil {
		h.releaseKey(r, req.IdempotencyKey)
		h.respondPaymentError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, buildPaymentResponse(outcome))
}

func (h *Handler) applyCorrection(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "invalid installment id")
		return
	}
	var req correctionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}

	inst, err := h.service.ApplyCorrection(r.Context(), CorrectionInput{
		InstallmentID:    id,
		NewReceived:      req.NewReceived,
		AllowOverpayment: req.AllowOverpayment,
	})
	switch {
	case errors.Is(err, ErrNegativeCorrection):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	case errors.Is(err, ErrOverpaymentDeclined):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Confirmation Required", err.Error())
		return
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	case err != nil:
		// The correction was applied locally but did not persist; the client
		// must be told so it can retry.
		h.logger.Error("apply correction", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Persistence Failed", "correction computed but not persisted, retry")
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClientGroups(r.Context())
	if err != nil {
		h.logger.Error("list client groups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *Handler) clientStatement(w http.ResponseWriter, r *http.Request) {
	document := chi.URLParam(r, "document")
	result, err, _ := h.statements.Do("client:"+document, func() (any, error) {
		return h.service.ClientStatement(r.Context(), document, "")
	})
	if err != nil {
		h.respondStatementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) saleStatement(w http.ResponseWriter, r *http.Request) {
	document := chi.URLParam(r, "document")
	sale := chi.URLParam(r, "sale")
	result, err, _ := h.statements.Do("sale:"+document+":"+sale, func() (any, error) {
		return h.service.SaleStatement(r.Context(), document, sale)
	})
	if err != nil {
		h.respondStatementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// claimKey reserves an idempotency key when one was supplied. It writes the
// conflict response itself and reports whether processing may continue.
func (h *Handler) claimKey(w http.ResponseWriter, r *http.Request, key, module string) bool {
	if key == "" || h.idempotency == nil {
		return true
	}
	if err := h.idempotency.CheckAndInsert(r.Context(), key, module); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate Payment", "this payment was already submitted")
			return false
		}
		h.logger.Error("idempotency check", slog.Any("error", err))
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) releaseKey(r *http.Request, key string) {
	if key == "" || h.idempotency == nil {
		return
	}
	if err := h.idempotency.Delete(r.Context(), key); err != nil {
		h.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}

func (h *Handler) respondPaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNonPositiveAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no outstanding installments for this scope")
	default:
		h.logger.Error("process payment", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) respondStatementError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error("build statement", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func buildPaymentResponse(outcome *PaymentOutcome) paymentResponse {
	return paymentResponse{
		Ledger:    outcome.Ledger,
		Leftover:  outcome.Leftover,
		Persisted: outcome.Persisted,
		FailedIDs: outcome.FailedIDs,
		Message:   fmt.Sprintf("%d succeeded, %d failed", outcome.Persisted, len(outcome.FailedIDs)),
	}
}
