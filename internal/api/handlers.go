/**
 * @description
 * This file contains the HTTP handlers for the payout-service's API endpoints.
 * Handlers parse incoming requests, call the application service, and write the
 * HTTP response. Domain errors map onto status codes uniformly: validation 400,
 * not found 404, permission 403, conflict 409; anything else is masked as 500.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain: Service logic, models and error taxonomy.
 */

package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paystream/payout-service/internal/app"
	"github.com/paystream/payout-service/internal/domain"
)

// PayoutHandlers holds the application service that handlers will use.
type PayoutHandlers struct {
	service     *app.Service
	pageSize    int
	maxPageSize int
}

// NewPayoutHandlers creates a new instance of PayoutHandlers.
func NewPayoutHandlers(service *app.Service, pageSize, maxPageSize int) *PayoutHandlers {
	if pageSize <= 0 {
		pageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &PayoutHandlers{service: service, pageSize: pageSize, maxPageSize: maxPageSize}
}

// ErrorResponse is the JSON envelope for error replies.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (h *PayoutHandlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
		}
	}
}

func (h *PayoutHandlers) writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.Printf("level=error component=api msg=\"response write failed\" err=%v", err)
	}
}

func (h *PayoutHandlers) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeDomainError maps the domain error taxonomy to HTTP status codes.
// Unexpected errors are logged and masked behind a generic message.
func (h *PayoutHandlers) writeDomainError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err.Error())
	case domain.IsPermission(err):
		h.writeError(w, http.StatusForbidden, err.Error())
	case domain.IsConflict(err):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("level=error component=api endpoint=%s outcome=failed err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// ListPayoutsHandler serves the cached, cursor-paginated payout list.
func (h *PayoutHandlers) ListPayoutsHandler(w http.ResponseWriter, r *http.Request) {
	limit := h.pageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid limit.")
			return
		}
		limit = parsed
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}

	payload, err := h.service.ListPayouts(r.Context(), r.URL.Path, r.URL.Query(), domain.PayoutListOptions{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		h.writeDomainError(w, "list_payouts", err)
		return
	}

	h.writeRawJSON(w, http.StatusOK, payload)
}

// CreatePayoutHandler handles idempotent payout creation: 201 for a genuinely
// new payout, 200 for a duplicate replay of the same idempotency key.
func (h *PayoutHandlers) CreatePayoutHandler(w http.ResponseWriter, r *http.Request) {
	var payload domain.CreatePayoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	payout, isDuplicate, err := h.service.CreatePayout(r.Context(), payload)
	if err != nil {
		h.writeDomainError(w, "create_payout", err)
		return
	}

	status := http.StatusCreated
	if isDuplicate {
		status = http.StatusOK
	}
	h.writeJSON(w, status, payout)
}

// GetPayoutHandler fetches a single payout by id.
func (h *PayoutHandlers) GetPayoutHandler(w http.ResponseWriter, r *http.Request) {
	payoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payout ID.")
		return
	}

	payout, err := h.service.GetPayout(r.Context(), payoutID)
	if err != nil {
		h.writeDomainError(w, "get_payout", err)
		return
	}

	h.writeJSON(w, http.StatusOK, payout)
}

// ChangePayoutStatusHandler applies a status transition on behalf of the
// request actor.
func (h *PayoutHandlers) ChangePayoutStatusHandler(w http.ResponseWriter, r *http.Request) {
	payoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payout ID.")
		return
	}

	var payload domain.ChangeStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	payout, err := h.service.GetPayout(r.Context(), payoutID)
	if err != nil {
		h.writeDomainError(w, "change_payout_status", err)
		return
	}

	updated, err := h.service.ChangeStatus(r.Context(), payout, payload.Status, GetActor(r.Context()))
	if err != nil {
		h.writeDomainError(w, "change_payout_status", err)
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

// DeletePayoutHandler deletes a payout; staff only, any status.
func (h *PayoutHandlers) DeletePayoutHandler(w http.ResponseWriter, r *http.Request) {
	payoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payout ID.")
		return
	}

	if err := h.service.DeletePayout(r.Context(), payoutID, GetActor(r.Context())); err != nil {
		h.writeDomainError(w, "delete_payout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parsePositiveInt(raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("value must be positive")
	}
	return value, nil
}
