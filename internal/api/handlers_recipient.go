/**
 * @description
 * HTTP handlers for recipient management. Recipients are created and maintained
 * independently of payouts; deactivating one never cascades to existing
 * payouts, it only gates future status transitions.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paystream/payout-service/internal/domain"
)

// CreateRecipientHandler creates a new active recipient. Staff only.
func (h *PayoutHandlers) CreateRecipientHandler(w http.ResponseWriter, r *http.Request) {
	if !GetActor(r.Context()).IsStaff() {
		h.writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var payload domain.CreateRecipientPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	recipient, err := h.service.CreateRecipient(r.Context(), payload)
	if err != nil {
		h.writeDomainError(w, "create_recipient", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, recipient)
}

// GetRecipientHandler fetches a recipient by id.
func (h *PayoutHandlers) GetRecipientHandler(w http.ResponseWriter, r *http.Request) {
	recipientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid recipient ID.")
		return
	}

	recipient, err := h.service.GetRecipient(r.Context(), recipientID)
	if err != nil {
		h.writeDomainError(w, "get_recipient", err)
		return
	}

	h.writeJSON(w, http.StatusOK, recipient)
}

// UpdateRecipientHandler toggles the recipient's active flag. Staff only.
func (h *PayoutHandlers) UpdateRecipientHandler(w http.ResponseWriter, r *http.Request) {
	if !GetActor(r.Context()).IsStaff() {
		h.writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	recipientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid recipient ID.")
		return
	}

	var payload domain.UpdateRecipientPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}
	if payload.IsActive == nil {
		h.writeError(w, http.StatusBadRequest, "is_active is required.")
		return
	}

	recipient, err := h.service.SetRecipientActive(r.Context(), recipientID, *payload.IsActive)
	if err != nil {
		h.writeDomainError(w, "update_recipient", err)
		return
	}

	h.writeJSON(w, http.StatusOK, recipient)
}

// DeleteRecipientHandler deletes a recipient. Staff only; blocked with 409
// while any payout still references the recipient.
func (h *PayoutHandlers) DeleteRecipientHandler(w http.ResponseWriter, r *http.Request) {
	if !GetActor(r.Context()).IsStaff() {
		h.writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	recipientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid recipient ID.")
		return
	}

	if err := h.service.DeleteRecipient(r.Context(), recipientID); err != nil {
		h.writeDomainError(w, "delete_recipient", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
