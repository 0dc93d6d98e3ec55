package handlers

import (
	"net/http"

	"factorylink/internal/models"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	req, err := h.requests.Create(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

// RequestStatus reports the caller's request state for a listing: "none",
// "own" for the caller's own listing, or the stored status.
func (h *Handler) RequestStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	listingID := chi.URLParam(r, "id")
	listing, err := h.listings.Get(r.Context(), listingID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if listing.OwnerID == session.AccountID {
		respondJSON(w, http.StatusOK, map[string]string{"status": "own"})
		return
	}
	status, found, err := h.requests.StatusFor(r.Context(), session, listingID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if !found {
		respondJSON(w, http.StatusOK, map[string]string{"status": "none"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	items, err := h.requests.Inbox(r.Context(), session)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) Outbox(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	items, err := h.requests.Outbox(r.Context(), session)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

type respondRequest struct {
	Decision string `json:"decision"`
}

func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	updated, err := h.requests.Respond(r.Context(), session, chi.URLParam(r, "id"), models.RequestStatus(req.Decision))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
