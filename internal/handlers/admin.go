package handlers

import (
	"context"
	"net/http"

	"factorylink/internal/auth"
	"factorylink/internal/pagination"
	"factorylink/internal/services"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	dashboard, err := h.admin.Dashboard(r.Context(), session)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) AdminAccounts(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	page, err := h.admin.AccountsPage(r.Context(), session, pagination.FromRequest(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) AdminListings(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	page, err := h.admin.ListingsPage(r.Context(), session, pagination.FromRequest(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

type bulkDeleteRequest struct {
	Page int      `json:"page"`
	IDs  []string `json:"ids"`
}

func (h *Handler) AdminDeleteListings(w http.ResponseWriter, r *http.Request) {
	h.bulkDelete(w, r, h.admin.DeleteListings)
}

func (h *Handler) AdminDeleteAccounts(w http.ResponseWriter, r *http.Request) {
	h.bulkDelete(w, r, h.admin.DeleteAccounts)
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request, remove func(ctx context.Context, session auth.Session, params pagination.Params, ids []string) (int, error)) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	removed, err := remove(r.Context(), session, pagination.NewParams(req.Page), req.IDs)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted": removed})
}

type updateAccountsRequest struct {
	Revision string                 `json:"revision"`
	Edits    []services.AccountEdit `json:"edits"`
}

func (h *Handler) AdminUpdateAccounts(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req updateAccountsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Revision == "" {
		respondError(w, http.StatusBadRequest, "revision is required")
		return
	}
	updated, err := h.admin.UpdateAccounts(r.Context(), session, req.Revision, req.Edits)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) AdminResetPassword(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := h.admin.ResetPassword(r.Context(), session, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
