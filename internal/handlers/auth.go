package handlers

import (
	"net/http"

	"factorylink/internal/models"
	"factorylink/internal/services"
	"factorylink/internal/websocket"
)

type signupRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Contact  string `json:"contact"`
	Name     string `json:"name"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	account, err := h.auth.Signup(r.Context(), services.SignupInput{
		ID:      req.ID,
		Secret:  req.Password,
		Contact: req.Contact,
		Name:    req.Name,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	session, token, err := h.auth.Login(r.Context(), req.ID, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"account_id": session.AccountID,
		"is_admin":   session.IsAdmin,
		"expires_at": session.ExpiresAt,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), session); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	account, err := h.auth.Profile(r.Context(), session)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account":  account,
		"is_admin": session.IsAdmin,
	})
}

type changePasswordRequest struct {
	Current string `json:"current_password"`
	Next    string `json:"new_password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.auth.ChangePassword(r.Context(), session, req.Current, req.Next); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"regions":    models.Regions(),
		"categories": models.Categories(),
		"roles":      models.Roles(),
	})
}

// WSNotifications accepts the token as a query parameter since browsers
// cannot set headers on a websocket handshake.
func (h *Handler) WSNotifications(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	session, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	websocket.ServeWS(w, r, h.hub, session.AccountID)
}
