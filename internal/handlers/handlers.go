package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"factorylink/internal/auth"
	"factorylink/internal/records"
	"factorylink/internal/services"
	"factorylink/internal/storage"

	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrMissingField, http.StatusBadRequest},
	{services.ErrInvalidField, http.StatusBadRequest},
	{services.ErrInvalidDecision, http.StatusBadRequest},
	{services.ErrNotOnPage, http.StatusBadRequest},
	{storage.ErrUnsupportedImage, http.StatusBadRequest},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrInvalidToken, http.StatusUnauthorized},
	{services.ErrNotAuthorized, http.StatusForbidden},
	{services.ErrSelfRequest, http.StatusForbidden},
	{services.ErrProtectedAccount, http.StatusForbidden},
	{services.ErrListingNotFound, http.StatusNotFound},
	{services.ErrRequestNotFound, http.StatusNotFound},
	{services.ErrAccountNotFound, http.StatusNotFound},
	{services.ErrDuplicateIdentifier, http.StatusConflict},
	{services.ErrDuplicateRequest, http.StatusConflict},
	{services.ErrInvalidTransition, http.StatusConflict},
	{records.ErrStaleTable, http.StatusConflict},
	{records.ErrStoreUnavailable, http.StatusServiceUnavailable},
	{services.ErrImagesDisabled, http.StatusServiceUnavailable},
}

// respondServiceError maps a service error onto its HTTP status. Anything
// unrecognized is logged and reported as 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respondError(w, e.status, err.Error())
			return
		}
	}
	h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

func sessionFrom(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
	}
	return session, ok
}
