package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mdemidovs/secretbin/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps service errors to HTTP responses. Gate errors on
// share links use 410 so clients can distinguish a dead link from a bad URL.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrShareExpired):
		writeError(w, http.StatusGone, "link has expired")
	case errors.Is(err, common.ErrShareUsed):
		writeError(w, http.StatusGone, "link has already been used")
	case errors.Is(err, common.ErrShareDisabled):
		writeError(w, http.StatusGone, "link has been disabled")
	case errors.Is(err, common.ErrShareNotAccessible):
		writeError(w, http.StatusGone, "link is no longer accessible")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
