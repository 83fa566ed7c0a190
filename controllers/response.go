package controllers

import (
	"encoding/json"
	"net/http"

	apperrors "amplify_server/errors"
	"amplify_server/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// respondError writes err as {"error": ...}. Client errors keep their status and message;
// server errors are logged and answered with 500 and the route's fallback message.
func respondError(w http.ResponseWriter, log logger.Logger, err error, fallback string) {
	if se, ok := apperrors.As(err); ok && se.Status < http.StatusInternalServerError {
		writeError(w, se.Status, se.Message)
		return
	}
	log.WithError(err).Error(fallback, nil)
	writeError(w, http.StatusInternalServerError, fallback)
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}
	return nil
}
