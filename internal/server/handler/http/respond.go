package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/service"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

// writeError maps the error taxonomy to a status code. Unknown errors are
// logged and reported as 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var (
		ve *apperr.ValidationError
		nf *apperr.NotFoundError
		ce *apperr.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: ve.Error()})
	case errors.As(err, &nf):
		writeMessage(w, http.StatusNotFound, notFoundMessage(nf.Kind))
	case errors.As(err, &ce):
		writeMessage(w, http.StatusConflict, ce.Message)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Server error", Error: err.Error()})
	}
}

func notFoundMessage(kind string) string {
	switch kind {
	case "habit":
		return "Habit not found"
	case "completion":
		return "Completion not found"
	case "user":
		return "User not found"
	}
	return "Not found"
}

// decode reads a JSON body into dst and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid request", Error: err.Error()})
		return false
	}
	return true
}
