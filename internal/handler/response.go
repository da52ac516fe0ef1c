package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/haneul/bulletin/internal/apperror"
)

// ErrorResponse is the error shape every API endpoint returns. FieldErrors is
// present only for form validation failures, keyed by the offending field so
// the client can highlight it.
type ErrorResponse struct {
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// writeJSON sends a JSON response. Headers and status must go out before the
// body; once Encode writes, the headers are sealed.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a domain error into an HTTP status. The service layer
// returns apperror sentinels; this is the only place they meet status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	}

	var fields *apperror.FieldErrors
	if errors.As(err, &fields) {
		writeJSON(w, status, ErrorResponse{
			Error:       errorType,
			Message:     "please check the highlighted fields",
			FieldErrors: fields.Fields,
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{Error: errorType, Message: appErr.Message}
		if appErr.Field != "" {
			resp.FieldErrors = map[string]string{appErr.Field: appErr.Message}
		}
		writeJSON(w, status, resp)
		return
	}

	// Unknown error: keep the internals (SQL, paths) out of the response.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}
