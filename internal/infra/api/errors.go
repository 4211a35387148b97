package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"media-job-intake/internal/domain"
)

// apiError is the body of every non-2xx response.
type apiError struct {
	Status       int    `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	ErrorClass   string `json:"errorClass"`
}

// classify maps a use case error to a status code and a stable class name.
// Creation faults are checked before storage faults so a wrapped cause does
// not change the status.
func classify(err error) (int, string, string) {
	var (
		verr *domain.ValidationError
		nerr *domain.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "ValidationError", verr.Reason
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RateLimitedError", err.Error()
	case errors.As(err, &nerr):
		return http.StatusNotFound, "ProcessNotFoundError", nerr.Reason
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "ProcessNotFoundError", "No process found"
	case errors.Is(err, domain.ErrJobCreation):
		return http.StatusInternalServerError, "ProcessCreationError", err.Error()
	case errors.Is(err, domain.ErrExternalService):
		return http.StatusServiceUnavailable, "ExternalServiceError", err.Error()
	default:
		return http.StatusInternalServerError, "InternalError", "internal error"
	}
}

func writeError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	status, class, msg := classify(err)
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Int("status", status).Str("error_class", class).Msg("request failed")
	writeJSON(w, status, apiError{Status: status, ErrorMessage: msg, ErrorClass: class})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, apiError{
		Status:       http.StatusBadRequest,
		ErrorMessage: msg,
		ErrorClass:   "BadRequest",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
