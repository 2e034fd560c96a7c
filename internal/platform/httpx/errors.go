// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrLocked       = errors.New("resource is locked")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicate), errors.Is(err, ErrLocked):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to an {"error": message} body.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	JSON(w, status, ErrorBody{Error: msg})
}

// Fail responds with RespondError and logs unexpected failures.
func Fail(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if StatusFor(err) == http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	RespondError(w, err)
}
