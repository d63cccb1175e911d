package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/idempotency"
	"rentdesk-backend/internal/logger"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnprocessable   Code = "UNPROCESSABLE"
	CodeInternal        Code = "INTERNAL"
)

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

// toHTTPStatus maps service errors onto a status and public error code.
func toHTTPStatus(err error) (int, Code) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, idempotency.ErrInFlight):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusUnprocessableEntity, CodeUnprocessable
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidScope):
		return http.StatusBadRequest, CodeInvalidArgument
	}
	return http.StatusInternalServerError, CodeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := toHTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody(code, msg))
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody(CodeInvalidArgument, msg))
}
