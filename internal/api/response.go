package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zapponejosh/hijri-calendar/internal/hijri"
)

// Response represents a standard API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error codes returned for derivation failures.
const (
	CodeOutOfData       = "OUT_OF_DATA"
	CodeDataConsistency = "DATA_CONSISTENCY"
	CodeDriftExceeded   = "DRIFT_EXCEEDED"
	CodeSeasonalDrift   = "SEASONAL_DRIFT"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, status int, message string, code ...string) error {
	errInfo := ErrorInfo{
		Message: message,
	}
	if len(code) > 0 {
		errInfo.Code = code[0]
	}

	return WriteJSON(w, status, Response{
		Success: false,
		Error:   &errInfo,
	})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message, "NOT_FOUND")
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message, "BAD_REQUEST")
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// derivationStatus maps a derivation error to an HTTP status and error code.
// ok is false for errors that are not derivation failures.
func derivationStatus(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, hijri.ErrInvalidOptions):
		return http.StatusBadRequest, "BAD_REQUEST", true
	case errors.Is(err, hijri.ErrOutOfData):
		return http.StatusUnprocessableEntity, CodeOutOfData, true
	case errors.Is(err, hijri.ErrDataConsistency):
		return http.StatusUnprocessableEntity, CodeDataConsistency, true
	case errors.Is(err, hijri.ErrDriftExceeded):
		return http.StatusUnprocessableEntity, CodeDriftExceeded, true
	case errors.Is(err, hijri.ErrSeasonalDrift):
		return http.StatusUnprocessableEntity, CodeSeasonalDrift, true
	default:
		return 0, "", false
	}
}
