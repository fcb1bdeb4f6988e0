package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/datapoint"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes. Codec failures use the codec response code instead,
// e.g. "INVALID_ADDRESS".
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeNotFound      = "not_found"
	ErrCodeUnauthorized  = "unauthorised"
	ErrCodeForbidden     = "forbidden"
	ErrCodeConflict      = "conflict"
	ErrCodeInternal      = "internal_error"
	ErrCodeValidation    = "validation_error"
	ErrCodeTooLarge      = "too_large"
	ErrCodeUnavailable   = "unavailable"
	ErrCodeInvalidImport = "invalid_import"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="plccodec"`)
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// codecHTTPStatus maps a codec response code to an HTTP status.
func codecHTTPStatus(code codec.ResponseCode) int {
	switch code {
	case codec.StatusOK:
		return http.StatusOK
	case codec.StatusInvalidAddress:
		return http.StatusBadRequest
	case codec.StatusNotFound:
		return http.StatusNotFound
	case codec.StatusInvalidData, codec.StatusInvalidDatatype:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeCodecError writes a codec failure, using its response code as the
// error code.
func writeCodecError(w http.ResponseWriter, err error) {
	code := codec.StatusOf(err)
	writeError(w, codecHTTPStatus(code), string(code), err.Error())
}

// writeDatapointError maps a catalog error to a response.
func writeDatapointError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, datapoint.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, datapoint.ErrExists), errors.Is(err, datapoint.ErrGroupAddressInUse):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, datapoint.ErrInvalidName),
		errors.Is(err, datapoint.ErrInvalidToken),
		errors.Is(err, datapoint.ErrInvalidGroupAddress),
		errors.Is(err, datapoint.ErrInvalidUnitID):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, datapoint.ErrInvalidImport):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidImport, err.Error())
	default:
		writeInternalError(w, "catalog operation failed")
	}
}

// isCatalogClientError reports whether err is answered with a 4xx.
func isCatalogClientError(err error) bool {
	for _, target := range []error{
		datapoint.ErrNotFound, datapoint.ErrExists, datapoint.ErrGroupAddressInUse,
		datapoint.ErrInvalidName, datapoint.ErrInvalidToken, datapoint.ErrInvalidGroupAddress,
		datapoint.ErrInvalidUnitID, datapoint.ErrInvalidImport,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
