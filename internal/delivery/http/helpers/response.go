package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"socialevents/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "conflict"
	ErrCodeQuotaExceeded = "quota_exceeded"
	ErrCodeInternalError = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode,
// and encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode,
// and encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Data:  nil,
		Error: &APIError{Code: code, Message: message},
	})
}

// KnownDomainError reports whether err is one of the service layer's sentinel
// errors, i.e. maps to a non-500 status. Controllers log errors that are not.
func KnownDomainError(err error) bool {
	for _, sentinel := range []error{
		domain.ErrNotFound, domain.ErrUserNotFound, domain.ErrUnauthenticated,
		domain.ErrForbidden, domain.ErrEventFull, domain.ErrAlreadyRegistered,
		domain.ErrAlreadyMember, domain.ErrQuotaExceeded, domain.ErrInvalidTarget,
		domain.ErrInvalidInput,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// WriteDomainError maps the service layer's sentinel errors onto HTTP status
// codes and writes the corresponding JSON error. Unknown errors become 500
// with a generic message so internals do not leak.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	case errors.Is(err, domain.ErrUnauthenticated):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrEventFull):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "event is full")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "already registered")
	case errors.Is(err, domain.ErrAlreadyMember):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "already a member")
	case errors.Is(err, domain.ErrQuotaExceeded):
		WriteJSONError(w, http.StatusForbidden, ErrCodeQuotaExceeded, "account quota exceeded")
	case errors.Is(err, domain.ErrInvalidTarget), errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
