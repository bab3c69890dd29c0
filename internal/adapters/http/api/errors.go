package api

import (
	"errors"
	"net/http"

	service "github.com/okian/typeboard/internal/app"
	"github.com/okian/typeboard/internal/domain/abuse"
	"github.com/okian/typeboard/internal/domain/scoring"
	"github.com/okian/typeboard/internal/domain/validation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrTokenRequired = errors.New("access token required")
	ErrTokenInvalid  = errors.New("invalid or expired token")
)

// writeDomainError maps service and pipeline errors to responses. Anything
// unrecognized is an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var fe *validation.FieldError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:  "out_of_range",
			Error: fe.Error(),
			Field: fe.Field,
			Min:   &fe.Min,
			Max:   &fe.Max,
		})
	case errors.Is(err, ErrBadRequest), errors.Is(err, validation.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "invalid_payload", err)
	case errors.Is(err, scoring.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "invalid_action", err)
	case errors.Is(err, service.ErrInvalidRegistration):
		writeError(w, http.StatusBadRequest, "invalid_registration", err)
	case errors.Is(err, abuse.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
	case errors.Is(err, abuse.ErrDuplicateSubmission):
		writeError(w, http.StatusConflict, "duplicate_submission", err)
	case errors.Is(err, service.ErrUserExists):
		writeError(w, http.StatusConflict, "user_exists", service.ErrUserExists)
	case errors.Is(err, abuse.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", errors.New("user not found or inactive"))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", service.ErrInvalidCredentials)
	case errors.Is(err, service.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, "account_disabled", service.ErrAccountDisabled)
	case errors.Is(err, service.ErrNoTexts):
		writeError(w, http.StatusNotFound, "no_texts", service.ErrNoTexts)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", errors.New("internal server error"))
	}
}
