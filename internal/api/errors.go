/**
 * @description
 * This file maps the domain error taxonomy onto HTTP responses. Every error
 * leaving the service carries a stable machine-readable kind tag alongside a
 * human-readable message; transient storage failures are flagged retryable.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/payvault/payout-account-service/internal/domain"
	"github.com/payvault/payout-account-service/internal/store"
)

// errorBody is the JSON error envelope returned by every endpoint.
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// kindForError returns the stable kind tag and HTTP status for an error.
func kindForError(err error) (kind string, status int) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrUserNotFound):
		return "not_found", http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyVerified):
		return "already_verified", http.StatusConflict
	case errors.Is(err, domain.ErrPrimaryAccountUndeletable):
		return "primary_account_undeletable", http.StatusConflict
	case errors.Is(err, domain.ErrNoCodeIssued):
		return "no_code_issued", http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCodeMismatch):
		return "code_mismatch", http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCodeExpired):
		return "code_expired", http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAccountNotVerified):
		return "not_verified", http.StatusUnprocessableEntity
	case store.IsTransient(err):
		return "transient", http.StatusServiceUnavailable
	default:
		return "internal", http.StatusInternalServerError
	}
}

// writeDomainError renders an error from the service layer.
func writeDomainError(w http.ResponseWriter, err error) {
	kind, status := kindForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the logs.
		message = "internal server error"
	}
	writeError(w, status, kind, message)
}

// writeError renders an explicit error envelope.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	var body errorBody
	body.Error.Kind = kind
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
