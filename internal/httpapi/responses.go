package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"tilakamserver/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteJSON(w, http.StatusBadRequest, errorEnvelope{Error: apiError{
			Code:    "validation_error",
			Message: "invalid request",
			Fields:  verr.Fields,
		}})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, domain.ErrResetTokenInvalid):
		WriteError(w, http.StatusBadRequest, "reset_token_invalid", "reset link is invalid or has expired")
	case errors.Is(err, domain.ErrFederatedAccount):
		WriteError(w, http.StatusBadRequest, "federated_account", "this account signs in with its identity provider")
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, domain.ErrMissingCredential):
		WriteError(w, http.StatusUnauthorized, "missing_credential", "authorization required")
	case errors.Is(err, domain.ErrInvalidCredential):
		WriteError(w, http.StatusUnauthorized, "invalid_credential", "invalid session token")
	case errors.Is(err, domain.ErrStaleCredential):
		WriteError(w, http.StatusUnauthorized, "stale_credential", "session no longer valid")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "email_taken", "email already taken")
	case errors.Is(err, domain.ErrAccountTaken):
		WriteError(w, http.StatusConflict, "account_taken", "account already registered")
	case errors.Is(err, domain.ErrAlreadySubmitted):
		WriteError(w, http.StatusConflict, "already_submitted", "entry already submitted")
	case errors.Is(err, domain.ErrDuplicateEntry):
		WriteError(w, http.StatusConflict, "duplicate_entry", "duplicate entry")
	case errors.Is(err, domain.ErrMailDelivery):
		WriteError(w, http.StatusBadGateway, "mail_delivery_failed", "could not send email")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
