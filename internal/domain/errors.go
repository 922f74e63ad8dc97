package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrEmailTaken         = errors.New("email_taken")
	ErrAccountTaken       = errors.New("account_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrFederatedAccount   = errors.New("federated_account")
	ErrResetTokenInvalid  = errors.New("reset_token_invalid")
	ErrMailDelivery       = errors.New("mail_delivery_failed")
	ErrAlreadySubmitted   = errors.New("already_submitted")
	ErrDuplicateEntry     = errors.New("duplicate_entry")
	ErrValidation         = errors.New("validation")

	// Bearer-gate outcomes. All three map to 401 but carry distinct
	// codes so clients can tell a missing header from a revoked account.
	ErrMissingCredential = errors.New("missing_credential")
	ErrInvalidCredential = errors.New("invalid_credential")
	ErrStaleCredential   = errors.New("stale_credential")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
