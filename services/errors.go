package services

import (
	"errors"
	"fmt"

	"storefront/repository"
)

// ErrNotFound is returned for direct lookups that match nothing.
var ErrNotFound = repository.ErrNotFound

type AuthReason string

const (
	AuthInvalidSignature AuthReason = "invalid_signature"
	AuthExpired          AuthReason = "expired"
	AuthMissingUser      AuthReason = "missing_user"
	AuthTokenInvalid     AuthReason = "token_invalid"
	AuthBadCredentials   AuthReason = "bad_credentials"
)

// AuthError is surfaced to callers as unauthorized whatever the reason.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

type RejectReason string

const (
	RejectProductUnavailable RejectReason = "product_unavailable"
	RejectInsufficientStock  RejectReason = "insufficient_stock"
	RejectInvalidState       RejectReason = "invalid_state"
)

// OrderRejectedError carries a message naming the offending product or state.
type OrderRejectedError struct {
	Reason  RejectReason
	Message string
}

func (e *OrderRejectedError) Error() string { return e.Message }

func rejected(reason RejectReason, format string, args ...any) error {
	return &OrderRejectedError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports input that is well-formed JSON but not acceptable.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a write that clashes with existing records, such
// as a taken slug or a category that still has dependents.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// IsRejected reports whether err is an order rejection with the given reason.
func IsRejected(err error, reason RejectReason) bool {
	var rej *OrderRejectedError
	return errors.As(err, &rej) && rej.Reason == reason
}
