package core

import "fmt"

// Error taxonomy for the whole application. The HTTP boundary maps these to
// status codes with errors.As; everything else is treated as a store failure.

// ValidationError reports malformed or out-of-range input. The first violated
// constraint wins; violations are never aggregated.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// AuthError reports a missing, invalid or expired credential, or a failed
// login. Login failures carry the same message regardless of whether the
// email or the password was wrong.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

// ConflictError reports a duplicate unique key (registered email).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError reports that no row owned by the caller matches.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// StoreError wraps an underlying persistence failure. The boundary logs it
// and answers with a generic 500; no internal detail leaks to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }
