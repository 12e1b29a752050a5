// Package apperr carries the error taxonomy shared by services and
// handlers: validation, auth, authz, not-found and conflict. Handlers
// map these onto HTTP statuses in one place.
package apperr

import "fmt"

// ValidationError names the first failing input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("%s is required", e.Field)
}

func Validation(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func Required(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// AuthError: missing, expired or invalid credential.
type AuthError struct{ Msg string }

func (e *AuthError) Error() string { return e.Msg }

func Auth(msg string) *AuthError { return &AuthError{Msg: msg} }

// AuthzError: valid credential, insufficient role.
type AuthzError struct{ Msg string }

func (e *AuthzError) Error() string { return e.Msg }

func Authz(msg string) *AuthzError { return &AuthzError{Msg: msg} }

// NotFoundError covers both genuinely absent entities and the public
// lookup mask (a code that exists but is not COMPLETED must be
// indistinguishable from one that does not exist).
type NotFoundError struct{ Msg string }

func (e *NotFoundError) Error() string { return e.Msg }

func NotFound(msg string) *NotFoundError { return &NotFoundError{Msg: msg} }

// ConflictError: duplicate email, access-code retry budget exhausted.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(msg string) *ConflictError { return &ConflictError{Msg: msg} }
