package domain

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("access forbidden")

	// ErrSelfActionForbidden is returned when a cashier targets their own account
	// with a deactivation or removal.
	ErrSelfActionForbidden = errors.New("operation not allowed on own account")

	ErrUnauthenticated = errors.New("authentication required")
	ErrSessionNotFound = errors.New("session not found")
	ErrPersistence     = errors.New("persistence failure")
)
