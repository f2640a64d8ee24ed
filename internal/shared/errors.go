package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrDuplicateEmail occurs when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnauthorized occurs when a bearer token is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
)
